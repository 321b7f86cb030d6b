package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"gitlab.com/contactbook/contacts-service/internal/auth"
	"gitlab.com/contactbook/contacts-service/internal/config"
)

// maxInt is the largest possible int value
const maxInt = int(^uint(0) >> 1)

// VerificationSender delivers verification emails. Delivery is
// fire-and-forget; handlers do not learn about failures.
type VerificationSender interface {
	SendVerification(toAddr string, link string)
}

// AvatarUploader stores an avatar image on the external image host and
// returns its public URL.
type AvatarUploader interface {
	Upload(ctx context.Context, filename string, file io.Reader) (string, error)
}

// Server bundles the database handle, the prepared statements and the
// collaborators of all HTTP handlers. It replaces what used to be package
// level state so that tests and the cmd packages can construct isolated
// instances with their own configuration.
type Server struct {
	cfg      config.Config
	db       *sqlx.DB
	auth     auth.Provider
	mailer   VerificationSender
	uploader AvatarUploader
	limiter  *clientLimiter

	// Prepared statements offer a significant speed increase if executed
	// many times.
	insertContact        *sqlx.NamedStmt
	selectContactWhereId *sqlx.Stmt
	deleteContactWhereId *sqlx.Stmt
	insertUser           *sqlx.NamedStmt
	selectUserWhereEmail *sqlx.Stmt
	selectUserWhereId    *sqlx.Stmt
}

// CreateDatabase initializes and returns a database connection with the
// parameters from the given configuration.
func CreateDatabase(cfg config.Config) *sql.DB {
	sqlDB, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		log.Fatal(err)
	}
	return sqlDB
}

// NewServer initializes the sqlx database wrapper with the specified sql
// database and prepares all statements. The database argument can be a real
// database for production use or a mock database within unit tests.
func NewServer(cfg config.Config, sqlDB *sql.DB, provider auth.Provider, mailer VerificationSender, uploader AvatarUploader) *Server {
	s := &Server{
		cfg:      cfg,
		db:       sqlx.NewDb(sqlDB, "mysql"),
		auth:     provider,
		mailer:   mailer,
		uploader: uploader,
		limiter:  newClientLimiter(cfg.CreateRateLimit),
	}
	var err error
	s.insertContact, err = s.db.PrepareNamed(`
		INSERT INTO contacts (first_name, last_name, email, phone, birthday, additional_info, owner_id)
		VALUES (:first_name, :last_name, :email, :phone, :birthday, :additional_info, :owner_id)
	`)
	if err != nil {
		log.Fatal(err)
	}
	s.selectContactWhereId, err = s.db.Preparex(`
		SELECT * FROM contacts WHERE id = ? AND owner_id = ?
	`)
	if err != nil {
		log.Fatal(err)
	}
	s.deleteContactWhereId, err = s.db.Preparex(`
		DELETE FROM contacts WHERE id = ? AND owner_id = ?
	`)
	if err != nil {
		log.Fatal(err)
	}
	s.insertUser, err = s.db.PrepareNamed(`
		INSERT INTO users (email, hashed_password, verify_token)
		VALUES (:email, :hashed_password, :verify_token)
	`)
	if err != nil {
		log.Fatal(err)
	}
	s.selectUserWhereEmail, err = s.db.Preparex(`
		SELECT * FROM users WHERE email = ?
	`)
	if err != nil {
		log.Fatal(err)
	}
	s.selectUserWhereId, err = s.db.Preparex(`
		SELECT * FROM users WHERE id = ?
	`)
	if err != nil {
		log.Fatal(err)
	}
	return s
}

// SetupHttpRouter initializes the REST API router and registers all
// endpoints. Contact endpoints require a bearer token; contact creation is
// additionally rate limited per client address.
func (s *Server) SetupHttpRouter() *gin.Engine {
	var router *gin.Engine
	if strings.EqualFold(s.cfg.GinLogging, "off") {
		fmt.Println("Turning off HTTP request logging.")
		router = gin.New()
		router.Use(gin.Recovery())
	} else {
		router = gin.Default()
	}
	router.Use(corsMiddleware(s.cfg.AllowedOrigins))

	router.POST("/register", s.register)
	router.POST("/token", s.issueToken)
	router.POST("/send-verification-email", s.sendVerificationEmail)
	router.GET("/verify-email/:token", s.verifyEmail)
	router.POST("/upload-avatar", s.requireUser(), s.uploadAvatar)

	router.POST("/contacts", s.rateLimit(), s.requireUser(), s.createContact)
	router.GET("/contacts", s.requireUser(), s.findContacts)
	// The search and upcoming_birthdays subresources are dispatched inside
	// findContactByID because gin's router does not accept static children
	// next to the ':id' wildcard.
	router.GET("/contacts/:id", s.requireUser(), s.findContactByID)
	router.PUT("/contacts/:id", s.requireUser(), s.updateContactByID)
	router.DELETE("/contacts/:id", s.requireUser(), s.deleteContactByID)
	return router
}

// isDuplicateKey reports whether the error is a MySQL unique constraint
// violation (error number 1062).
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// abortConflict answers a unique constraint violation with the CONFLICT
// status code.
func abortConflict(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": message})
}
