package service

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gitlab.com/contactbook/contacts-service/internal/model"
)

// registerRequest is the JSON body of the registration endpoint.
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// register creates a new user account. The password is stored as a salted
// one-way hash, never as plaintext. A duplicate email is answered with the
// CONFLICT status code.
//
// Example REST API call:
//
//	> curl http://localhost:8080/register --request "POST" --include --header "Content-Type: application/json" --data '{"email": "a@x.com", "password": "p"}'
func (s *Server) register(c *gin.Context) {
	var request registerRequest
	if err := c.BindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	if request.Email == "" || request.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "email and password are required"})
		return
	}
	hash, err := s.auth.HashPassword(request.Password)
	if err != nil {
		log.Panicln(err)
	}
	user := model.User{
		Email:          request.Email,
		HashedPassword: hash,
		VerifyToken:    uuid.NewString(),
	}
	result, err := s.insertUser.Exec(&user)
	if isDuplicateKey(err) {
		abortConflict(c, "user already exists")
		return
	}
	if err != nil {
		log.Panicln(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		log.Panicln(err)
	}
	c.IndentedJSON(http.StatusCreated, gin.H{"email": user.Email, "id": id})
}

// issueToken authenticates a user with the form fields 'username' (the email
// address) and 'password' and responds with a signed, time-limited bearer
// token. An unknown user and a wrong password are answered identically.
//
// Example REST API call:
//
//	> curl http://localhost:8080/token --request "POST" --include --data "username=a@x.com&password=p"
func (s *Server) issueToken(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	var users []model.User
	if err := s.selectUserWhereEmail.Select(&users, username); err != nil {
		log.Panicln(err)
	}
	if len(users) == 0 || !s.auth.VerifyPassword(password, users[0].HashedPassword) {
		c.Header("WWW-Authenticate", "Bearer")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "incorrect username or password"})
		return
	}
	token, err := s.auth.IssueToken(users[0].Id)
	if err != nil {
		log.Panicln(err)
	}
	c.IndentedJSON(http.StatusCreated, gin.H{"access_token": token, "token_type": "bearer"})
}

// emailRequest is the JSON body of the send-verification-email endpoint.
type emailRequest struct {
	Email string `json:"email"`
}

// sendVerificationEmail mails a verification link to the given address. The
// response returns before the mail is delivered; delivery failures are not
// surfaced to the caller.
//
// Example REST API call:
//
//	> curl http://localhost:8080/send-verification-email --request "POST" --include --header "Content-Type: application/json" --data '{"email": "a@x.com"}'
func (s *Server) sendVerificationEmail(c *gin.Context) {
	var request emailRequest
	if err := c.BindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	var users []model.User
	if err := s.selectUserWhereEmail.Select(&users, request.Email); err != nil {
		log.Panicln(err)
	}
	if len(users) == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	link := s.cfg.PublicBaseURL + "/verify-email/" + users[0].VerifyToken
	s.mailer.SendVerification(users[0].Email, link)
	c.IndentedJSON(http.StatusOK, gin.H{"message": "verification email sent"})
}

// verifyEmail marks the user matching the verification token as verified.
//
// Example REST API call:
//
//	> curl http://localhost:8080/verify-email/9f3c6a52-0b1e-4a7d-8c2f-5d6e7f8a9b0c
func (s *Server) verifyEmail(c *gin.Context) {
	result := s.db.MustExec("UPDATE users SET verified = TRUE WHERE verify_token = ?", c.Param("token"))
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Panicln(err)
	}
	if rowsAffected == 0 {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"message": "email verified successfully"})
}

// uploadAvatar stores the uploaded image on the external image host and
// records its public URL on the authenticated user.
//
// Example REST API call:
//
//	> curl http://localhost:8080/upload-avatar --request "POST" --include --header "Authorization: Bearer $TOKEN" --form "file=@avatar.png"
func (s *Server) uploadAvatar(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "missing file"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "unreadable file"})
		return
	}
	defer file.Close()

	url, err := s.uploader.Upload(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"message": "avatar upload failed"})
		return
	}
	s.db.MustExec("UPDATE users SET avatar_url = ? WHERE id = ?", url, currentUser(c).Id)
	c.IndentedJSON(http.StatusOK, gin.H{"message": "avatar updated successfully", "avatar_url": url})
}
