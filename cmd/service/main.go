package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"gitlab.com/contactbook/contacts-service/internal/auth"
	"gitlab.com/contactbook/contacts-service/internal/avatar"
	"gitlab.com/contactbook/contacts-service/internal/config"
	"gitlab.com/contactbook/contacts-service/internal/mail"
	"gitlab.com/contactbook/contacts-service/internal/service"
)

// Usage example on the command line:
// > PORT=8080 DBUSER=dirk DBPWD=bullo92 SECRET_KEY=changeme GIN_MODE=release GIN_LOGGING=OFF go run main.go
func main() {
	// A .env file is optional; plain environment variables work as well.
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("could not load configuration", err)
		panic(err)
	}
	_, err = strconv.Atoi(cfg.Port)
	if err != nil {
		fmt.Println("could not parse PORT env variable", err)
		panic(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	provider := auth.New(cfg.SecretKey, cfg.TokenTTL)
	mailer := mail.NewSender(cfg.SendgridKey, cfg.MailFromName, cfg.MailFrom, logger)
	uploader := avatar.NewUploader(cfg.ImageHostURL, cfg.ImageHostKey)

	sqlDB := service.CreateDatabase(cfg)
	server := service.NewServer(cfg, sqlDB, provider, mailer, uploader)
	router := server.SetupHttpRouter()
	router.Run(":" + cfg.Port)
}
