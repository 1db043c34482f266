package auth

import (
	"fmt"
	"net/smtp"
	"os"
)

func SendVerificationEmail(to string, token string) error {
	from := os.Getenv("SMTP_FROM")
	password := os.Getenv("SMTP_PASSWORD")
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")

	auth := smtp.PlainAuth("", from, password, host)

	base := os.Getenv("API_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	link := fmt.Sprintf("%s/verify?token=%s", base, token)
	subject := "Verify Your Account"
	body := fmt.Sprintf("Click the following link to verify your account:\n\n%s\n\nOr enter the code %s on the verification page.", link, token)

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		body + "\r\n")

	return smtp.SendMail(host+":"+port, auth, from, []string{to}, message)
}
