package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/nulzo/analytics-api/internal/auth"
)

func main() {
	email := flag.String("email", "admin@example.com", "Email claim of the token")
	subject := flag.String("subject", "", "Subject claim, random when empty")
	role := flag.String("role", auth.RoleAdmin, "Role claim of the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	_ = godotenv.Load()

	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		log.Fatal("AUTH_JWT_SECRET is not set")
	}

	issuer, err := auth.NewIssuer(secret, *ttl)
	if err != nil {
		log.Fatal(err)
	}

	token, err := issuer.Issue(*subject, *email, *role)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(token)
}
