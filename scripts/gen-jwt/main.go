// Gen-jwt prints an HS256 token for local testing. Run from project root:
// go run ./scripts/gen-jwt -sub seed-owner -email owner@example.com
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"

	"taskflow/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	sub := flag.String("sub", "test-user", "token subject (user id)")
	email := flag.String("email", "", "email claim")
	name := flag.String("name", "", "name claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "change-me"
	}

	signed, err := middleware.SignToken(secret, middleware.Claims{
		Email:            *email,
		Name:             *name,
		RegisteredClaims: jwt.RegisteredClaims{Subject: *sub},
	}, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign token:", err)
		os.Exit(1)
	}
	fmt.Println(signed)
}
