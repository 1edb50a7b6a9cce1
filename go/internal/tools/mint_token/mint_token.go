package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mcdev12/focusroom/go/internal/auth"
)

// mint_token prints a handshake token for local testing, the same shape the web
// session hands to the browser.
func main() {
	_ = godotenv.Load()

	userID := flag.String("user", "", "user id (required)")
	name := flag.String("name", "", "display name")
	ttl := flag.Duration("ttl", auth.DefaultTokenTTL, "token lifetime")
	flag.Parse()

	secret := os.Getenv("SOCKET_TOKEN_SECRET")
	if secret == "" {
		secret = os.Getenv("NEXTAUTH_SECRET")
	}
	if secret == "" {
		fmt.Fprintln(os.Stderr, "SOCKET_TOKEN_SECRET (or NEXTAUTH_SECRET) must be set")
		os.Exit(1)
	}
	if *userID == "" {
		flag.Usage()
		os.Exit(2)
	}

	token, err := auth.NewIssuer(secret, *ttl, nil).Issue(*userID, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", time.Now().Add(*ttl).Format(time.RFC3339))
}
