// Command authtoken prints a bearer token for a trader or administrator
// pubkey, signed with the configured secret.
package main

import (
	"flag"
	"fmt"
	"os"

	"t2e-leaderboard/internal/app"
	"t2e-leaderboard/internal/config"
	"t2e-leaderboard/internal/domain"
)

func main() {
	configPath := flag.String("config", os.Getenv("T2E_CONFIG"), "Path to the YAML config file")
	subject := flag.String("subject", "", "Pubkey the token is issued for")
	ttl := flag.Duration("ttl", 0, "Token lifetime (default: auth.token_ttl)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Auth.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "Error: auth.jwt_secret (JWT_SECRET) is required")
		os.Exit(1)
	}
	if *ttl > 0 {
		cfg.Auth.TokenTTL = *ttl
	}

	pk, err := domain.ParsePubkey(*subject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -subject: %v\n", err)
		os.Exit(1)
	}

	token, err := app.NewTokenIssuer(cfg.Auth).Issue(pk)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
