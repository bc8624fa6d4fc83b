// Command distribute asks a running server to pay the reward pool to the top
// ranked traders, or to toggle the emergency pause.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"t2e-leaderboard/internal/api"
	"t2e-leaderboard/internal/app"
	"t2e-leaderboard/internal/config"
	"t2e-leaderboard/internal/domain"
)

func main() {
	configPath := flag.String("config", os.Getenv("T2E_CONFIG"), "Path to the YAML config file")
	serverURL := flag.String("server", "http://localhost:8080", "Base URL of the leaderboard server")
	adminKey := flag.String("admin", os.Getenv("T2E_ADMIN"), "Administrator pubkey the request is signed for")
	topN := flag.Int("top", 0, "Number of ranked traders to pay (default: rewards.top_n)")
	pool := flag.Uint64("pool", 0, "Reward pool before halving (default: rewards.pool)")
	pause := flag.String("pause", "", "Set the emergency pause to true or false instead of distributing")
	timeout := flag.Duration("timeout", api.DefaultClientTimeout, "Request timeout")
	flag.Parse()

	if err := run(*configPath, *serverURL, *adminKey, *topN, *pool, *pause, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, serverURL, adminKey string, topN int, pool uint64, pause string, timeout time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (JWT_SECRET) is required to sign the request")
	}
	admin, err := domain.ParsePubkey(adminKey)
	if err != nil {
		return fmt.Errorf("-admin: %w", err)
	}

	token, err := app.NewTokenIssuer(cfg.Auth).Issue(admin)
	if err != nil {
		return err
	}
	client := api.NewClient(serverURL, token, api.WithClientTimeout(timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if pause != "" {
		paused, err := parseBool(pause)
		if err != nil {
			return err
		}
		state, err := client.SetPause(ctx, paused)
		if err != nil {
			return err
		}
		fmt.Printf("emergency pause: %t\n", state)
		return nil
	}

	if topN == 0 {
		topN = cfg.Rewards.TopN
	}
	if pool == 0 {
		pool = cfg.Rewards.Pool
	}
	if pool == 0 {
		return errors.New("-pool or rewards.pool is required")
	}

	dist, runErr := client.Distribute(ctx, topN, pool)
	if dist != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(dist); err != nil {
			return err
		}
	}
	return runErr
}

func parseBool(s string) (bool, error) {
	switch s {
	case "true", "on", "1":
		return true, nil
	case "false", "off", "0":
		return false, nil
	default:
		return false, fmt.Errorf("-pause %q: want true or false", s)
	}
}
