// Command viewertoken mints a signed viewer token for a roommate, for use
// against a server running with VIEWER_TOKEN_SECRET set.
//
//	viewertoken -viewer Sarah -ttl 720h
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mmynk/roomies/internal/auth"
	"github.com/mmynk/roomies/internal/config"
	"github.com/mmynk/roomies/pkg/logging"
)

func main() {
	logging.Setup()

	viewer := flag.String("viewer", "", "roommate name to put in the token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "how long the token stays valid")
	flag.Parse()

	token, err := mint(*viewer, *ttl)
	if err != nil {
		slog.Error("Failed to mint viewer token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func mint(viewer string, ttl time.Duration) (string, error) {
	if viewer == "" {
		return "", errors.New("-viewer is required")
	}
	if ttl <= 0 {
		return "", errors.New("-ttl must be positive")
	}

	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	if cfg.ViewerTokenSecret == "" {
		return "", errors.New("VIEWER_TOKEN_SECRET is not set")
	}

	return auth.NewJWTManager(cfg.ViewerTokenSecret, ttl).Generate(viewer)
}
