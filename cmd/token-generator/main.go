// Command token-generator mints a bearer token for a user so the API can be
// exercised locally with auth.mode=jwt. It reads the same configuration as
// the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/phrazzld/servertask/internal/config"
	"github.com/phrazzld/servertask/internal/service/auth"
)

func main() {
	userID := flag.String("user", "demo-user", "user id placed in the token subject")
	flag.Parse()

	token, err := generate(*userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}

func generate(userID string) (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return "", err
	}

	return jwtService.GenerateToken(context.Background(), userID)
}
