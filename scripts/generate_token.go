package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/your-org/checkout-backend/internal/config"
	"github.com/your-org/checkout-backend/internal/pkg/auth"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run scripts/generate_token.go <user-id> [admin]")
	}

	userID, err := strconv.ParseUint(os.Args[1], 10, 32)
	if err != nil || userID == 0 {
		log.Fatal("Invalid user id:", os.Args[1])
	}
	isAdmin := len(os.Args) > 2 && os.Args[2] == "admin"

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading configuration:", err)
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.App.Name, cfg.JWT.AccessTokenExpiry)
	token, err := jwtManager.GenerateAccessToken(uint(userID), isAdmin)
	if err != nil {
		log.Fatal("Error generating token:", err)
	}

	if _, err := jwtManager.ValidateAccessToken(token); err != nil {
		log.Fatal("Token verification failed:", err)
	}

	fmt.Printf("User: %d (admin: %t)\n", userID, isAdmin)
	fmt.Printf("Authorization: Bearer %s\n", token)
}
