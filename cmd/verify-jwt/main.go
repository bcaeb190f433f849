package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/appgruard/Grua-RD-sub000/internal/shared/auth"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/config"
)

func main() {
	token := flag.String("token", "", "JWT token to verify")
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "Error: -token flag is required")
		fmt.Fprintln(os.Stderr, "Usage: verify-jwt -token=<JWT_TOKEN>")
		os.Exit(1)
	}

	cfg := config.Load()
	jwtService := auth.NewJWTService(cfg.JWT)

	claims, err := jwtService.ValidateToken(*token)
	if err != nil {
		fmt.Printf("Token validation FAILED: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Token is valid\n\n")
	fmt.Printf("Claims:\n")
	fmt.Printf("  User ID: %s\n", claims.UserID)
	fmt.Printf("  Email:   %s\n", claims.Email)
	fmt.Printf("  Role:    %s\n", claims.Role)
	fmt.Printf("  Issuer:  %s\n", claims.Issuer)
	fmt.Printf("  Issued At:  %s\n", claims.IssuedAt.Time)
	fmt.Printf("  Expires At: %s\n", claims.ExpiresAt.Time)
}
