package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/appgruard/Grua-RD-sub000/internal/shared/auth"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/config"
)

func main() {
	userID := flag.String("user", "550e8400-e29b-41d4-a716-446655440000", "User ID (UUID)")
	email := flag.String("email", "test@example.com", "Email address")
	role := flag.String("role", "cliente", "Role (cliente|conductor|admin)")
	flag.Parse()

	cfg := config.Load()
	jwtService := auth.NewJWTService(cfg.JWT)

	token, err := jwtService.GenerateToken(*userID, *email, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating JWT token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nUser ID:   %s\n", *userID)
	fmt.Printf("Email:     %s\n", *email)
	fmt.Printf("Role:      %s\n", *role)
	fmt.Printf("\nToken:\n%s\n", token)
	fmt.Printf("\nAuthorization: Bearer %s\n", token)
}
