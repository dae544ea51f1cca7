// cmd/devtoken/main.go prints a signed operator token for local testing.
// Usage: go run ./cmd/devtoken -operator <uuid> -role manager
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"salonledger/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func main() {
	operator := flag.String("operator", "", "operator id (uuid)")
	name := flag.String("name", "Dev Operator", "operator display name")
	role := flag.String("role", middleware.RoleOperator, "operator | manager | admin")
	ttl := flag.Duration("ttl", 8*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}
	if _, err := uuid.Parse(*operator); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -operator %q: %v\n", *operator, err)
		os.Exit(1)
	}

	now := time.Now()
	claims := middleware.JWTClaims{
		OperatorID: *operator,
		Name:       *name,
		Role:       *role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(*ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
