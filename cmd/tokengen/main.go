// Package main provides a CLI tool for generating test operator tokens.
// These tokens use the dev signing key and will NOT work in production.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"induct/internal/platform/token"
)

const (
	// Dev signing key - matches config.go when INDUCT_JWT_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"

	defaultTokenTTL = 8 * time.Hour
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	operatorCmd := flag.NewFlagSet("operator", flag.ExitOnError)
	adminCmd := flag.NewFlagSet("admin", flag.ExitOnError)

	operatorID := operatorCmd.String("operator-id", "op-local", "Operator identifier")
	operatorTTL := operatorCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	operatorKey := operatorCmd.String("signing-key", devSigningKey, "HS256 signing key")
	operatorJSON := operatorCmd.Bool("json", false, "Output as JSON")

	adminID := adminCmd.String("operator-id", "admin-local", "Operator identifier")
	adminTTL := adminCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	adminKey := adminCmd.String("signing-key", devSigningKey, "HS256 signing key")
	adminJSON := adminCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "operator":
		operatorCmd.Parse(os.Args[2:])
		generate(*operatorID, "operator", *operatorTTL, *operatorKey, *operatorJSON)
	case "admin":
		adminCmd.Parse(os.Args[2:])
		generate(*adminID, "admin", *adminTTL, *adminKey, *adminJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate test operator tokens for the induct API

WARNING: These tokens use the dev signing key and will NOT work in production.
         Only use for local development and testing.

Usage:
  tokengen <command> [flags]

Commands:
  operator  Generate a token with the operator role
  admin     Generate a token with the admin role (can use scan overrides)

Examples:
  # Generate an operator token with defaults
  tokengen operator

  # Generate an admin token for a specific operator
  tokengen admin -operator-id "admin-42"

  # Generate a short-lived token
  tokengen operator -ttl 15m

  # Output as JSON
  tokengen operator -json

Use "tokengen <command> -h" for more information about a command.`)
}

func generate(operatorID, role string, ttl time.Duration, signingKey string, jsonOutput bool) {
	svc := token.NewService(signingKey)

	tokenString, err := svc.Generate(operatorID, role, ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		output := tokenOutput{
			Token:     tokenString,
			Type:      "operator_token",
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"sub":  operatorID,
				"role": role,
			},
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		}
		printJSON(output)
		return
	}

	fmt.Println("Operator Token (JWT)")
	fmt.Println("====================")
	fmt.Printf("Operator ID: %s\n", operatorID)
	fmt.Printf("Role:        %s\n", role)
	fmt.Printf("Expires In:  %s\n", ttl)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(tokenString)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/...")
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
