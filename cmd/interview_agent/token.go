package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-coach/internal/server"
)

var tokenUserID string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for local testing",
	Long:  "Signs a bearer token for the given user ID with JWT_SECRET, for exercising the API without an identity provider.",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVarP(&tokenUserID, "user", "u", "", "User ID to embed in the token (required)")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(_ *cobra.Command, _ []string) error {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}

	jwtService, err := server.NewJWTService(secret)
	if err != nil {
		return err
	}

	token, err := jwtService.GenerateToken(tokenUserID)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
