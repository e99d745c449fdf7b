package main

import (
	"fmt"
	"time"

	"admin-notes-backend/pkg/auth"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		roles  []string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin session token for the HTTP API",
		Long: `token signs a session JWT with the configured JWT_SECRET. Send it as a
Bearer token or in the auth_token cookie. Outside production the development
secret is used when JWT_SECRET is unset.`,
		Example: `curl -H "Authorization: Bearer $(notesctl token)" localhost:8080/api/v2/notes`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			generator, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{
				SecretKey:  cfg.JWTSigningKey(),
				Issuer:     cfg.JWTIssuer,
				ExpiryTime: ttl,
			})
			if err != nil {
				return err
			}

			token, err := generator.GenerateToken(userID, email, roles)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "admin", "User id carried in the token")
	cmd.Flags().StringVar(&email, "email", "", "Email carried in the token")
	cmd.Flags().StringSliceVar(&roles, "role", []string{"administrator"}, "Roles granted to the session")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
