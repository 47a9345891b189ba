package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-intake/internal/config"
	"github.com/jonathan/cv-intake/internal/server"
)

var (
	tokenSubject string
	hashPassword string
	hashCost     int
)

var issueTokenCmd = &cobra.Command{
	Use:   "issue-token",
	Short: "Issue an admin API token",
	Long:  "Sign a bearer token for the admin API with JWT_SECRET, without going through the login endpoint.",
	Args:  cobra.NoArgs,
	RunE:  runIssueToken,
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Hash an admin password for ADMIN_PASSWORD_HASH",
	Long:  "Print the bcrypt hash of a password (from --password or the first line of standard input), peppered with PASSWORD_PEPPER when set.",
	Args:  cobra.NoArgs,
	RunE:  runHashPassword,
}

func init() {
	issueTokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Token subject (defaults to the admin username)")
	hashPasswordCmd.Flags().StringVar(&hashPassword, "password", "", "Password to hash (reads standard input when empty)")
	hashPasswordCmd.Flags().IntVar(&hashCost, "cost", config.DefaultBcryptCost, "bcrypt cost")

	rootCmd.AddCommand(issueTokenCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}

func runIssueToken(cmd *cobra.Command, _ []string) error {
	jwtConfig, err := cfg.Auth.JWT()
	if err != nil {
		return err
	}
	subject := tokenSubject
	if subject == "" {
		subject = cfg.Auth.AdminUsername
	}

	token, err := server.NewJWTService(jwtConfig).GenerateToken(subject)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}

func runHashPassword(cmd *cobra.Command, _ []string) error {
	password := hashPassword
	if password == "" {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read password from standard input: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	hash, err := config.HashPassword(password, cfg.Auth.PasswordPepper, hashCost)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
	return err
}
