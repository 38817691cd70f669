package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"case-service/internal/client"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	apiURL  string
	viewer  string
	role    string
	verbose bool
}

var opts options

var rootCmd = &cobra.Command{
	Use:           "casectl",
	Short:         "Work with case-service requests from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}

		if opts.apiURL == "" {
			opts.apiURL = envOr("CASE_API_URL", "http://localhost:8080/api")
		}
		if opts.viewer == "" {
			opts.viewer = os.Getenv("CASE_VIEWER_ID")
		}
		if opts.role == "" {
			opts.role = envOr("CASE_VIEWER_ROLE", string(client.RoleCSR))
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api", "", "API base url (env CASE_API_URL)")
	rootCmd.PersistentFlags().StringVar(&opts.viewer, "as", "", "viewer user id (env CASE_VIEWER_ID)")
	rootCmd.PersistentFlags().StringVar(&opts.role, "role", "", "viewer role: pin, csr, pm or ua (env CASE_VIEWER_ROLE)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log protocol activity to stderr")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLogger() *zap.Logger {
	if !opts.verbose {
		return zap.NewNop()
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func currentViewer() (client.Viewer, error) {
	id, err := uuid.Parse(opts.viewer)
	if err != nil {
		return client.Viewer{}, fmt.Errorf("viewer id %q is not a valid uuid", opts.viewer)
	}

	role := client.Role(strings.ToLower(opts.role))
	switch role {
	case client.RolePIN, client.RoleCSR, client.RolePM, client.RoleUA:
	default:
		return client.Viewer{}, fmt.Errorf("unknown role %q", opts.role)
	}

	return client.Viewer{ID: id, Role: role}, nil
}

// defaultFilter is the working set each role sees on its dashboard.
func defaultFilter(v client.Viewer) client.Filter {
	switch v.Role {
	case client.RolePIN:
		return client.Filter{OwnerID: &v.ID}
	case client.RoleCSR:
		return client.Filter{Status: string(client.StatusPending), CSRID: &v.ID}
	}
	return client.Filter{}
}
