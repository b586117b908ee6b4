package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"smartcampus/backend/internal/complaint"
	"smartcampus/backend/internal/identity"
	"smartcampus/backend/internal/models"
)

var setRoleCmd = &cobra.Command{
	Use:   "set-role <uid> <student|admin>",
	Short: "Change a user's role",
	Args:  cobra.ExactArgs(2),
	RunE: withEnv(func(ctx context.Context, e *env, args []string) error {
		u, err := e.service.SetRole(ctx, systemCaller, args[0], models.Role(args[1]))
		if err != nil {
			return err
		}
		fmt.Printf("User %s is now %s.\n", u.UID, u.Role)
		return nil
	}),
}

var listUsersCmd = &cobra.Command{
	Use:   "list-users",
	Short: "List every user with their role",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, e *env, _ []string) error {
		users, err := e.service.Users(ctx, systemCaller)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "UID\tROLE\tEMAIL\tNAME")
		for _, u := range users {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.UID, u.Role, u.Email, u.Name)
		}
		return tw.Flush()
	}),
}

var setStatusCmd = &cobra.Command{
	Use:   "set-status <complaint-id> <open|pending|in-progress|resolved|closed>",
	Short: "Move a complaint through the workflow",
	Args:  cobra.ExactArgs(2),
	RunE: withEnv(func(ctx context.Context, e *env, args []string) error {
		c, err := e.service.SetStatus(ctx, systemCaller, args[0], models.Status(args[1]))
		if err != nil {
			return err
		}
		fmt.Printf("Complaint %s is now %s.\n", c.ID, c.Status)
		return nil
	}),
}

var exportFlags struct {
	out      string
	search   string
	category string
	status   string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export complaints as CSV",
	Args:  cobra.NoArgs,
	RunE: withEnv(func(ctx context.Context, e *env, _ []string) error {
		var w io.Writer = os.Stdout
		if exportFlags.out != "" && exportFlags.out != "-" {
			f, err := os.Create(exportFlags.out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return e.service.ExportCSV(ctx, systemCaller, w, complaint.AdminQuery{
			Search:   exportFlags.search,
			Category: exportFlags.category,
			Status:   models.Status(exportFlags.status),
		})
	}),
}

var devTokenFlags struct {
	email string
	name  string
	ttl   time.Duration
}

// devTokenCmd signs a token accepted when AUTH_MODE=jwt.
var devTokenCmd = &cobra.Command{
	Use:   "dev-token <uid>",
	Short: "Issue a development bearer token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		v, err := identity.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
		if err != nil {
			return err
		}
		token, err := v.IssueToken(args[0], devTokenFlags.email, devTokenFlags.name, devTokenFlags.ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFlags.out, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().StringVar(&exportFlags.search, "search", "", "match title, description or author")
	exportCmd.Flags().StringVar(&exportFlags.category, "category", "", "only this category")
	exportCmd.Flags().StringVar(&exportFlags.status, "status", "", "only this status")

	devTokenCmd.Flags().StringVar(&devTokenFlags.email, "email", "", "email claim")
	devTokenCmd.Flags().StringVar(&devTokenFlags.name, "name", "", "name claim")
	devTokenCmd.Flags().DurationVar(&devTokenFlags.ttl, "ttl", 24*time.Hour, "token lifetime")
}
