package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/sessiongate/internal/auth"
	"github.com/mrlokans/sessiongate/internal/entrypoint"
)

// NewCreateUserCmd creates the create-user subcommand.
func NewCreateUserCmd(loadConfig ConfigLoader) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Register a user without going through HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := entrypoint.New(loadConfig())
			if err != nil {
				return err
			}
			defer app.Close()

			user, err := app.Auth.CreateUser(cmd.Context(), auth.RegisterRequest{
				Username: username,
				Password: password,
			})
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}

			cmd.Printf("Created user %q (id %d)\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "username to register")
	cmd.Flags().StringVar(&password, "password", "", "password for the new user")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// NewListUsersCmd creates the list-users subcommand.
func NewListUsersCmd(loadConfig ConfigLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "list-users",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := entrypoint.New(loadConfig())
			if err != nil {
				return err
			}
			defer app.Close()

			all, err := app.Auth.ListUsers(cmd.Context())
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tCREATED")
			for _, u := range all {
				fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.Username, u.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}
