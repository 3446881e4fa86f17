package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/kohakuhub/kohakuhub/internal/cli/prompt"
	"github.com/kohakuhub/kohakuhub/pkg/config"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/hub/store"
)

// userCmd manages users directly against the hub database. It exists
// for bootstrapping: the first admin account must be created before
// anyone can sign in through the API.
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users in the hub database",
	Long: `Manage users directly in the hub database.

These commands bypass the API and operate on the configured database.
Use them to bootstrap the first admin account; day-to-day user
management goes through kohubctl.

Examples:
  # Create the first admin
  kohakuhub user add --username admin --admin

  # Create a regular user non-interactively
  kohakuhub user add --username alice --password secret123

  # List all users
  kohakuhub user list`,
}

var (
	userAddUsername string
	userAddPassword string
	userAddEmail    string
	userAddAdmin    bool
)

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user",
	RunE:  runUserAdd,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE:  runUserList,
}

func init() {
	userAddCmd.Flags().StringVarP(&userAddUsername, "username", "u", "", "Username (prompted if omitted)")
	userAddCmd.Flags().StringVarP(&userAddPassword, "password", "p", "", "Password (prompted if omitted)")
	userAddCmd.Flags().StringVar(&userAddEmail, "email", "", "Email address")
	userAddCmd.Flags().BoolVar(&userAddAdmin, "admin", false, "Grant the site admin role")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
}

func openStore() (store.Store, error) {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return nil, err
	}
	return store.New(&cfg.Database)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	username := userAddUsername
	if username == "" {
		var err error
		username, err = prompt.InputRequired("Username")
		if err != nil {
			return err
		}
	}

	password := userAddPassword
	if password == "" {
		var err error
		password, err = prompt.PasswordWithValidation("Password", 8)
		if err != nil {
			return err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	role := models.RoleUser
	if userAddAdmin {
		role = models.RoleAdmin
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Email:        userAddEmail,
		Enabled:      true,
		Role:         string(role),
	}
	if err := user.Validate(); err != nil {
		return err
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	id, err := s.CreateUser(context.Background(), user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("User %q created (id %s, role %s)\n", username, id, role)
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	users, err := s.ListUsers(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tROLE\tEMAIL\tENABLED")
	for _, u := range users {
		email := u.Email
		if email == "" {
			email = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", u.Username, u.Role, email, u.Enabled)
	}
	return w.Flush()
}
