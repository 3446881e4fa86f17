package user

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/internal/cli/prompt"
	"github.com/kohakuhub/kohakuhub/pkg/apiclient"
)

var (
	registerUsername    string
	registerPassword    string
	registerEmail       string
	registerDisplayName string
	registerInvitation  string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account",
	Long: `Register a new account on the server.

If username or password are not provided via flags, you will be prompted
to enter them interactively. Invitation-gated servers require a valid
invitation token.

Examples:
  # Register interactively
  kohubctl user register

  # Register with flags
  kohubctl user register --username alice --email alice@example.com

  # Register with an invitation token
  kohubctl user register --username alice --invitation <token>`,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringVarP(&registerUsername, "username", "u", "", "Username (prompts if not provided)")
	registerCmd.Flags().StringVarP(&registerPassword, "password", "p", "", "Password (prompts if not provided)")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Email address")
	registerCmd.Flags().StringVar(&registerDisplayName, "display-name", "", "Display name")
	registerCmd.Flags().StringVar(&registerInvitation, "invitation", "", "Invitation token")
}

func runRegister(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	username := registerUsername
	if username == "" {
		username, err = prompt.InputRequired("Username")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	password := registerPassword
	if password == "" {
		password, err = prompt.PasswordWithConfirmation("Password", "Confirm password", 8)
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	email := registerEmail
	if email == "" && !cmd.Flags().Changed("email") {
		email, err = prompt.InputOptional("Email")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	resp, err := client.Register(&apiclient.RegisterRequest{
		Username:    username,
		Password:    password,
		Email:       email,
		DisplayName: registerDisplayName,
		Invitation:  registerInvitation,
	})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	return cmdutil.PrintResourceWithSuccess(os.Stdout, resp,
		fmt.Sprintf("Account '%s' registered. Log in with: kohubctl login -u %s", resp.Username, resp.Username))
}
