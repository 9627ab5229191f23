package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/fractal-global/fractal-go/pkg/fractal"
)

// userCommand creates the user command with subcommands.
func (c *CLI) userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Read and update user profiles",
	}

	cmd.AddCommand(c.userMeCommand())
	cmd.AddCommand(c.userGetCommand())
	cmd.AddCommand(c.userUpdateCommand())
	return cmd
}

// userMeCommand creates the "user me" subcommand.
func (c *CLI) userMeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show your own profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := userSession(ctx)
			if err != nil {
				return err
			}
			client, err := c.sessionClient()
			if err != nil {
				return err
			}

			user, err := client.GetMe(ctx, sess.AccessToken())
			if err != nil {
				return err
			}
			printUser(user)
			return nil
		},
	}
}

// userGetCommand creates the "user get" subcommand.
func (c *CLI) userGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <user-id>",
		Short: "Show a user's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user ID %q", args[0])
			}

			ctx := cmd.Context()
			sess, err := userSession(ctx)
			if err != nil {
				return err
			}
			client, err := c.sessionClient()
			if err != nil {
				return err
			}

			user, err := client.GetUser(ctx, sess.AccessToken(), userID)
			if err != nil {
				return err
			}
			printUser(user)
			return nil
		},
	}
}

// userUpdateCommand creates the "user update" subcommand.
func (c *CLI) userUpdateCommand() *cobra.Command {
	var (
		newUsername string
		newEmail    string
		newPhone    string
		newImage    string
		newBirthday string
		password    string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update your profile",
		Long: `Update profile fields on your own account.

Only the flags you pass are changed. Sensitive changes may require your
current password via --password.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := userSession(ctx)
			if err != nil {
				return err
			}
			client, err := c.sessionClient()
			if err != nil {
				return err
			}

			token := sess.AccessToken()
			userID, ok := token.UserID()
			if !ok {
				return fmt.Errorf("stored session has no user scope")
			}

			var updates []fractal.UserUpdate
			if newUsername != "" {
				updates = append(updates, fractal.SetUsername(newUsername))
			}
			if newEmail != "" {
				updates = append(updates, fractal.SetEmail(newEmail))
			}
			if newPhone != "" {
				updates = append(updates, fractal.SetPhone(newPhone))
			}
			if newImage != "" {
				updates = append(updates, fractal.SetImage(newImage))
			}
			if newBirthday != "" {
				parsed, err := time.Parse("2006-01-02", newBirthday)
				if err != nil {
					return fmt.Errorf("invalid birthday %q (want YYYY-MM-DD)", newBirthday)
				}
				updates = append(updates, fractal.SetBirthday(fractal.NewDate(parsed.Year(), parsed.Month(), parsed.Day())))
			}
			if password != "" {
				updates = append(updates, fractal.ConfirmedBy(password))
			}
			if len(updates) == 0 {
				return fmt.Errorf("nothing to update (see --help for flags)")
			}

			if err := client.UpdateUser(ctx, token, userID, updates...); err != nil {
				return err
			}
			printSuccess("Profile updated")
			return nil
		},
	}

	cmd.Flags().StringVar(&newUsername, "username", "", "new username")
	cmd.Flags().StringVar(&newEmail, "email", "", "new email address")
	cmd.Flags().StringVar(&newPhone, "phone", "", "new phone number")
	cmd.Flags().StringVar(&newImage, "image", "", "new profile image URL")
	cmd.Flags().StringVar(&newBirthday, "birthday", "", "new birthday (YYYY-MM-DD)")
	cmd.Flags().StringVar(&password, "password", "", "current password, for changes that require confirmation")
	return cmd
}

// sessionClient builds an SDK client for commands that already hold a
// session and don't need app credentials.
func (c *CLI) sessionClient() (*fractal.Client, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return c.newClient(cfg)
}

// printUser renders a profile as key/value lines.
func printUser(user *fractal.User) {
	printSuccess("%s", user.Username)
	printKeyValue("ID", strconv.FormatUint(user.ID, 10))
	if name := user.Name(); name != user.Username {
		printKeyValue("Name", name)
	}
	printKeyValue("Email", user.Email+confirmedMark(user.EmailConfirmed))
	if user.Phone != nil {
		printKeyValue("Phone", *user.Phone+confirmedMark(user.PhoneConfirmed))
	}
	printKeyValue("Balance", StyleNumber.Render(user.CheckingBalance.String()))
	printKeyValue("Cold", StyleNumber.Render(user.ColdBalance.String()))
	for _, w := range user.WalletAddresses {
		printKeyValue("Wallet", w.String())
	}
	if user.Birthday != nil {
		printKeyValue("Birthday", user.Birthday.String())
	}
	printKeyValue("Registered", user.Registered.Format("Jan 2, 2006"))
	if user.Banned != nil {
		printWarning("Banned since %s", user.Banned.Format("Jan 2, 2006"))
	}
}

func confirmedMark(confirmed bool) string {
	if confirmed {
		return " " + StyleSuccess.Render(iconSuccess)
	}
	return " " + StyleDim.Render("(unconfirmed)")
}
