package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	apierrors "github.com/fractal-global/fractal-go/pkg/errors"
	"github.com/fractal-global/fractal-go/pkg/session"
)

// sessionTTL is the duration for CLI sessions (30 days). The stored
// token usually expires sooner; the session is capped to it.
const sessionTTL = 30 * 24 * time.Hour

// loginCommand creates the login command.
func (c *CLI) loginCommand() *cobra.Command {
	var username string
	var rememberMe bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to your Fractal account",
		Long: `Log in with your username (or email) and password.

The application credentials come from the config file or the
FRACTAL_APP_ID and FRACTAL_APP_SECRET environment variables. Your
session is stored in ~/.config/fractal/sessions/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if existing, _ := userSession(ctx); existing != nil {
				printInfo("Already logged in as %s", existing.Username)
				printDetail("Run 'fractal logout' first to re-authenticate")
				return nil
			}

			if username == "" {
				var err error
				username, err = promptLine("Username or email: ")
				if err != nil {
					return err
				}
			}
			password, err := promptPassword("Password: ")
			if err != nil {
				return err
			}

			_, err = c.runLogin(ctx, username, password, rememberMe)
			return err
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username or email")
	cmd.Flags().BoolVar(&rememberMe, "remember-me", true, "request a long-lived token")
	return cmd
}

// logoutCommand creates the logout command.
func (c *CLI) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := session.NewCLIStore()
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			if err := store.DeleteSession(cmd.Context()); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			printSuccess("Logged out")
			return nil
		},
	}
}

// whoamiCommand creates the whoami command.
func (c *CLI) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently logged-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := userSession(ctx)
			if err != nil {
				return err
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			client, err := c.newClient(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			spinner := newSpinnerWithContext(ctx, "Verifying session...")
			spinner.Start()

			user, err := client.GetMe(ctx, sess.AccessToken())
			if err != nil {
				spinner.StopWithError("Session invalid")
				return fmt.Errorf("verify session: %w", err)
			}
			spinner.Stop()

			printSuccess("Fractal Session")
			printKeyValue("Username", user.Username)
			if name := user.Name(); name != user.Username {
				printKeyValue("Name", name)
			}
			printKeyValue("Email", user.Email)
			printKeyValue("Balance", user.CheckingBalance.String())
			printKeyValue("Logged in", sess.CreatedAt.Format("Jan 2, 2006"))
			printKeyValue("Expires", sess.ExpiresAt.Format("Jan 2, 2006"))
			return nil
		},
	}
}

// registerCommand creates the register command.
func (c *CLI) registerCommand() *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new Fractal account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			client, err := c.newClient(cfg)
			if err != nil {
				return err
			}

			if username == "" {
				if username, err = promptLine("Username: "); err != nil {
					return err
				}
			}
			if email == "" {
				if email, err = promptLine("Email: "); err != nil {
					return err
				}
			}
			password, err := promptPassword("Password: ")
			if err != nil {
				return err
			}

			token, err := c.appToken(ctx, client, cfg)
			if err != nil {
				return err
			}

			if err := client.Register(ctx, token, username, password, email); err != nil {
				if apierrors.Is(err, apierrors.ErrCodeRejected) {
					printError("Registration refused: %s", apierrors.UserMessage(err))
					return err
				}
				return err
			}

			printSuccess("Account %s created", username)
			printDetail("Check %s for the confirmation email", email)
			printNextStep("Then log in with", "fractal login -u "+username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username for the new account")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email for the new account")
	return cmd
}

// =============================================================================
// Login flow
// =============================================================================

func (c *CLI) runLogin(ctx context.Context, username, password string, rememberMe bool) (*session.Session, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	client, err := c.newClient(cfg)
	if err != nil {
		return nil, err
	}

	loginCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	appToken, err := c.appToken(loginCtx, client, cfg)
	if err != nil {
		return nil, err
	}

	userToken, err := client.Login(loginCtx, appToken, username, password, rememberMe)
	if err != nil {
		if apierrors.Is(err, apierrors.ErrCodeRejected) {
			return nil, fmt.Errorf("login refused: %s", apierrors.UserMessage(err))
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	sess, err := session.New(userToken.Data(), username, sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	sess.Server = cfg.Server

	store, err := session.NewCLIStore()
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	if err := store.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	printSuccess("Logged in as %s", username)
	printDetail("Session stored at %s", store.Path())
	return sess, nil
}

// promptLine reads one line from stdin after printing a prompt.
func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a secret from stdin without echoing it. When
// stdin is not a terminal (piped input, tests) it falls back to a plain
// line read.
func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptLine(prompt)
	}

	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
