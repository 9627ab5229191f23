// Package cli implements the fractal command-line interface.
//
// The CLI wraps the SDK in the fractal package: it logs in against the
// Fractal Global Credits API, keeps the session on disk, and exposes
// account, transaction, and friend operations as subcommands.
//
// # Commands
//
// The main commands are:
//   - login/logout/whoami: session management
//   - register: create a new account
//   - user: read and update profiles
//   - tx: send and inspect credit transactions
//   - friends: manage friend requests
//   - cache: manage the response cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers
// are passed through context.Context.
//
// # Example
//
//	import "github.com/fractal-global/fractal-go/internal/cli"
//
//	func main() {
//	    if err := cli.Execute(ctx); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/fractal-global/fractal-go/internal/config"
	"github.com/fractal-global/fractal-go/pkg/buildinfo"
	"github.com/fractal-global/fractal-go/pkg/fractal"
	"github.com/fractal-global/fractal-go/pkg/httputil"
	"github.com/fractal-global/fractal-go/pkg/session"
)

// appName is the application name used for directories and display.
const appName = "fractal"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Fractal Global Credits command-line client",
		Long:         `fractal talks to the Fractal Global Credits REST API: manage your account, send credits, and handle friend requests from the terminal.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/fractal/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "bypass the response cache")

	root.AddCommand(c.loginCommand())
	root.AddCommand(c.logoutCommand())
	root.AddCommand(c.whoamiCommand())
	root.AddCommand(c.registerCommand())
	root.AddCommand(c.userCommand())
	root.AddCommand(c.txCommand())
	root.AddCommand(c.friendsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// Execute runs the fractal CLI with default settings.
func Execute(ctx context.Context) error {
	var verbose bool

	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			c.SetLogLevel(LogDebug)
		}
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	}

	return root.ExecuteContext(ctx)
}

// =============================================================================
// Client wiring
// =============================================================================

// loadConfig reads the CLI configuration honoring the --config flag.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newClient builds an SDK client from the configuration: server
// selection plus the response cache unless disabled.
func (c *CLI) newClient(cfg *config.Config) (*fractal.Client, error) {
	var opts []fractal.Option
	if !c.noCache && cfg.Cache.Enabled {
		cache, err := httputil.NewCache(cfg.Cache.Dir, cfg.Cache.GetTTL())
		if err != nil {
			c.Logger.Debug("cache unavailable, continuing without", "err", err)
		} else {
			opts = append(opts, fractal.WithCache(cache))
		}
	}

	if cfg.Server == "" {
		return fractal.New(opts...), nil
	}
	client, err := fractal.NewWithBaseURL(cfg.Server, opts...)
	if err != nil {
		return nil, fmt.Errorf("server %q: %w", cfg.Server, err)
	}
	return client, nil
}

// appToken requests an application token with the configured credentials.
func (c *CLI) appToken(ctx context.Context, client *fractal.Client, cfg *config.Config) (*fractal.AccessToken, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	token, err := client.Token(ctx, cfg.AppID, cfg.AppSecret)
	if err != nil {
		return nil, fmt.Errorf("request app token: %w", err)
	}
	return token, nil
}

// userSession loads the stored login, failing with a hint when absent.
func userSession(ctx context.Context) (*session.Session, error) {
	store, err := session.NewCLIStore()
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	sess, err := store.GetSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return nil, fmt.Errorf("not logged in (run 'fractal login' first)")
	}
	if sess.AccessToken().Expired() {
		_ = store.DeleteSession(ctx)
		return nil, fmt.Errorf("session expired (run 'fractal login' again)")
	}
	return sess, nil
}
