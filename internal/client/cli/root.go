package cli

import (
	"bufio"
	"context"
	"errors"
	"os"

	"github.com/dmitrijs2005/vitalkeeper/internal/client/config"
	"github.com/dmitrijs2005/vitalkeeper/internal/common"
	"github.com/dmitrijs2005/vitalkeeper/internal/logging"
	"github.com/spf13/cobra"
)

// appFactory builds the App for a command run. Tests replace it.
var appFactory = func(ctx context.Context, args []string) (*App, error) {
	cfg, err := config.LoadConfig(args)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return NewApp(ctx, cfg, log)
}

// Execute runs the command tree with args (without the program name).
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand(args)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. args are handed to the config
// loader, which reads -c, -d and -l from them itself; the persistent flags
// below exist so cobra accepts and documents them.
func NewRootCommand(args []string) *cobra.Command {
	var app *App

	root := &cobra.Command{
		Use:               common.AppName,
		Short:             "Local health profile and credential vault",
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			a, err := appFactory(cmd.Context(), args)
			if err != nil {
				return err
			}
			a.out = cmd.OutOrStdout()
			app = a
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "path to JSON config file")
	pf.StringP("data-dir", "d", "", "data directory (default ~/.vitalkeeper)")
	pf.StringP("log-level", "l", "", "log level: debug, info, warn, error")

	current := func() *App { return app }
	root.RunE = withApp(current, func(ctx context.Context, a *App, _ []string) error {
		return a.Shell(ctx)
	})
	root.AddCommand(
		signupCmd(current),
		loginCmd(current),
		logoutCmd(current),
		whoamiCmd(current),
		updateCmd(current),
		shellCmd(current),
	)
	return root
}

func signupCmd(app func() *App) *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account on this device",
		Args:  cobra.NoArgs,
		RunE: withApp(app, func(ctx context.Context, a *App, _ []string) error {
			return a.Signup(ctx, email, name)
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func loginCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login [email]",
		Short: "Authenticate with email and password",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(app, func(ctx context.Context, a *App, args []string) error {
			return a.Login(ctx, firstArg(args))
		}),
	}
}

func logoutCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and remove the local profile",
		Args:  cobra.NoArgs,
		RunE: withApp(app, func(ctx context.Context, a *App, _ []string) error {
			return a.Logout(ctx)
		}),
	}
}

func whoamiCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		Args:  cobra.NoArgs,
		RunE: withApp(app, func(ctx context.Context, a *App, _ []string) error {
			return a.WhoAmI(ctx)
		}),
	}
}

func updateCmd(app func() *App) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change the name or email of the current user",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withApp(app, func(ctx context.Context, a *App, _ []string) error {
		var n, e *string
		if cmd.Flags().Changed("name") {
			n = &name
		}
		if cmd.Flags().Changed("email") {
			e = &email
		}
		return a.Update(ctx, n, e)
	})
	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&email, "email", "", "new email")
	return cmd
}

func shellCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Args:  cobra.NoArgs,
		RunE: withApp(app, func(ctx context.Context, a *App, _ []string) error {
			return a.Shell(ctx)
		}),
	}
}

// withApp runs fn with the App opened by the root command and closes the
// App afterwards, whatever fn returns.
func withApp(app func() *App, fn func(ctx context.Context, a *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		a := app()
		defer func() { err = errors.Join(err, a.Close()) }()
		return fn(cmd.Context(), a, args)
	}
}

// Shell runs the REPL on the App's input until exit or EOF.
func (a *App) Shell(ctx context.Context) error {
	printlnFn("Welcome to VitalKeeper (type 'help' for commands)")
	runREPL(ctx, a, func() string { return a.getStatus(ctx) }, bufio.NewScanner(a.reader))
	return nil
}
