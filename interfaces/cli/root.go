package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"taxonomy/application/commands"
	"taxonomy/application/services"
	"taxonomy/infrastructure/config"
	"taxonomy/infrastructure/di"
	pkgerrors "taxonomy/pkg/errors"

	"github.com/spf13/cobra"
)

// App carries the global flags and the lazily built container shared by
// every subcommand of one invocation.
type App struct {
	ConfigFile string
	SessionID  string
	APIKey     string
	PrettyJSON bool
	Verbose    bool

	loadConfig   func(path string) (*config.Config, error)
	newContainer func(ctx context.Context, cfg *config.Config) (*di.Container, error)
	container    *di.Container
}

// NewApp returns an App wired to the real configuration and container
func NewApp() *App {
	return &App{
		loadConfig:   config.LoadConfigFile,
		newContainer: di.InitializeContainer,
	}
}

// NewRootCmd builds the taxonomyctl command tree
func NewRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "taxonomyctl",
		Short:        "Build and edit category trees over the taxonomy engine",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start a session backed by the persistence service
  taxonomyctl session init --mode remote

  # Ask the classifier for five subcategories of the root
  taxonomyctl generate Root --session <id> --num 5

  # Show the tree with item counts
  taxonomyctl session show --session <id>
`),
	}

	cmd.PersistentFlags().StringVar(&app.ConfigFile, "config", envOr("CONFIG_FILE", ""), "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&app.SessionID, "session", envOr("TAXONOMY_SESSION", ""), "Session id")
	cmd.PersistentFlags().StringVar(&app.APIKey, "api-key", envOr("TAXONOMY_API_KEY", ""), "Classifier API key")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().BoolVar(&app.Verbose, "verbose", false, "Log at the configured level instead of warn")

	cmd.AddCommand(newSessionCmd(app))
	cmd.AddCommand(newGraphCmd(app))
	cmd.AddCommand(newGenerateCmd(app))
	cmd.AddCommand(newClassifyCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newMoveCmd(app))

	return cmd
}

// Execute runs the CLI against os.Args and returns the process exit code
func Execute(ctx context.Context) int {
	app := NewApp()
	err := NewRootCmd(app).ExecuteContext(ctx)
	if closeErr := app.Close(ctx); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return 1
	}
	return 0
}

// Close releases the container if one was built
func (a *App) Close(ctx context.Context) error {
	if a.container == nil {
		return nil
	}
	err := a.container.Close(ctx)
	a.container = nil
	return err
}

func (a *App) ensureContainer(ctx context.Context) (*di.Container, error) {
	if a.container != nil {
		return a.container, nil
	}

	cfg, err := a.loadConfig(a.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if !a.Verbose {
		cfg.LogLevel = "warn"
	}

	container, err := a.newContainer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize container: %w", err)
	}
	a.container = container
	return container, nil
}

// attach makes the --session session live in this process, loading it from
// the store when it was created by an earlier invocation
func (a *App) attach(ctx context.Context) (*di.Container, *services.Session, error) {
	if a.SessionID == "" {
		return nil, nil, errors.New("no session; pass --session or set TAXONOMY_SESSION")
	}

	container, err := a.ensureContainer(ctx)
	if err != nil {
		return nil, nil, err
	}

	result, err := container.CommandBus.Send(ctx, commands.AttachSessionCommand{SessionID: a.SessionID})
	if err != nil {
		return nil, nil, err
	}
	session, ok := result.Data.(*services.Session)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected attach result %T", result.Data)
	}
	return container, session, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return writeJSON(cmd.OutOrStdout(), v, app.PrettyJSON)
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// writeErr prints err with its domain code when it has one
func writeErr(cmd *cobra.Command, err error) error {
	if domainErr := pkgerrors.GetDomainError(err); domainErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", domainErr.Code, domainErr.Message)
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
