package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"example.com/flow-budget/backend/internal/client"
	"example.com/flow-budget/backend/internal/config"
)

// app хранит то, что нужно подкомандам после разбора флагов.
type app struct {
	apiURL  string
	timeout time.Duration
	verbose bool

	client *client.Client
	logger *slog.Logger
}

// NewRootCommand создает команду budgetctl со всеми подкомандами.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "budgetctl",
		Short: "Manage budget items from the command line",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "budget API base URL (default $BUDGET_API_URL or http://localhost:3000)")
	rootCmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "request timeout (default $BUDGET_API_TIMEOUT or 10s)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddCommand(
		newListCommand(a),
		newGetCommand(a),
		newAddCommand(a),
		newUpdateCommand(a),
		newDeleteCommand(a),
		newWatchCommand(a),
	)

	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("loading client config: %w", err)
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	if a.timeout > 0 {
		cfg.Timeout = a.timeout
	}

	a.logger.Debug("using budget api", slog.String("url", cfg.APIURL), slog.Duration("timeout", cfg.Timeout))
	a.client = client.New(cfg.APIURL, cfg.Timeout)
	return nil
}
