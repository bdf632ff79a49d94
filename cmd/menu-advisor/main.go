package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"menu-advisor/internal/common/config"
	"menu-advisor/internal/common/logger"
)

var (
	// Global flags
	configPath string
	verbose    bool
	timeout    time.Duration

	cfg    *config.Config
	zapLog *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "menu-advisor",
	Short: "Browse the menu and ask for dish recommendations",
	Long: `menu-advisor filters the restaurant catalog by category and budget and
sends your dietary preferences to the recommendation service.

Run without arguments to start the interactive interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadFromFile(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		// The interactive interface owns the terminal; only a file sink is allowed there.
		if cmd == cmd.Root() && isTerminalSink(cfg.Logging.Output) {
			zapLog = zap.NewNop()
			return nil
		}
		zapLog = logger.New(level, cfg.Logging.Format, cfg.Logging.Output)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if zapLog != nil {
			_ = zapLog.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context())
	},
}

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Print the filtered menu with its statistics",
	Args:  cobra.NoArgs,
	RunE:  runMenu,
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Submit one preference set and print the recommendations",
	Long: `Builds a preference request from the flags and sends it to the
recommendation service.

Example:
  menu-advisor recommend --cultural vegetariano --mood ligero --budget 80`,
	Args: cobra.NoArgs,
	RunE: runRecommend,
}

var sayCmd = &cobra.Command{
	Use:   "say [transcript...]",
	Short: "Run voice transcripts through the command interpreter",
	Long: `Each argument is treated as one recognized utterance, in order.

Example:
  menu-advisor say "quiero algo vegetariano" "recomiéndame algo"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSay,
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the active voice command rules in priority order",
	Args:  cobra.NoArgs,
	RunE:  runRules,
}

func isTerminalSink(output string) bool {
	return output == "" || output == "stderr" || output == "stdout"
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Timeout for non-interactive commands")

	menuCmd.Flags().String("category", "", "Category to show (\"all\" for every dish)")
	menuCmd.Flags().Int("budget", 0, "Budget ceiling (default: filters.default_budget)")

	recommendCmd.Flags().StringSlice("cultural", nil, "Cultural preferences (vegetariano, vegano, sin_cerdo, sin_mariscos)")
	recommendCmd.Flags().String("mood", "", "Mood (ligero, energia)")
	recommendCmd.Flags().StringSlice("nutritional", nil, "Nutritional tags (bajo_grasa, alto_proteina, sin_gluten, vegano)")
	recommendCmd.Flags().Int("budget", 0, "Budget sent with the request (default: filters.default_budget)")

	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(sayCmd)
	rootCmd.AddCommand(rulesCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
