// Package cli implements the riscctl command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbd888/risc/internal/config"
	"github.com/mbd888/risc/internal/logging"
	"github.com/mbd888/risc/internal/traces"
	"github.com/mbd888/risc/pkg/risc"
)

var (
	// Global flags
	outputFormat string
	hostFlag     string
	portFlag     int
	plainHTTP    bool
	basicAuth    bool
	timeoutFlag  time.Duration
	verboseFlag  bool

	// Shared state set during PersistentPreRun
	cfg       *config.Config
	logger    *slog.Logger
	client    *risc.Client
	formatter Formatter

	shutdownTracing func(context.Context) error
)

// rootCmd is the base command for riscctl.
var rootCmd = &cobra.Command{
	Use:   "riscctl",
	Short: "RISC CLI: manage users and sessions, and check risk snapshots",
	Long: `riscctl talks to the RISC identity-risk API using the credentials in
RISC_API_TOKEN and RISC_API_SECRET (a .env file in the working directory is
read too). Flags override the environment.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.FromEnv()

		// Override config with flags
		flags := cmd.Flags()
		if flags.Changed("host") {
			cfg.Host = hostFlag
		}
		if flags.Changed("port") {
			cfg.Port = portFlag
		}
		if flags.Changed("plain-http") {
			cfg.HTTPS = !plainHTTP
		}
		if flags.Changed("basic-auth") {
			cfg.BasicAuth = basicAuth
		}
		if flags.Changed("timeout") {
			cfg.Timeout = timeoutFlag
		}
		if flags.Changed("verbose") {
			cfg.Verbose = verboseFlag
		}

		logger = logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())

		f, err := NewFormatter(outputFormat)
		if err != nil {
			return err
		}
		formatter = f

		shutdown, err := traces.Init(cmd.Context(), cfg.OTLPEndpoint, "riscctl", logger)
		if err != nil {
			logger.Warn("tracing disabled", "error", err)
			return nil
		}
		shutdownTracing = shutdown
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		flushTracing()
		return nil
	},
}

// flushTracing exports pending spans. It is safe to call more than once.
func flushTracing() {
	if shutdownTracing == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(ctx); err != nil && logger != nil {
		logger.Warn("trace shutdown failed", "error", err)
	}
	shutdownTracing = nil
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	// PersistentPostRunE is skipped when a command fails.
	flushTracing()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// SetClient allows tests to inject a client.
func SetClient(c *risc.Client) {
	client = c
}

// RootCmd returns the root cobra.Command for testing purposes.
func RootCmd() *cobra.Command {
	return rootCmd
}

// riscClient returns the injected client or builds one from the
// configuration. Only commands that talk to the API need credentials.
func riscClient(cmd *cobra.Command) (*risc.Client, error) {
	if client != nil {
		return client, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c, err := risc.New(cfg.Options(risc.NewConsoleOutput(cmd.ErrOrStderr()), logger))
	if err != nil {
		return nil, err
	}
	client = c
	return client, nil
}

// readArg returns args[0], or stdin when it is "-".
func readArg(cmd *cobra.Command, args []string) (string, error) {
	if args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "json", "output format: json, yaml")
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", risc.DefaultHost, "RISC API host")
	rootCmd.PersistentFlags().IntVar(&portFlag, "port", 0, "RISC API port (default 443, or 80 with --plain-http)")
	rootCmd.PersistentFlags().BoolVar(&plainHTTP, "plain-http", false, "use http instead of https")
	rootCmd.PersistentFlags().BoolVar(&basicAuth, "basic-auth", false, "authenticate with HTTP Basic instead of signed headers")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", risc.DefaultTimeout, "per-request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "print each request and response to stderr")
}
