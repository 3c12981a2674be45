// Package cli provides CLI command implementations.
package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/adrianpk/guardrail/internal/config"
	"github.com/adrianpk/guardrail/internal/hook"
)

// ErrDenied is returned by commands that evaluated a call and denied it.
var ErrDenied = errors.New("tool call denied")

type app struct {
	settings *config.Settings
	logger   *slog.Logger
}

// NewRootCmd creates the root command. Without a subcommand it runs in hook
// mode: one request on stdin, one decision on stdout.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "guardrail",
		Short: "Guardrail - pre-execution guard for agent tool calls",
		Long: `Guardrail reads a tool call request as JSON on stdin and answers with
{"action":"allow"} or {"action":"deny","reason":"..."} on stdout.

It blocks reading or writing secret files, touching a protected dotfiles
tree, dumping the environment, rewriting git history and running
dangerous shell commands.`,
		Args:               cobra.ArbitraryArgs,
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			e := hook.NewEvaluator(a.settings.PolicyPath, a.logger)
			return e.Run(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("policy", "", "Policy file path (env GUARDRAILS_POLICY_PATH)")
	flags.BoolP("verbose", "v", false, "Log every decision to stderr (env GUARDRAILS_VERBOSE)")
	flags.String("log-level", "", "Log level: debug|info|warn|error (env GUARDRAILS_LOG_LEVEL)")
	flags.String("log-file", "", "Write logs to this file instead of stderr (env GUARDRAILS_LOG_FILE)")

	cmd.AddCommand(
		NewInitCmd(),
		NewCheckCmd(a),
		NewPolicyCmd(a),
	)

	return cmd
}

// setup loads settings and configures logging. In hook mode a bad setting
// must not cost the caller its decision: logging falls back to defaults and
// the policy path is kept.
func (a *app) setup(cmd *cobra.Command) error {
	s, err := config.LoadSettings(cmd.Flags())
	if err == nil {
		a.settings = s
		a.logger, err = configureLogger(s, cmd.ErrOrStderr())
		if err == nil {
			return nil
		}
	}
	if cmd.HasParent() {
		return err
	}

	fallback := &config.Settings{}
	if s != nil {
		fallback.PolicyPath = s.PolicyPath
		fallback.Verbose = s.Verbose
	}
	a.settings = fallback
	a.logger, _ = configureLogger(fallback, cmd.ErrOrStderr())
	a.logger.Warn("invalid settings, using default logging", "error", err, "policy", fallback.PolicyPath)
	return nil
}
