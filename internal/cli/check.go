package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adrianpk/guardrail/internal/hook"
	"github.com/adrianpk/guardrail/internal/policy"
)

// NewCheckCmd creates the check command. It evaluates one call given as
// flags and fails with ErrDenied when the call is denied.
func NewCheckCmd(a *app) *cobra.Command {
	var tool, file, command string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate a single tool call against the policy",
		Example: `  guardrail check --tool Read --file .env
  guardrail check --tool Bash --command "git push origin main"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := hook.NewEvaluator(a.settings.PolicyPath, a.logger)
			d := e.Evaluate(policy.NewToolCall(tool, file, command))

			out, err := json.Marshal(d)
			if err != nil {
				return fmt.Errorf("cannot encode decision: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if !d.Allowed() {
				return ErrDenied
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tool, "tool", "", "Tool name: Read, Edit, Write, Bash or any other")
	cmd.Flags().StringVar(&file, "file", "", "File path for Read, Edit and Write")
	cmd.Flags().StringVar(&command, "command", "", "Shell command for Bash")
	_ = cmd.MarkFlagRequired("tool")

	return cmd
}
