package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adrianpk/guardrail/internal/hook"
)

// NewPolicyCmd creates the policy command, which prints the effective policy.
func NewPolicyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Show the effective policy and where it came from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := hook.NewEvaluator(a.settings.PolicyPath, a.logger)
			source := e.Source()
			if source == "" {
				source = "built-in default"
			}

			data, err := e.Engine().Policy().Marshal()
			if err != nil {
				return fmt.Errorf("cannot encode policy: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# source: %s\n", source)
			_, err = out.Write(data)
			return err
		},
	}
}
