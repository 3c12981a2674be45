package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/adrianpk/guardrail/internal/config"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	var local, force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default policy file",
		Long: `Write the built-in default policy to ~/.config/guardrails/policy.yaml,
or to ./.guardrails.yaml with --local. An existing file is kept unless
--force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := RunInit(cmd.OutOrStdout(), local, force)
			return err
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Write .guardrails.yaml in the working directory")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing policy file")

	return cmd
}

// RunInit creates a guardrail policy file and returns its path.
func RunInit(w io.Writer, local, force bool) (string, error) {
	var policyPath string

	if local {
		policyPath = config.LocalPolicyPath()
		if policyPath == "" {
			return "", fmt.Errorf("cannot get working directory")
		}
	} else {
		policyPath = config.GlobalPolicyPath()
		if policyPath == "" {
			return "", fmt.Errorf("cannot get home directory")
		}
	}

	if _, err := os.Stat(policyPath); err == nil && !force {
		fmt.Fprintf(w, "Policy already exists: %s\n", policyPath)
		return policyPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(policyPath), 0755); err != nil {
		return "", fmt.Errorf("cannot create policy directory: %w", err)
	}

	if err := os.WriteFile(policyPath, []byte(defaultPolicy), 0644); err != nil {
		return "", fmt.Errorf("cannot write policy: %w", err)
	}

	fmt.Fprintf(w, "Created policy: %s\n", policyPath)
	return policyPath, nil
}

// defaultPolicy is config.Default() with comments.
const defaultPolicy = `# Guardrail policy.
# Patterns are shell globs matched against the full path, the file name
# and every parent directory.
secret_patterns:
  - "*.env"
  - ".env"
  - ".env.*"
  - "secrets.*"
  - "*.age"

# Files under this directory are blocked unless they are under an
# allowlist entry. Empty disables the rule. A leading ~ is expanded.
dotfiles_root: ""
dotfiles_allowlist: []

# Substrings. A command containing a safe pattern is never dangerous.
dangerous_patterns:
  - "rm -rf /"
  - "rm -rf ~"
safe_patterns:
  - "rm -rf node_modules"
  - "rm -rf dist"
  - "rm -rf build"

blocked_git_commands:
  - commit
  - push
  - rebase
  - merge

blocked_env_commands:
  - printenv
  - env
`
