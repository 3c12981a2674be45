package policy

import (
	"fmt"
	"strings"

	"github.com/adrianpk/guardrail/internal/config"
)

// EnvDumpRule blocks commands whose leading word dumps the environment.
type EnvDumpRule struct {
	Blocked []string
}

// NewEnvDumpRule creates an env dump rule from the policy.
func NewEnvDumpRule(p *config.Policy) *EnvDumpRule {
	if p == nil {
		return &EnvDumpRule{}
	}
	return &EnvDumpRule{Blocked: p.BlockedEnvCommands}
}

// Name identifies the rule in logs.
func (r *EnvDumpRule) Name() string { return "env_dump" }

// Matches reports whether the trimmed command is a blocked name, alone or
// followed by a space.
func (r *EnvDumpRule) Matches(command string) bool {
	trimmed := strings.TrimSpace(command)
	for _, blocked := range r.Blocked {
		if trimmed == blocked || strings.HasPrefix(trimmed, blocked+" ") {
			return true
		}
	}
	return false
}

// Evaluate denies environment dumps.
func (r *EnvDumpRule) Evaluate(command string) Decision {
	if !r.Matches(command) {
		return Allow()
	}
	return Deny(fmt.Sprintf("Blocked environment dump command: %s. Ask explicitly if you need env vars.", command))
}

// GitHistoryRule blocks git subcommands that modify history or remotes.
type GitHistoryRule struct {
	Blocked []string
}

// NewGitHistoryRule creates a git rule from the policy.
func NewGitHistoryRule(p *config.Policy) *GitHistoryRule {
	if p == nil {
		return &GitHistoryRule{}
	}
	return &GitHistoryRule{Blocked: p.BlockedGitCommands}
}

// Name identifies the rule in logs.
func (r *GitHistoryRule) Name() string { return "git_history" }

// Matches reports whether the command runs a blocked subcommand. A command
// starting with "git " is flagged when its second word is blocked. Any
// command is flagged when "git <blocked>" occurs in it as a separate word,
// which covers chained and piped invocations. "mygit commit" is not flagged.
func (r *GitHistoryRule) Matches(command string) bool {
	trimmed := strings.TrimSpace(command)

	var subcommand string
	if strings.HasPrefix(trimmed, "git ") {
		if fields := strings.Fields(trimmed); len(fields) > 1 {
			subcommand = fields[1]
		}
	}

	for _, blocked := range r.Blocked {
		if blocked == "" {
			continue
		}
		if subcommand == blocked || containsInvocation(command, "git "+blocked) {
			return true
		}
	}
	return false
}

// containsInvocation reports whether needle occurs in command at the start
// or right after a character that can end a previous word.
func containsInvocation(command, needle string) bool {
	for i := 0; ; {
		j := strings.Index(command[i:], needle)
		if j < 0 {
			return false
		}
		at := i + j
		if at == 0 || strings.ContainsRune(" \t\n;&|()`'\"", rune(command[at-1])) {
			return true
		}
		i = at + 1
	}
}

// Evaluate denies history-mutating git commands.
func (r *GitHistoryRule) Evaluate(command string) Decision {
	if !r.Matches(command) {
		return Allow()
	}
	return Deny(fmt.Sprintf("Blocked git command that modifies history/remotes: %s. Git is read-only by default.", command))
}

// DangerousCommandRule blocks commands containing a dangerous substring,
// unless they contain a safe substring. Safe patterns always win.
type DangerousCommandRule struct {
	Dangerous []string
	Safe      []string
}

// NewDangerousCommandRule creates a dangerous command rule from the policy.
func NewDangerousCommandRule(p *config.Policy) *DangerousCommandRule {
	if p == nil {
		return &DangerousCommandRule{}
	}
	return &DangerousCommandRule{
		Dangerous: p.DangerousPatterns,
		Safe:      p.SafePatterns,
	}
}

// Name identifies the rule in logs.
func (r *DangerousCommandRule) Name() string { return "dangerous_command" }

// Matches reports whether the command is dangerous.
func (r *DangerousCommandRule) Matches(command string) bool {
	for _, safe := range r.Safe {
		if strings.Contains(command, safe) {
			return false
		}
	}
	for _, pattern := range r.Dangerous {
		if strings.Contains(command, pattern) {
			return true
		}
	}
	return false
}

// Evaluate denies dangerous commands.
func (r *DangerousCommandRule) Evaluate(command string) Decision {
	if !r.Matches(command) {
		return Allow()
	}
	return Deny(fmt.Sprintf("Blocked potentially dangerous command: %s", command))
}

// CommandChain returns the shell command rules in evaluation order: the
// narrow env and git rules before the broad substring rule.
func CommandChain(p *config.Policy) Chain {
	return Chain{
		NewEnvDumpRule(p),
		NewGitHistoryRule(p),
		NewDangerousCommandRule(p),
	}
}
