package policy

import (
	"fmt"
	"log/slog"

	"github.com/adrianpk/guardrail/internal/config"
)

// Engine evaluates tool calls against one policy.
type Engine struct {
	policy   *config.Policy
	secrets  *Matcher
	dotfiles *Dotfiles
	commands Chain
	logger   *slog.Logger
}

// NewEngine creates an engine for the policy. A nil policy evaluates as an
// empty one, and a nil logger discards diagnostics.
func NewEngine(p *config.Policy, logger *slog.Logger) *Engine {
	if p == nil {
		p = &config.Policy{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		policy:   p,
		secrets:  NewMatcher(p.SecretPatterns),
		dotfiles: NewDotfiles(p),
		commands: CommandChain(p),
		logger:   logger,
	}
}

// Policy returns the policy the engine enforces.
func (e *Engine) Policy() *config.Policy {
	return e.policy
}

// Evaluate returns the decision for a call. File calls check secrets first,
// then dotfiles. Bash calls run the command chain. Any other tool is allowed.
func (e *Engine) Evaluate(call ToolCall) Decision {
	switch c := call.(type) {
	case ReadCall:
		return e.evaluateFile(KindRead, c.FilePath, false)
	case EditCall:
		return e.evaluateFile(KindEdit, c.FilePath, true)
	case WriteCall:
		return e.evaluateFile(KindWrite, c.FilePath, true)
	case BashCall:
		return e.evaluateBash(c.Command)
	}

	e.logAllow(call)
	return Allow()
}

func (e *Engine) evaluateFile(kind Kind, path string, write bool) Decision {
	if e.secrets.Matches(path) {
		e.logger.Debug("deny", "tool", kind, "rule", "secret_file", "file_path", path)
		if write {
			return Deny(fmt.Sprintf("Blocked writing to secret file: %s. Override explicitly if needed.", path))
		}
		return Deny(fmt.Sprintf("Blocked reading secret file: %s. Override explicitly if needed.", path))
	}

	if e.dotfiles.IsRestricted(path) {
		e.logger.Debug("deny", "tool", kind, "rule", "dotfiles", "file_path", path)
		if write {
			return Deny(fmt.Sprintf("Blocked writing to dotfiles: %s. Add to allowlist if working on this module.", path))
		}
		return Deny(fmt.Sprintf("Blocked reading dotfiles: %s. Add to allowlist if working on this module.", path))
	}

	e.logger.Debug("allow", "tool", kind, "file_path", path)
	return Allow()
}

func (e *Engine) evaluateBash(command string) Decision {
	decision, rule := e.commands.evaluate(command)
	if rule != nil {
		e.logger.Debug("deny", "tool", KindBash, "rule", rule.Name(), "command", command)
		return decision
	}

	e.logger.Debug("allow", "tool", KindBash, "command", command)
	return decision
}

func (e *Engine) logAllow(call ToolCall) {
	var kind Kind
	if call != nil {
		kind = call.Kind()
	}
	e.logger.Debug("allow", "tool", kind)
}
