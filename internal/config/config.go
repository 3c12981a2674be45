// Package config handles loading the guardrail policy and runtime settings.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrPolicyNotFound is returned when no policy file exists at any known location.
var ErrPolicyNotFound = errors.New("policy file not found")

const (
	localPolicyName   = ".guardrails.yaml"
	bundledPolicyName = "policy.yaml"
)

// Policy is the declarative rule set a tool call is evaluated against.
// It is never mutated once loaded.
type Policy struct {
	SecretPatterns     []string `yaml:"secret_patterns"`
	DotfilesRoot       string   `yaml:"dotfiles_root"`
	DotfilesAllowlist  []string `yaml:"dotfiles_allowlist"`
	DangerousPatterns  []string `yaml:"dangerous_patterns"`
	SafePatterns       []string `yaml:"safe_patterns"`
	BlockedGitCommands []string `yaml:"blocked_git_commands"`
	BlockedEnvCommands []string `yaml:"blocked_env_commands"`
}

// Default returns the built-in policy used when no policy file can be loaded.
func Default() *Policy {
	return &Policy{
		SecretPatterns:     []string{"*.env", ".env", ".env.*", "secrets.*", "*.age"},
		DotfilesRoot:       "",
		DotfilesAllowlist:  []string{},
		DangerousPatterns:  []string{"rm -rf /", "rm -rf ~"},
		SafePatterns:       []string{"rm -rf node_modules", "rm -rf dist", "rm -rf build"},
		BlockedGitCommands: []string{"commit", "push", "rebase", "merge"},
		BlockedEnvCommands: []string{"printenv", "env"},
	}
}

// Parse decodes a YAML policy document. Keys absent from the document stay empty.
func Parse(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	p.normalize()
	return &p, nil
}

// LoadFile reads and decodes the policy file at path.
func LoadFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Locate returns the policy file to use. An explicit path always wins, even if
// it does not exist.
func Locate(explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit, nil
	}
	for _, candidate := range candidatePaths() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", ErrPolicyNotFound
}

// LoadOrDefault loads the policy file and falls back to Default on any failure.
// It also reports the file the policy came from; empty means built-in.
func LoadOrDefault(explicit string, logger *slog.Logger) (*Policy, string) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	path, err := Locate(explicit)
	if err != nil {
		logger.Debug("policy file not found, using defaults")
		return Default(), ""
	}

	logger.Debug("loading policy", "path", path)
	p, err := LoadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("policy file not found, using defaults", "path", path)
		} else {
			logger.Warn("cannot load policy, using defaults", "path", path, "error", err)
		}
		return Default(), ""
	}
	return p, path
}

// Marshal encodes the policy as YAML.
func (p *Policy) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}

// normalize drops blank list entries; an empty substring matches every command.
func (p *Policy) normalize() {
	p.DotfilesRoot = strings.TrimSpace(p.DotfilesRoot)
	p.SecretPatterns = dropBlank(p.SecretPatterns)
	p.DotfilesAllowlist = dropBlank(p.DotfilesAllowlist)
	p.DangerousPatterns = dropBlank(p.DangerousPatterns)
	p.SafePatterns = dropBlank(p.SafePatterns)
	p.BlockedGitCommands = dropBlank(p.BlockedGitCommands)
	p.BlockedEnvCommands = dropBlank(p.BlockedEnvCommands)
}

func dropBlank(items []string) []string {
	result := make([]string, 0, len(items))
	for _, s := range items {
		if strings.TrimSpace(s) == "" {
			continue
		}
		result = append(result, s)
	}
	return result
}

func candidatePaths() []string {
	var paths []string
	if p := LocalPolicyPath(); p != "" {
		paths = append(paths, p)
	}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), bundledPolicyName))
	}
	if p := GlobalPolicyPath(); p != "" {
		paths = append(paths, p)
	}
	return paths
}

// GlobalPolicyPath returns the per-user policy file path.
func GlobalPolicyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "guardrails", bundledPolicyName)
}

// LocalPolicyPath returns the project policy file path in the working directory.
func LocalPolicyPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, localPolicyName)
}
