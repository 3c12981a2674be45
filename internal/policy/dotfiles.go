package policy

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrianpk/guardrail/internal/config"
)

// Dotfiles protects a directory tree, except for allowlisted sub-paths.
// The root, the allowlist entries and every candidate path go through the
// same Resolve before being compared.
type Dotfiles struct {
	Root      string
	Allowlist []string
}

// NewDotfiles creates a dotfiles rule from the policy.
func NewDotfiles(p *config.Policy) *Dotfiles {
	if p == nil {
		return &Dotfiles{}
	}
	return &Dotfiles{
		Root:      p.DotfilesRoot,
		Allowlist: p.DotfilesAllowlist,
	}
}

// IsRestrictedDotfile reports whether path lies under the policy's dotfiles
// root and under none of its allowlist entries.
func IsRestrictedDotfile(path string, p *config.Policy) bool {
	return NewDotfiles(p).IsRestricted(path)
}

// IsRestricted reports whether path is protected. An empty root disables
// the rule. Paths that cannot be resolved are not restricted.
func (d *Dotfiles) IsRestricted(path string) bool {
	if d.Root == "" || path == "" {
		return false
	}

	root, err := Resolve(d.Root)
	if err != nil {
		return false
	}
	target, err := Resolve(path)
	if err != nil {
		return false
	}

	if !isWithin(target, root) {
		return false
	}

	for _, allowed := range d.Allowlist {
		entry, err := Resolve(allowed)
		if err != nil {
			continue
		}
		if isWithin(target, entry) {
			return false
		}
	}

	return true
}

// Resolve converts a path to canonical absolute form: a leading "~" is
// expanded, the result is made absolute and cleaned, and symlinks are
// resolved for the longest prefix that exists on disk.
func Resolve(p string) (string, error) {
	abs, err := filepath.Abs(expandHome(p))
	if err != nil {
		return "", err
	}
	return evalExisting(abs), nil
}

// evalExisting resolves symlinks in p. Missing trailing segments are kept
// as they are and appended to the resolved parent.
func evalExisting(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	parent := filepath.Dir(p)
	if parent == p {
		return p
	}
	return filepath.Join(evalExisting(parent), filepath.Base(p))
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
}

// isWithin reports whether path equals dir or is a descendant of it.
// Both must already be resolved.
func isWithin(path, dir string) bool {
	if path == dir {
		return true
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
