package policy

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrianpk/guardrail/internal/config"
)

func TestEngineEvaluate(t *testing.T) {
	root := t.TempDir()
	dots := filepath.Join(root, "dots")
	allowed := filepath.Join(dots, "allowed")
	if err := os.MkdirAll(allowed, 0755); err != nil {
		t.Fatal(err)
	}

	p := config.Default()
	p.DotfilesRoot = dots
	p.DotfilesAllowlist = []string{allowed}
	engine := NewEngine(p, nil)

	tests := []struct {
		name        string
		call        ToolCall
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "read secret",
			call:        ReadCall{FilePath: ".env"},
			wantAllowed: false,
			wantReason:  "Blocked reading secret file: .env. Override explicitly if needed.",
		},
		{
			name:        "edit secret",
			call:        EditCall{FilePath: "config/secrets.json"},
			wantAllowed: false,
			wantReason:  "Blocked writing to secret file: config/secrets.json. Override explicitly if needed.",
		},
		{
			name:        "write secret",
			call:        WriteCall{FilePath: "/tmp/key.age"},
			wantAllowed: false,
			wantReason:  "Blocked writing to secret file: /tmp/key.age. Override explicitly if needed.",
		},
		{
			name:        "read dotfile",
			call:        ReadCall{FilePath: filepath.Join(dots, "zshrc")},
			wantAllowed: false,
			wantReason:  "Blocked reading dotfiles: " + filepath.Join(dots, "zshrc") + ". Add to allowlist if working on this module.",
		},
		{
			name:        "write dotfile",
			call:        WriteCall{FilePath: filepath.Join(dots, "zshrc")},
			wantAllowed: false,
			wantReason:  "Blocked writing to dotfiles: " + filepath.Join(dots, "zshrc") + ". Add to allowlist if working on this module.",
		},
		{
			name:        "secret inside allowlisted dotfiles",
			call:        ReadCall{FilePath: filepath.Join(allowed, ".env")},
			wantAllowed: false,
			wantReason:  "Blocked reading secret file: " + filepath.Join(allowed, ".env") + ". Override explicitly if needed.",
		},
		{
			name:        "write under allowlisted sub-path",
			call:        WriteCall{FilePath: filepath.Join(allowed, "sub", "file.txt")},
			wantAllowed: true,
		},
		{
			name:        "ordinary read",
			call:        ReadCall{FilePath: "main.go"},
			wantAllowed: true,
		},
		{
			name:        "missing file path",
			call:        ReadCall{},
			wantAllowed: true,
		},
		{
			name:        "safe command",
			call:        BashCall{Command: "rm -rf node_modules"},
			wantAllowed: true,
		},
		{
			name:        "dangerous command",
			call:        BashCall{Command: "rm -rf /"},
			wantAllowed: false,
			wantReason:  "Blocked potentially dangerous command: rm -rf /",
		},
		{
			name:        "env dump",
			call:        BashCall{Command: "printenv"},
			wantAllowed: false,
			wantReason:  "Blocked environment dump command: printenv. Ask explicitly if you need env vars.",
		},
		{
			name:        "git push",
			call:        BashCall{Command: "git push"},
			wantAllowed: false,
			wantReason:  "Blocked git command that modifies history/remotes: git push. Git is read-only by default.",
		},
		{
			name:        "missing command",
			call:        BashCall{},
			wantAllowed: true,
		},
		{
			name:        "unknown tool",
			call:        OtherCall{Name: "Glob"},
			wantAllowed: true,
		},
		{
			name:        "task tool",
			call:        OtherCall{Name: "Task"},
			wantAllowed: true,
		},
		{
			name:        "nil call",
			call:        nil,
			wantAllowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Evaluate(tt.call)
			if got.Allowed() != tt.wantAllowed {
				t.Errorf("Evaluate() Allowed = %v, want %v (reason %q)", got.Allowed(), tt.wantAllowed, got.Reason)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Evaluate() Reason = %q, want %q", got.Reason, tt.wantReason)
			}
		})
	}
}

func TestEngineNilPolicy(t *testing.T) {
	engine := NewEngine(nil, nil)

	calls := []ToolCall{
		ReadCall{FilePath: ".env"},
		BashCall{Command: "rm -rf /"},
		BashCall{Command: "git push"},
	}
	for _, call := range calls {
		if d := engine.Evaluate(call); !d.Allowed() {
			t.Errorf("Evaluate(%#v) = %+v, want allow", call, d)
		}
	}
	if engine.Policy() == nil {
		t.Error("Policy() should not be nil")
	}
}

func TestEngineLogsRule(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	engine := NewEngine(config.Default(), logger)

	engine.Evaluate(BashCall{Command: "git rebase main"})

	out := buf.String()
	if !strings.Contains(out, "msg=deny") || !strings.Contains(out, "rule=git_history") {
		t.Errorf("log output = %q, want deny with git_history rule", out)
	}
}

func TestEngineDoesNotMutatePolicy(t *testing.T) {
	p := config.Default()
	before, err := p.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	engine := NewEngine(p, nil)
	engine.Evaluate(ReadCall{FilePath: ".env"})
	engine.Evaluate(BashCall{Command: "rm -rf /"})

	after, err := p.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("evaluation changed the policy")
	}
}
