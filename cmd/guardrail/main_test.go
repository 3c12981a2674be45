package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var binaryPath string

type hookOutput struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "guardrail-test")
	if err != nil {
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	binaryPath = filepath.Join(dir, "guardrail")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = "."
	if err := cmd.Run(); err != nil {
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// runGuardrail runs the binary with an isolated home and working directory.
func runGuardrail(t *testing.T, input string, env []string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	home := t.TempDir()
	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = t.TempDir()
	cmd.Env = append([]string{"HOME=" + home, "PATH=" + os.Getenv("PATH")}, env...)
	cmd.Stdin = bytes.NewBufferString(input)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	exitCode = 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		t.Fatalf("cannot run binary: %v", err)
	}

	return outBuf.String(), errBuf.String(), exitCode
}

func makeInput(tool string, args map[string]interface{}) string {
	input := map[string]interface{}{
		"tool":      tool,
		"arguments": args,
	}
	data, _ := json.Marshal(input)
	return string(data)
}

func parseOutput(t *testing.T, stdout string) hookOutput {
	t.Helper()
	var output hookOutput
	if err := json.Unmarshal([]byte(stdout), &output); err != nil {
		t.Fatalf("cannot parse output %q: %v", stdout, err)
	}
	return output
}

func TestGuardrailDecisions(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantAction string
		wantReason string
	}{
		{"read dotenv", makeInput("Read", map[string]interface{}{"file_path": ".env"}), "deny", ".env"},
		{"write secrets", makeInput("Write", map[string]interface{}{"file_path": "deploy/secrets.yml"}), "deny", "writing to secret file"},
		{"safe rm", makeInput("Bash", map[string]interface{}{"command": "rm -rf node_modules"}), "allow", ""},
		{"rm root", makeInput("Bash", map[string]interface{}{"command": "rm -rf /"}), "deny", "dangerous"},
		{"printenv", makeInput("Bash", map[string]interface{}{"command": "printenv FOO"}), "deny", "environment dump"},
		{"git commit", makeInput("Bash", map[string]interface{}{"command": `git commit -m "x"`}), "deny", "read-only"},
		{"git status", makeInput("Bash", map[string]interface{}{"command": "git status"}), "allow", ""},
		{"unknown tool", makeInput("Task", map[string]interface{}{"prompt": "hi"}), "allow", ""},
		{"empty argument bag", makeInput("Read", map[string]interface{}{}), "allow", ""},
		{"native shape", `{"hook_type":"PreToolUse","tool_name":"Read","tool_input":{"file_path":"/app/.env.local"}}`, "deny", ".env.local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, exitCode := runGuardrail(t, tt.input, nil)

			if exitCode != 0 {
				t.Errorf("expected exit 0, got %d (stderr: %s)", exitCode, stderr)
			}

			output := parseOutput(t, stdout)
			if output.Action != tt.wantAction {
				t.Errorf("expected %s, got %s (reason: %s)", tt.wantAction, output.Action, output.Reason)
			}
			if tt.wantReason != "" && !bytes.Contains([]byte(output.Reason), []byte(tt.wantReason)) {
				t.Errorf("reason %q does not mention %q", output.Reason, tt.wantReason)
			}
		})
	}
}

func TestGuardrailFailsOpen(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty stdin", ""},
		{"garbage", "}{"},
		{"array", "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, exitCode := runGuardrail(t, tt.input, nil)

			if exitCode != 0 {
				t.Errorf("expected exit 0, got %d", exitCode)
			}

			output := parseOutput(t, stdout)
			if output.Action != "allow" {
				t.Errorf("expected allow, got %s", output.Action)
			}
			if output.Reason == "" {
				t.Error("expected a reason describing the error")
			}
		})
	}
}

func TestGuardrailDotfilesPolicy(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "dots")
	allowed := filepath.Join(root, "allowed")
	if err := os.MkdirAll(allowed, 0755); err != nil {
		t.Fatal(err)
	}

	policyPath := filepath.Join(dir, "policy.yaml")
	policy := "dotfiles_root: " + root + "\ndotfiles_allowlist:\n  - " + allowed + "\n"
	if err := os.WriteFile(policyPath, []byte(policy), 0644); err != nil {
		t.Fatal(err)
	}
	env := []string{"GUARDRAILS_POLICY_PATH=" + policyPath}

	tests := []struct {
		name       string
		file       string
		wantAction string
	}{
		{"allowlisted sub-path", filepath.Join(allowed, "sub", "file.txt"), "allow"},
		{"protected root", filepath.Join(root, "bashrc"), "deny"},
		{"outside root", filepath.Join(dir, "notes.txt"), "allow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, _ := runGuardrail(t, makeInput("Write", map[string]interface{}{"file_path": tt.file}), env)
			output := parseOutput(t, stdout)
			if output.Action != tt.wantAction {
				t.Errorf("expected %s, got %s (reason: %s)", tt.wantAction, output.Action, output.Reason)
			}
		})
	}
}

func TestGuardrailVerboseLogsToStderr(t *testing.T) {
	input := makeInput("Bash", map[string]interface{}{"command": "ls"})

	stdout, stderr, _ := runGuardrail(t, input, []string{"GUARDRAILS_VERBOSE=1"})
	if parseOutput(t, stdout).Action != "allow" {
		t.Errorf("expected allow, got %s", stdout)
	}
	if !bytes.Contains([]byte(stderr), []byte("checking tool call")) {
		t.Errorf("expected trace on stderr, got %q", stderr)
	}

	_, stderr, _ = runGuardrail(t, input, nil)
	if stderr != "" {
		t.Errorf("expected silent stderr without verbose, got %q", stderr)
	}
}

func TestGuardrailCheckExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"denied", []string{"check", "--tool", "Read", "--file", ".env"}, 2},
		{"allowed", []string{"check", "--tool", "Bash", "--command", "go test ./..."}, 0},
		{"missing tool", []string{"check"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, exitCode := runGuardrail(t, "", nil, tt.args...)
			if exitCode != tt.wantCode {
				t.Errorf("expected exit %d, got %d (stderr: %s)", tt.wantCode, exitCode, stderr)
			}
		})
	}
}
