// Package hook provides the core hook evaluation logic.
package hook

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/adrianpk/guardrail/internal/config"
	"github.com/adrianpk/guardrail/internal/parser"
	"github.com/adrianpk/guardrail/internal/policy"
)

const failOpenPrefix = "Guardrail error (allowing by default): "

// Evaluator answers hook requests against the effective policy.
// It is meant for one request per process and is not safe for concurrent use.
type Evaluator struct {
	policyPath string
	logger     *slog.Logger
	engine     *policy.Engine
	source     string
}

// NewEvaluator creates a new hook evaluator. policyPath may be empty to use
// the default lookup. The policy is loaded on first use.
func NewEvaluator(policyPath string, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Evaluator{
		policyPath: policyPath,
		logger:     logger,
	}
}

// NewEvaluatorWithPolicy creates an evaluator bound to an already loaded policy.
func NewEvaluatorWithPolicy(p *config.Policy, logger *slog.Logger) *Evaluator {
	e := NewEvaluator("", logger)
	e.engine = policy.NewEngine(p, e.logger)
	return e
}

// Run reads one request from r and writes the decision JSON to w. Any
// failure before the decision is written becomes an allow carrying the
// error as reason. Only a failure to write is returned.
func (e *Evaluator) Run(r io.Reader, w io.Writer) error {
	decision := e.decide(r)
	if err := json.NewEncoder(w).Encode(decision); err != nil {
		return fmt.Errorf("cannot write decision: %w", err)
	}
	return nil
}

// Evaluate returns the decision for a single call.
func (e *Evaluator) Evaluate(call policy.ToolCall) policy.Decision {
	return e.Engine().Evaluate(call)
}

// Engine returns the engine for the effective policy, loading it if needed.
func (e *Evaluator) Engine() *policy.Engine {
	if e.engine == nil {
		p, source := config.LoadOrDefault(e.policyPath, e.logger)
		e.engine = policy.NewEngine(p, e.logger)
		e.source = source
	}
	return e.engine
}

// Source returns the file the policy was loaded from, empty for the built-in
// default.
func (e *Evaluator) Source() string {
	e.Engine()
	return e.source
}

func (e *Evaluator) decide(r io.Reader) (decision policy.Decision) {
	defer func() {
		if rec := recover(); rec != nil {
			decision = e.failOpen(fmt.Errorf("%v", rec))
		}
	}()

	req, err := parser.DecodeRequest(r)
	if err != nil {
		return e.failOpen(err)
	}

	e.logger.Debug("checking tool call", "tool", req.Tool, "hook", req.HookType)
	return e.Evaluate(parser.FromArguments(req.Tool, req.Arguments))
}

func (e *Evaluator) failOpen(err error) policy.Decision {
	e.logger.Error("guardrail error", "error", err)
	return policy.Decision{
		Action: policy.ActionAllow,
		Reason: failOpenPrefix + err.Error(),
	}
}
