// Package policy decides whether a tool call may run.
//
// Evaluation is pure: given a ToolCall and an immutable config.Policy it
// returns a Decision. File calls are checked against secret patterns and the
// protected dotfiles tree; shell commands go through an ordered Chain of
// command rules where the first denial wins.
package policy

// Action is the verdict for a tool call.
type Action string

const (
	ActionAllow Action = "allow"
	ActionDeny  Action = "deny"
)

// Decision represents the result of evaluating a tool call.
// A deny always carries a reason.
type Decision struct {
	Action Action `json:"action"`
	Reason string `json:"reason,omitempty"`
}

// Allow returns an allow decision.
func Allow() Decision {
	return Decision{Action: ActionAllow}
}

// Deny returns a deny decision with the given reason.
func Deny(reason string) Decision {
	return Decision{Action: ActionDeny, Reason: reason}
}

// Allowed reports whether the call may run.
func (d Decision) Allowed() bool {
	return d.Action != ActionDeny
}

// Rule evaluates a shell command and returns a decision.
type Rule interface {
	Name() string
	Evaluate(command string) Decision
}

// Chain runs rules in order. First rule that denies wins.
type Chain []Rule

// Evaluate runs all rules against the command.
func (c Chain) Evaluate(command string) Decision {
	d, _ := c.evaluate(command)
	return d
}

// evaluate also returns the rule that denied, or nil.
func (c Chain) evaluate(command string) (Decision, Rule) {
	for _, rule := range c {
		decision := rule.Evaluate(command)
		if !decision.Allowed() {
			return decision, rule
		}
	}
	return Allow(), nil
}
