// Package visibility evaluates trigger rules: the declarative conditions that
// show or hide a field based on the value of a sibling field.
//
// Conditions take three shapes:
//
//	checked              sibling value is truthy
//	unchecked            sibling value is falsy
//	value[a][b*]         sibling value equals "a" or starts with "b"
//
// Array values match when at least one element matches. A condition that
// does not parse never matches, so a "show" rule keeps the field hidden and a
// "hide" rule keeps it visible.
package visibility

import (
	"github.com/goliatone/go-pagebuilder/pkg/model"
)

// Result is the outcome of evaluating one rule.
type Result struct {
	Visible bool
	// Triggered reports whether the condition matched.
	Triggered bool
	// Action echoes the rule action so callers can act on enable, disable
	// and empty, which do not change visibility.
	Action model.TriggerAction
}

// Disabled reports whether an enable or disable rule leaves the field
// read-only.
func (r Result) Disabled() bool {
	switch r.Action {
	case model.TriggerDisable:
		return r.Triggered
	case model.TriggerEnable:
		return !r.Triggered
	default:
		return false
	}
}

// Evaluator decides field visibility from a rule and the sibling values of
// the scope the field lives in.
type Evaluator interface {
	Evaluate(rule *model.TriggerRule, siblings map[string]any) Result
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(rule *model.TriggerRule, siblings map[string]any) Result

// Evaluate delegates to the underlying function.
func (fn EvaluatorFunc) Evaluate(rule *model.TriggerRule, siblings map[string]any) Result {
	return fn(rule, siblings)
}

// Default is the standard evaluator.
var Default Evaluator = EvaluatorFunc(Evaluate)

// Evaluate applies rule to the sibling values. A nil rule is always visible.
func Evaluate(rule *model.TriggerRule, siblings map[string]any) Result {
	if rule == nil {
		return Result{Visible: true}
	}

	matched := false
	if cond, ok := ParseCondition(rule.Condition); ok {
		matched = cond.Match(siblings[rule.Field])
	}

	result := Result{Visible: true, Triggered: matched, Action: rule.Action}
	switch rule.Action {
	case model.TriggerShow:
		result.Visible = matched
	case model.TriggerHide:
		result.Visible = !matched
	}
	return result
}

// Visible is a shorthand for Evaluate(rule, siblings).Visible.
func Visible(rule *model.TriggerRule, siblings map[string]any) bool {
	return Evaluate(rule, siblings).Visible
}
