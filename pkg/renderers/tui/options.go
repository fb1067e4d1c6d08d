package tui

import "github.com/goliatone/go-pagebuilder/pkg/visibility"

// Option configures New.
type Option func(*Renderer)

// WithPromptDriver replaces the survey driver, mostly for tests and for
// hosts that own the terminal.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithEvaluator sets how field triggers are evaluated while editing.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(r *Renderer) {
		if evaluator != nil {
			r.evaluator = evaluator
		}
	}
}

// WithTheme prefixes info and error lines.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}

// WithMaxAttempts bounds how often a rejected save is retried. Zero means
// ask the user after every failure.
func WithMaxAttempts(n int) Option {
	return func(r *Renderer) {
		if n >= 0 {
			r.maxAttempts = n
		}
	}
}
