package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-pagebuilder/pkg/editor"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/render"
	"github.com/goliatone/go-pagebuilder/pkg/visibility"
)

var (
	// ErrAborted reports an interrupted prompt, usually Ctrl+C.
	ErrAborted = errors.New("tui: aborted")
	// ErrDiscarded reports a draft the user chose not to save.
	ErrDiscarded = errors.New("tui: changes discarded")
)

// Theme holds the prefixes Info and error lines are printed with.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Renderer drives terminal editing sessions and prints page outlines.
type Renderer struct {
	driver      PromptDriver
	evaluator   visibility.Evaluator
	theme       Theme
	maxAttempts int
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer backed by the survey driver unless another
// driver is supplied.
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{evaluator: visibility.Default}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the outline format produced by Render.
func (r *Renderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

// Render prints the page tree, one node per line.
func (r *Renderer) Render(ctx context.Context, page *render.PageView) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page == nil {
		return nil, errors.New("tui: page is nil")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (revision %d)\n", page.Path, page.Revision)
	for _, view := range page.Blocks {
		writeOutline(&b, view, 1)
	}
	return []byte(b.String()), nil
}

func writeOutline(b *strings.Builder, view *render.View, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s- %s [%s]", indent, view.ID, view.TypeKey)
	if view.Registry != "" && view.Registry != "block" {
		fmt.Fprintf(b, " (%s)", view.Registry)
	}
	if view.Status != render.StatusOK {
		fmt.Fprintf(b, " %s: %s", view.Status, view.Message)
	}
	if view.Dimmed {
		b.WriteString(" hidden")
	}
	b.WriteByte('\n')
	for _, child := range view.Children {
		writeOutline(b, child, depth+1)
	}
	for _, tab := range view.Tabs {
		fmt.Fprintf(b, "%s  # %s\n", indent, tab.Label)
		for _, child := range tab.Children {
			writeOutline(b, child, depth+2)
		}
	}
}

// EditModal prompts through the modal's draft and saves it. Rejected saves
// show the errors and offer another round; declining discards the draft.
func (r *Renderer) EditModal(ctx context.Context, modal *editor.Modal) error {
	if modal == nil {
		return errors.New("tui: modal is nil")
	}
	if label := modal.Label(); label != "" {
		_ = r.info(ctx, fmt.Sprintf("Editing %s (%s)", label, modal.NodeID()))
	}
	for attempt := 1; ; attempt++ {
		values, err := r.Edit(ctx, modal.Schema(), modal.Draft(), modal.FieldErrors())
		if err != nil {
			if errors.Is(err, ErrAborted) {
				_ = modal.Cancel()
			}
			return err
		}
		if err := modal.Replace(values); err != nil {
			return err
		}
		save, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "Save changes?", Default: true})
		if err != nil {
			_ = modal.Cancel()
			return err
		}
		if !save {
			_ = modal.Cancel()
			return ErrDiscarded
		}

		err = modal.Save(ctx)
		if err == nil {
			return r.info(ctx, "Saved.")
		}
		r.reportErrors(ctx, modal, err)
		if r.maxAttempts > 0 && attempt >= r.maxAttempts {
			_ = modal.Cancel()
			return err
		}
		again, askErr := r.driver.Confirm(ctx, ConfirmConfig{Message: "Edit again?", Default: true})
		if askErr != nil || !again {
			_ = modal.Cancel()
			return err
		}
	}
}

func (r *Renderer) reportErrors(ctx context.Context, modal *editor.Modal, err error) {
	if message := modal.FormError(); message != "" {
		_ = r.fail(ctx, message)
	} else if !errors.Is(err, editor.ErrValidation) {
		_ = r.fail(ctx, err.Error())
	}
	errs := modal.FieldErrors()
	for _, path := range model.SortedKeys(map[string][]string(errs)) {
		_ = r.fail(ctx, fmt.Sprintf("%s: %s", path, strings.Join(errs[path], ", ")))
	}
}

func (r *Renderer) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

func (r *Renderer) fail(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.ErrorPrefix+msg)
}
