package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-pagebuilder/pkg/forms"
	"github.com/goliatone/go-pagebuilder/pkg/model"
)

// Item actions offered for each existing repeater item.
const (
	itemKeep   = "Keep"
	itemEdit   = "Edit"
	itemRemove = "Remove"
)

// Edit prompts for every field of schema that is visible against the current
// values and returns the edited copy. Triggers are evaluated again before each
// field, so answering a switch reveals the fields it guards.
func (r *Renderer) Edit(ctx context.Context, schema []model.FieldSchema, values map[string]any, errs map[string][]string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	state := NewState(values, errs)
	if err := r.promptScope(ctx, schema, "", state); err != nil {
		return nil, err
	}
	return state.Values(), nil
}

func (r *Renderer) promptScope(ctx context.Context, schema []model.FieldSchema, prefix string, state *State) error {
	for _, field := range schema {
		if field.Hidden || field.Kind == model.FieldKindHidden {
			continue
		}
		result := r.evaluator.Evaluate(field.Trigger, state.Scope(prefix))
		if !result.Visible {
			continue
		}
		if result.Disabled() {
			_ = r.info(ctx, fmt.Sprintf("%s is disabled", field.DisplayLabel()))
			continue
		}
		var err error
		switch field.Kind {
		case model.FieldKindGroup:
			err = r.promptScope(ctx, field.Fields, prefix, state)
		case model.FieldKindRepeater:
			err = r.promptRepeater(ctx, field, joinPath(prefix, field.Name), state)
		default:
			err = r.promptValue(ctx, field, joinPath(prefix, field.Name), state)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) promptValue(ctx context.Context, field model.FieldSchema, path string, state *State) error {
	for _, message := range state.ErrorsFor(path) {
		_ = r.fail(ctx, fmt.Sprintf("%s: %s", path, message))
	}
	switch field.Kind {
	case model.FieldKindSwitch, model.FieldKindCheckbox:
		return r.promptBoolean(ctx, field, path, state)
	case model.FieldKindNumber, model.FieldKindSlider:
		return r.promptNumber(ctx, field, path, state)
	case model.FieldKindDropdown:
		if len(field.Options) > 0 {
			return r.promptSelect(ctx, field, path, state)
		}
	case model.FieldKindMultiSelect:
		if len(field.Options) > 0 {
			return r.promptMultiSelect(ctx, field, path, state)
		}
		return r.promptList(ctx, field, path, state)
	}
	return r.promptString(ctx, field, path, state)
}

func (r *Renderer) promptString(ctx context.Context, field model.FieldSchema, path string, state *State) error {
	current := currentString(state, path, field.Default)
	multiline := field.Kind == model.FieldKindTextarea || field.Kind == model.FieldKindRichText
	for {
		var (
			response string
			err      error
		)
		if multiline {
			response, err = r.driver.TextArea(ctx, TextAreaConfig{Message: field.DisplayLabel(), Default: current, Help: field.Description})
		} else {
			response, err = r.driver.Input(ctx, InputConfig{Message: field.DisplayLabel(), Default: current, Help: field.Description, Placeholder: field.Placeholder})
		}
		if err != nil {
			return err
		}
		if field.Required && strings.TrimSpace(response) == "" {
			_ = r.fail(ctx, fmt.Sprintf("Invalid %s: %s", path, forms.MessageRequired))
			continue
		}
		return state.SetValue(path, response)
	}
}

func (r *Renderer) promptBoolean(ctx context.Context, field model.FieldSchema, path string, state *State) error {
	current, ok := state.GetValue(path)
	if !ok {
		current = field.Default
	}
	response, err := r.driver.Confirm(ctx, ConfirmConfig{Message: field.DisplayLabel(), Default: model.Truthy(current), Help: field.Description})
	if err != nil {
		return err
	}
	return state.SetValue(path, response)
}

func (r *Renderer) promptNumber(ctx context.Context, field model.FieldSchema, path string, state *State) error {
	current := currentString(state, path, field.Default)
	for {
		input, err := r.driver.Input(ctx, InputConfig{Message: field.DisplayLabel(), Default: current, Help: field.Description})
		if err != nil {
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			if field.Required {
				_ = r.fail(ctx, fmt.Sprintf("Invalid %s: %s", path, forms.MessageRequired))
				continue
			}
			return state.SetValue(path, nil)
		}
		parsed, err := strconv.ParseFloat(input, 64)
		if err != nil {
			_ = r.fail(ctx, fmt.Sprintf("Invalid %s: not a number", path))
			continue
		}
		if field.Min != nil && parsed < *field.Min {
			_ = r.fail(ctx, fmt.Sprintf("Invalid %s: must be at least %s", path, model.Stringify(*field.Min)))
			continue
		}
		if field.Max != nil && parsed > *field.Max {
			_ = r.fail(ctx, fmt.Sprintf("Invalid %s: must be at most %s", path, model.Stringify(*field.Max)))
			continue
		}
		return state.SetValue(path, parsed)
	}
}

func (r *Renderer) promptSelect(ctx context.Context, field model.FieldSchema, path string, state *State) error {
	labels, values := optionLists(field.Options)
	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      field.DisplayLabel(),
		Options:      labels,
		DefaultIndex: indexOf(values, currentString(state, path, field.Default)),
		Help:         field.Description,
	})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(values) {
		return fmt.Errorf("tui: invalid selection for %s", path)
	}
	return state.SetValue(path, values[idx])
}

func (r *Renderer) promptMultiSelect(ctx context.Context, field model.FieldSchema, path string, state *State) error {
	labels, values := optionLists(field.Options)
	current, _ := state.GetValue(path)
	indices, err := r.driver.MultiSelect(ctx, SelectConfig{
		Message:  field.DisplayLabel(),
		Options:  labels,
		Defaults: indicesOf(values, stringList(current)),
		Help:     field.Description,
	})
	if err != nil {
		return err
	}
	selected := make([]any, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(values) {
			selected = append(selected, values[idx])
		}
	}
	return state.SetValue(path, selected)
}

// promptList edits an option-less multiselect as a comma separated list.
func (r *Renderer) promptList(ctx context.Context, field model.FieldSchema, path string, state *State) error {
	current, _ := state.GetValue(path)
	response, err := r.driver.Input(ctx, InputConfig{
		Message: field.DisplayLabel(),
		Default: strings.Join(stringList(current), ", "),
		Help:    "Comma separated",
	})
	if err != nil {
		return err
	}
	items := []any{}
	for _, part := range strings.Split(response, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return state.SetValue(path, items)
}

func (r *Renderer) promptRepeater(ctx context.Context, field model.FieldSchema, path string, state *State) error {
	current, _ := state.GetValue(path)
	existing, _ := model.ToSlice(current)

	kept := make([]any, 0, len(existing))
	var edit []int
	for idx, item := range existing {
		itemMap, _ := item.(map[string]any)
		choice, err := r.driver.Select(ctx, SelectConfig{
			Message:      itemLabel(field, itemMap, idx),
			Options:      []string{itemKeep, itemEdit, itemRemove},
			DefaultIndex: 0,
		})
		if err != nil {
			return err
		}
		switch choice {
		case 2:
			continue
		case 1:
			edit = append(edit, len(kept))
		}
		kept = append(kept, item)
	}
	if err := state.SetValue(path, kept); err != nil {
		return err
	}
	for _, idx := range edit {
		if err := r.promptScope(ctx, field.Fields, joinPath(path, strconv.Itoa(idx)), state); err != nil {
			return err
		}
	}

	for {
		add, err := r.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Add %s?", strings.ToLower(field.DisplayLabel()))})
		if err != nil {
			return err
		}
		if !add {
			return nil
		}
		value, _ := state.GetValue(path)
		items, _ := model.ToSlice(value)
		idx := len(items)
		if err := state.SetValue(path, append(items, forms.Defaults(field.Fields))); err != nil {
			return err
		}
		if err := r.promptScope(ctx, field.Fields, joinPath(path, strconv.Itoa(idx)), state); err != nil {
			return err
		}
	}
}

func itemLabel(field model.FieldSchema, item map[string]any, idx int) string {
	if key := strings.TrimSpace(field.ItemLabel); key != "" {
		if label := model.Stringify(item[key]); label != "" {
			return label
		}
	}
	return field.DisplayLabel() + " " + strconv.Itoa(idx+1)
}

func currentString(state *State, path string, fallback any) string {
	if value, ok := state.GetValue(path); ok && value != nil {
		return model.Stringify(value)
	}
	return model.Stringify(fallback)
}

func optionLists(options []model.FieldOption) (labels, values []string) {
	for _, option := range options {
		label := option.Label
		if label == "" {
			label = option.Value
		}
		labels = append(labels, label)
		values = append(values, option.Value)
	}
	return labels, values
}

func stringList(value any) []string {
	items, _ := model.ToSlice(value)
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, model.Stringify(item))
	}
	return out
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}

// indicesOf returns the positions of values within options, in option order.
func indicesOf(options, values []string) []int {
	var out []int
	for i, option := range options {
		for _, value := range values {
			if option == value {
				out = append(out, i)
				break
			}
		}
	}
	return out
}
