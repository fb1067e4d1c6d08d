package vanilla

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-pagebuilder/pkg/blocks"
	"github.com/goliatone/go-pagebuilder/pkg/builtins"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/registry"
	"github.com/goliatone/go-pagebuilder/pkg/render"
)

type prepareFunc func(props render.Props) (map[string]any, error)

// templateWidget renders one pongo2 template per node. Unless bare, the
// output is wrapped in the node chrome the editor script selects on.
type templateWidget struct {
	r       *Renderer
	name    string
	bare    bool
	prepare prepareFunc
}

func (w templateWidget) Render(_ context.Context, props render.Props) (string, error) {
	data := map[string]any{}
	if w.prepare != nil {
		prepared, err := w.prepare(props)
		if err != nil {
			return "", err
		}
		for key, value := range prepared {
			data[key] = value
		}
	}
	data["node"] = nodeData(props)
	data["config"] = props.Config
	output, err := w.r.templates.RenderTemplate(w.name, data)
	if err != nil {
		return "", fmt.Errorf("vanilla renderer: render %s: %w", props.TypeKey, err)
	}
	if w.bare {
		return output, nil
	}
	return wrapNode(props, output), nil
}

func (r *Renderer) widget(name string, prepare prepareFunc) render.Widget {
	return templateWidget{r: r, name: name, prepare: prepare}
}

func (r *Renderer) bareWidget(name string, prepare prepareFunc) render.Widget {
	return templateWidget{r: r, name: name, bare: true, prepare: prepare}
}

// BlockWidget returns the widget for a built-in block slug.
func (r *Renderer) BlockWidget(slug string) (render.Widget, bool) {
	switch slug {
	case builtins.BlockHeader:
		return r.widget("templates/blocks/header.tmpl", r.prepareHeader), true
	case builtins.BlockText:
		return r.widget("templates/blocks/text.tmpl", r.prepareText), true
	case builtins.BlockRecord:
		return r.widget("templates/blocks/record.tmpl", prepareRecord), true
	case builtins.BlockTable:
		return r.widget("templates/blocks/table.tmpl", prepareTable), true
	case builtins.BlockFilters:
		return r.widget("templates/blocks/filters.tmpl", prepareChildren), true
	case builtins.BlockGrid, builtins.BlockFields:
		return r.widget("templates/blocks/grid.tmpl", prepareChildren), true
	case builtins.BlockTabs:
		return r.widget("templates/blocks/tabs.tmpl", prepareTabs), true
	}
	return nil, false
}

// ColumnWidget renders a column header cell. Body cells are rendered by the
// table block from the column config.
func (r *Renderer) ColumnWidget() render.Widget {
	return r.bareWidget("templates/columns/header.tmpl", func(props render.Props) (map[string]any, error) {
		return map[string]any{"heading": columnHeading(props.Config)}, nil
	})
}

// FilterWidget returns the input for a built-in filter slug.
func (r *Renderer) FilterWidget(slug string) (render.Widget, bool) {
	switch slug {
	case builtins.FilterText, builtins.FilterSelect, builtins.FilterBoolean, builtins.FilterDate:
	default:
		return nil, false
	}
	return r.widget("templates/filters/"+slug+".tmpl", prepareFilter), true
}

// FieldWidget renders a field node placed inside a field grid.
func (r *Renderer) FieldWidget() render.Widget {
	return r.widget("templates/blocks/field.tmpl", func(props render.Props) (map[string]any, error) {
		label := strings.TrimSpace(model.Stringify(props.Config["label"]))
		if label == "" {
			label = model.Stringify(props.Config["field"])
		}
		return map[string]any{
			"label": label,
			"kind":  props.TypeKey,
			"span":  model.Span(model.Stringify(props.Config["span"])).Columns(),
		}, nil
	})
}

// Placeholder renders unknown and failed nodes.
func (r *Renderer) Placeholder() render.Widget {
	return r.widget("templates/blocks/placeholder.tmpl", func(props render.Props) (map[string]any, error) {
		return map[string]any{"message": props.Label}, nil
	})
}

// Bind returns a copy of defs with widgets and controls attached wherever a
// definition has none and the renderer knows the key.
func (r *Renderer) Bind(defs registry.Definitions) registry.Definitions {
	out := registry.Definitions{
		Blocks:  append([]registry.BlockType(nil), defs.Blocks...),
		Columns: append([]registry.ColumnType(nil), defs.Columns...),
		Filters: append([]registry.FilterType(nil), defs.Filters...),
		Fields:  append([]registry.FieldType(nil), defs.Fields...),
	}
	for idx := range out.Blocks {
		if out.Blocks[idx].Widget != nil {
			continue
		}
		if widget, ok := r.BlockWidget(out.Blocks[idx].Slug); ok {
			out.Blocks[idx].Widget = widget
		}
	}
	for idx := range out.Columns {
		if out.Columns[idx].Widget == nil {
			out.Columns[idx].Widget = r.ColumnWidget()
		}
	}
	for idx := range out.Filters {
		if out.Filters[idx].Widget != nil {
			continue
		}
		if widget, ok := r.FilterWidget(out.Filters[idx].Slug); ok {
			out.Filters[idx].Widget = widget
		}
	}
	for idx := range out.Fields {
		if out.Fields[idx].Widget == nil {
			out.Fields[idx].Widget = r.FieldWidget()
		}
		if out.Fields[idx].Control == nil {
			if control, ok := r.Control(model.FieldKind(out.Fields[idx].Type)); ok {
				out.Fields[idx].Control = control
			}
		}
	}
	return out
}

func nodeData(props render.Props) map[string]any {
	return map[string]any{
		"id":       props.NodeID,
		"type":     props.TypeKey,
		"label":    props.Label,
		"editMode": props.EditMode,
		"dimmed":   props.Dimmed,
	}
}

func wrapNode(props render.Props, inner string) string {
	var builder strings.Builder
	builder.Grow(len(inner) + 128)
	builder.WriteString(`<div class="pb-node pb-`)
	builder.WriteString(html.EscapeString(props.TypeKey))
	if props.EditMode {
		builder.WriteString(` pb-editable`)
	}
	if props.Dimmed {
		builder.WriteString(` pb-dimmed`)
	}
	builder.WriteString(`" data-node-id="`)
	builder.WriteString(html.EscapeString(props.NodeID))
	builder.WriteString(`" data-node-type="`)
	builder.WriteString(html.EscapeString(props.TypeKey))
	builder.WriteString(`">`)
	builder.WriteString(inner)
	builder.WriteString(`</div>`)
	return builder.String()
}

func (r *Renderer) prepareHeader(props render.Props) (map[string]any, error) {
	record := props.Ambient.Record
	data := map[string]any{
		"title":    interpolate(model.Stringify(props.Config["title"]), record),
		"subtitle": interpolate(model.Stringify(props.Config["subtitle"]), record),
		"align":    stringOr(props.Config["align"], "left"),
	}
	if model.Truthy(props.Config["showActions"]) {
		var actions []map[string]string
		for _, action := range model.ToMapSlice(props.Config["actions"]) {
			actions = append(actions, map[string]string{
				"label":   model.Stringify(action["label"]),
				"url":     interpolate(model.Stringify(action["url"]), record),
				"variant": stringOr(action["variant"], "primary"),
			})
		}
		data["actions"] = actions
	}
	return data, nil
}

func (r *Renderer) prepareText(props render.Props) (map[string]any, error) {
	if model.Stringify(props.Config["format"]) == "html" {
		return map[string]any{"html": r.Sanitize(model.Stringify(props.Config["html"]))}, nil
	}
	return map[string]any{"paragraphs": paragraphs(model.Stringify(props.Config["body"]))}, nil
}

func prepareRecord(props render.Props) (map[string]any, error) {
	empty := stringOr(props.Config["emptyText"], "-")
	var rows []map[string]string
	fields, _ := model.ToSlice(props.Config["fields"])
	for _, raw := range fields {
		name := model.Stringify(raw)
		value := model.Stringify(props.Ambient.Record[name])
		if value == "" {
			value = empty
		}
		rows = append(rows, map[string]string{"label": humanize(name), "value": value})
	}
	return map[string]any{
		"title": model.Stringify(props.Config["title"]),
		"rows":  rows,
	}, nil
}

type tableColumn struct {
	Header string
	Field  string
	view   *render.View
}

func prepareTable(props render.Props) (map[string]any, error) {
	var columns []tableColumn
	for _, child := range props.Children {
		columns = append(columns, tableColumn{
			Header: child.Output,
			Field:  model.Stringify(child.Config["field"]),
			view:   child,
		})
	}
	var rows [][]string
	if list := props.Ambient.List; list != nil {
		for _, record := range list.Data {
			cells := make([]string, 0, len(columns))
			for _, column := range columns {
				cells = append(cells, formatCell(column.view, record))
			}
			rows = append(rows, cells)
		}
	}
	data := map[string]any{
		"columns":   columns,
		"rows":      rows,
		"emptyText": stringOr(props.Config["emptyText"], "No records"),
		"resource":  props.Ambient.Resource,
	}
	if props.Ambient.List != nil {
		data["total"] = props.Ambient.List.Total
	}
	if sort := props.Ambient.Sort; sort != nil {
		data["sortField"] = sort.Field
		data["sortOrder"] = string(sort.Order)
	}
	return data, nil
}

func prepareChildren(props render.Props) (map[string]any, error) {
	return map[string]any{
		"children": childOutputs(props.Children),
		"mobile":   columnCount(props.Config[blocks.KeyColumnsMobile], blocks.DefaultColumnsMobile),
		"tablet":   columnCount(props.Config[blocks.KeyColumnsTablet], blocks.DefaultColumnsTablet),
		"desktop":  columnCount(props.Config[blocks.KeyColumnsDesktop], blocks.DefaultColumnsDesktop),
		"resource": props.Ambient.Resource,
	}, nil
}

func prepareTabs(props render.Props) (map[string]any, error) {
	var tabs []map[string]any
	for idx, tab := range props.Tabs {
		tabs = append(tabs, map[string]any{
			"id":       tab.ID,
			"label":    tab.Label,
			"active":   idx == 0,
			"children": childOutputs(tab.Children),
		})
	}
	return map[string]any{"tabs": tabs}, nil
}

func prepareFilter(props render.Props) (map[string]any, error) {
	field := model.Stringify(props.Config["field"])
	var value any
	if props.Ambient.Filters != nil {
		value, _ = props.Ambient.Filters.Get(field)
	}
	label := strings.TrimSpace(model.Stringify(props.Config["label"]))
	if label == "" {
		label = humanize(field)
	}
	data := map[string]any{
		"field":    field,
		"label":    label,
		"operator": model.Stringify(props.Config["operator"]),
		"value":    model.Stringify(value),
		"checked":  model.Truthy(value),
	}
	if rangeValue, ok := value.(map[string]any); ok {
		data["from"] = model.Stringify(rangeValue["from"])
		data["to"] = model.Stringify(rangeValue["to"])
	}
	var choices []map[string]any
	for _, choice := range model.ToMapSlice(props.Config["choices"]) {
		choiceValue := model.Stringify(choice["value"])
		choices = append(choices, map[string]any{
			"value":    choiceValue,
			"label":    stringOr(choice["label"], choiceValue),
			"selected": choiceValue != "" && choiceValue == model.Stringify(value),
		})
	}
	data["choices"] = choices
	return data, nil
}

func childOutputs(children []*render.View) []string {
	out := make([]string, 0, len(children))
	for _, child := range children {
		if child.Output != "" {
			out = append(out, child.Output)
		}
	}
	return out
}

func columnHeading(config map[string]any) string {
	if label := strings.TrimSpace(model.Stringify(config["label"])); label != "" {
		return label
	}
	return humanize(model.Stringify(config["field"]))
}

// formatCell renders one escaped body cell for a column view.
func formatCell(column *render.View, record map[string]any) string {
	if column == nil || column.Status != render.StatusOK {
		return ""
	}
	field := model.Stringify(column.Config["field"])
	raw := record[field]
	text := model.Stringify(raw)
	switch column.TypeKey {
	case builtins.ColumnNumber:
		if f, ok := model.ToFloat(raw); ok {
			decimals, _ := model.ToInt(column.Config["decimals"])
			text = strconv.FormatFloat(f, 'f', decimals, 64)
		}
	case builtins.ColumnDate:
		layout := stringOr(column.Config["layout"], "2006-01-02")
		for _, candidate := range []string{time.RFC3339, "2006-01-02"} {
			if parsed, err := time.Parse(candidate, text); err == nil {
				text = parsed.Format(layout)
				break
			}
		}
	case builtins.ColumnBadge:
		if text == "" {
			return ""
		}
		style := ""
		if color := model.Stringify(column.Config["color"]); color != "" {
			style = ` style="--pb-badge:` + html.EscapeString(color) + `"`
		}
		return `<span class="pb-badge"` + style + `>` + html.EscapeString(text) + `</span>`
	case builtins.ColumnLink:
		href := interpolate(model.Stringify(column.Config["href"]), record)
		return `<a href="` + html.EscapeString(href) + `">` + html.EscapeString(text) + `</a>`
	}
	return html.EscapeString(text)
}

// interpolate replaces {field} tokens with record values.
func interpolate(text string, record map[string]any) string {
	if len(record) == 0 || !strings.Contains(text, "{") {
		return text
	}
	var builder strings.Builder
	for {
		start := strings.IndexByte(text, '{')
		if start < 0 {
			break
		}
		end := strings.IndexByte(text[start:], '}')
		if end < 0 {
			break
		}
		builder.WriteString(text[:start])
		key := strings.TrimSpace(text[start+1 : start+end])
		builder.WriteString(model.Stringify(record[key]))
		text = text[start+end+1:]
	}
	builder.WriteString(text)
	return builder.String()
}

func paragraphs(body string) []string {
	var out []string
	for _, chunk := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n\n") {
		if chunk = strings.TrimSpace(chunk); chunk != "" {
			out = append(out, chunk)
		}
	}
	return out
}

func humanize(name string) string {
	name = strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(name))
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func stringOr(value any, fallback string) string {
	if text := strings.TrimSpace(model.Stringify(value)); text != "" {
		return text
	}
	return fallback
}

func columnCount(value any, fallback int) int {
	if n, ok := model.ToInt(value); ok && n > 0 {
		return n
	}
	return fallback
}
