// Package ambient carries the contextual data a parent hands to block
// instances (current record, filter values, sort state, list results). None
// of it is persisted in a block's config.
package ambient

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Key names one ambient prop a block type can ask for.
type Key string

const (
	KeyResource Key = "resource"
	KeyRecord   Key = "record"
	KeyFilters  Key = "filters"
	KeySort     Key = "sort"
	KeyList     Key = "list"
	KeySource   Key = "source"
)

// SortOrder is either ascending or descending.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortState is the active sort of a listing.
type SortState struct {
	Field string    `json:"field"`
	Order SortOrder `json:"order"`
}

// ListParams are the read parameters forwarded to a DataSource.
type ListParams struct {
	Page    int            `json:"page"`
	PerPage int            `json:"perPage"`
	Sort    *SortState     `json:"sort,omitempty"`
	Filters map[string]any `json:"filters,omitempty"`
}

// ListResult is one page of records plus the unpaginated total.
type ListResult struct {
	Data  []map[string]any `json:"data"`
	Total int              `json:"total"`
}

// DataSource is the read-only remote data contract consumed by blocks.
type DataSource interface {
	List(ctx context.Context, resource string, params ListParams) (ListResult, error)
	Read(ctx context.Context, resource, id string) (map[string]any, error)
}

// Filters exposes the live filter values of a listing.
type Filters interface {
	Get(name string) (any, bool)
	Set(name string, value any)
	Values() map[string]any
}

// Props is the ambient pass-through bundle. Zero values mean "not provided".
type Props struct {
	Resource string
	Record   map[string]any
	Filters  Filters
	Sort     *SortState
	List     *ListResult
	Source   DataSource
}

// Select returns a copy of p holding only the requested props, so widgets
// only see what their type declared it needs.
func (p Props) Select(keys []Key) Props {
	var out Props
	for _, key := range keys {
		switch key {
		case KeyResource:
			out.Resource = p.Resource
		case KeyRecord:
			out.Record = p.Record
		case KeyFilters:
			out.Filters = p.Filters
		case KeySort:
			out.Sort = p.Sort
		case KeyList:
			out.List = p.List
		case KeySource:
			out.Source = p.Source
		}
	}
	return out
}

// FilterMap is a concurrency-safe Filters implementation.
type FilterMap struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewFilterMap seeds a FilterMap with initial values.
func NewFilterMap(initial map[string]any) *FilterMap {
	values := make(map[string]any, len(initial))
	for key, value := range initial {
		values[key] = value
	}
	return &FilterMap{values: values}
}

// Get returns the value of a filter.
func (f *FilterMap) Get(name string) (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	value, ok := f.values[name]
	return value, ok
}

// Set stores a filter value; nil removes it.
func (f *FilterMap) Set(name string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if value == nil {
		delete(f.values, name)
		return
	}
	f.values[name] = value
}

// Values returns a snapshot of all filter values.
func (f *FilterMap) Values() map[string]any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]any, len(f.values))
	for key, value := range f.values {
		out[key] = value
	}
	return out
}

// StaticSource serves fixed records per resource. It backs previews and tests
// where no remote API is available. Filters match on string equality.
type StaticSource struct {
	Records map[string][]map[string]any
	IDField string
}

// List filters, sorts and paginates the static records.
func (s StaticSource) List(ctx context.Context, resource string, params ListParams) (ListResult, error) {
	if err := ctx.Err(); err != nil {
		return ListResult{}, err
	}
	var matched []map[string]any
	for _, record := range s.Records[resource] {
		if matchesFilters(record, params.Filters) {
			matched = append(matched, record)
		}
	}
	if params.Sort != nil && params.Sort.Field != "" {
		field, desc := params.Sort.Field, params.Sort.Order == SortDesc
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := stringValue(matched[i][field]), stringValue(matched[j][field])
			if desc {
				return a > b
			}
			return a < b
		})
	}
	total := len(matched)
	if params.PerPage > 0 {
		page := params.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * params.PerPage
		if start > total {
			start = total
		}
		end := start + params.PerPage
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}
	return ListResult{Data: matched, Total: total}, nil
}

// Read returns the record whose id field equals id.
func (s StaticSource) Read(ctx context.Context, resource, id string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	field := s.IDField
	if field == "" {
		field = "id"
	}
	for _, record := range s.Records[resource] {
		if stringValue(record[field]) == id {
			return record, nil
		}
	}
	return nil, ErrRecordNotFound
}

func matchesFilters(record map[string]any, filters map[string]any) bool {
	for name, want := range filters {
		if want == nil || stringValue(want) == "" {
			continue
		}
		if !strings.EqualFold(stringValue(record[name]), stringValue(want)) {
			return false
		}
	}
	return true
}
