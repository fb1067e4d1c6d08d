package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-pagebuilder/pkg/ambient"
	"github.com/goliatone/go-pagebuilder/pkg/compose"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/pages"
)

// loadRecords reads a YAML or JSON document mapping resource names to record
// lists, e.g. {"posts": [{"id": "1", "title": "First"}]}.
func loadRecords(file string) (ambient.StaticSource, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return ambient.StaticSource{}, fmt.Errorf("read records: %w", err)
	}
	var records map[string][]map[string]any
	if err := yaml.Unmarshal(data, &records); err != nil {
		return ambient.StaticSource{}, fmt.Errorf("decode records %s: %w", file, err)
	}
	return ambient.StaticSource{Records: records}, nil
}

// pagePathOf derives the storage path of a page file: the resource id for
// list pages, with a /show suffix when the file is named show.
func pagePathOf(file string, page model.PageConfig) string {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	resource := page.ResourceID
	if resource == "" {
		resource = base
		if base == "show" {
			resource = filepath.Base(filepath.Dir(file))
		}
	}
	if base == "show" {
		return pages.Path(resource, pages.ViewShow)
	}
	return pages.Path(resource, pages.ViewList)
}

// pageEnv gathers the ambient props of a page rendered outside a request:
// show pages read recordID, the other views list the first page of records.
func pageEnv(ctx context.Context, source ambient.DataSource, path string, page model.PageConfig, recordID string) (compose.Env, error) {
	resourceName, view, err := pages.ParsePath(path)
	if err != nil {
		return compose.Env{}, err
	}
	if page.ResourceID != "" {
		resourceName = page.ResourceID
	}
	props := ambient.Props{Resource: resourceName, Filters: ambient.NewFilterMap(nil), Source: source}
	if source != nil {
		if view == pages.ViewShow {
			if recordID != "" {
				record, err := source.Read(ctx, resourceName, recordID)
				if err != nil {
					return compose.Env{}, err
				}
				props.Record = record
			}
		} else {
			list, err := source.List(ctx, resourceName, ambient.ListParams{Page: 1, PerPage: 25})
			if err != nil {
				return compose.Env{}, err
			}
			props.List = &list
		}
	}
	return compose.Env{Path: path, Ambient: props}, nil
}
