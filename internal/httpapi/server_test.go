package httpapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-pagebuilder/internal/httpapi"
	"github.com/goliatone/go-pagebuilder/internal/metrics"
	"github.com/goliatone/go-pagebuilder/pkg/blocks"
	"github.com/goliatone/go-pagebuilder/pkg/builtins"
	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/pages"
	"github.com/goliatone/go-pagebuilder/pkg/registry"
	"github.com/goliatone/go-pagebuilder/pkg/renderers/vanilla"
	"github.com/goliatone/go-pagebuilder/pkg/resource"
	"github.com/goliatone/go-pagebuilder/pkg/testsupport"
)

type fixture struct {
	store   *pages.MemoryStore
	reg     *prometheus.Registry
	handler http.Handler
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	html, err := vanilla.New()
	if err != nil {
		t.Fatalf("vanilla: %v", err)
	}
	doc, err := resource.NewLoader().Load(context.Background(), resource.SourceFromFile("../../pkg/resource/testdata/posts.yaml"))
	if err != nil {
		t.Fatalf("load resources: %v", err)
	}
	store := pages.NewMemoryStore(map[string]model.PageConfig{"posts": testsupport.SamplePage()})
	reg := prometheus.NewRegistry()
	server, err := httpapi.New(httpapi.Deps{
		Store:           store,
		Registries:      registry.NewSet(html.Bind(builtins.Definitions())),
		HTML:            html,
		Document:        doc,
		Source:          testsupport.SampleSource(),
		Metrics:         metrics.NewWithRegistry(reg),
		Gatherer:        reg,
		Logger:          zerolog.Nop(),
		PreserveUnknown: true,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return fixture{
		store:   store,
		reg:     reg,
		handler: server.Router(httpapi.RouterConfig{MetricsPath: "/metrics"}),
	}
}

func (f fixture) do(t *testing.T, method, target, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f fixture) postForm(t *testing.T, target string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, http.MethodPost, target, "application/x-www-form-urlencoded", strings.NewReader(values.Encode()))
}

func (f fixture) page(t *testing.T) model.PageConfig {
	t.Helper()
	page, err := f.store.Fetch(context.Background(), "posts")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	return page
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestGetPage(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/pages/posts", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var page model.PageConfig
	decode(t, rec, &page)
	if page.ID != "page_posts" || len(page.Blocks) != 5 {
		t.Fatalf("unexpected page: %+v", page)
	}

	rec = f.do(t, http.MethodGet, "/api/pages/comments", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body pages.ErrorBody
	decode(t, rec, &body)
	if !strings.Contains(body.Error, "not found") {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestListPages(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/pages", "", nil)
	var body struct {
		Pages []string `json:"pages"`
	}
	decode(t, rec, &body)
	if diff := cmp.Diff([]string{"posts"}, body.Pages); diff != "" {
		t.Fatalf("pages mismatch (-want +got):\n%s", diff)
	}
}

func TestPatchPage(t *testing.T) {
	f := newFixture(t)
	patch := `{"blocks":[{"id":"hdr","slug":"header","config":{"title":"Renamed"}}]}`
	rec := f.do(t, http.MethodPatch, "/api/pages/posts", "application/json", strings.NewReader(patch))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var page model.PageConfig
	decode(t, rec, &page)
	if page.Revision != 1 || len(page.Blocks) != 1 {
		t.Fatalf("unexpected patched page: %+v", page)
	}

	stale := `{"revision":7,"blocks":[]}`
	rec = f.do(t, http.MethodPatch, "/api/pages/posts", "application/json", strings.NewReader(stale))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPatchRejectsInvalidTrees(t *testing.T) {
	cases := map[string]string{
		"missing slug":  `{"blocks":[{"id":"a","config":{}}]}`,
		"duplicate ids": `{"blocks":[{"id":"a","slug":"text"},{"id":"g","slug":"grid","config":{"blocks":[{"id":"a","slug":"text"}]}}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(t, http.MethodPatch, "/api/pages/posts", "application/json", strings.NewReader(body))
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
			}
			if f.page(t).Revision != 0 {
				t.Fatalf("rejected patch must not be stored")
			}
		})
	}

	f := newFixture(t)
	rec := f.do(t, http.MethodPatch, "/api/pages/posts", "application/json", strings.NewReader(`{"blocks":`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", rec.Code)
	}
}

func TestPatchKeepsUnknownSlugs(t *testing.T) {
	f := newFixture(t)
	body := `{"blocks":[{"id":"x","slug":"carousel","config":{}}]}`
	rec := f.do(t, http.MethodPatch, "/api/pages/posts", "application/json", strings.NewReader(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected unknown slugs to be stored, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = f.do(t, http.MethodGet, "/preview/posts", "", nil)
	testsupport.AssertContains(t, rec.Body.String(), `data-node-id="x"`, "carousel")
}

func TestPreview(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/preview/posts?filter.status=draft", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
		t.Fatalf("unexpected content type %q", got)
	}
	testsupport.AssertContains(t, rec.Body.String(), "<h1>Posts</h1>", "<td>Second</td>")
	testsupport.AssertNotContains(t, rec.Body.String(), "<td>First</td>", "Draft note")

	rec = f.do(t, http.MethodGet, "/preview/posts?edit=1", "", nil)
	testsupport.AssertContains(t, rec.Body.String(), "Draft note", vanilla.EditorScript)

	rec = f.do(t, http.MethodGet, "/preview/posts?format=json", "", nil)
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type %q", got)
	}
	if !strings.Contains(rec.Body.String(), `"hdr"`) {
		t.Fatalf("expected node ids in json view: %s", rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/preview/posts", nil)
	req.Header.Set("Accept", "application/json, */*")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected Accept to select json, got %q", got)
	}

	rec = f.do(t, http.MethodGet, "/preview/posts?format=pdf", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got %d", rec.Code)
	}
}

func TestListTypes(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/types/blocks", "", nil)
	var body struct {
		Registry string                `json:"registry"`
		Types    []registry.Descriptor `json:"types"`
	}
	decode(t, rec, &body)
	if body.Registry != "block" || len(body.Types) == 0 || body.Types[0].Key != builtins.BlockHeader {
		t.Fatalf("unexpected block types: %+v", body)
	}

	rec = f.do(t, http.MethodGet, "/api/types", "", nil)
	var all map[string][]registry.Descriptor
	decode(t, rec, &all)
	for _, name := range []string{"block", "column", "filter", "field"} {
		if len(all[name]) == 0 {
			t.Fatalf("expected %s types, got %v", name, all)
		}
	}

	rec = f.do(t, http.MethodGet, "/api/types/widgets", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown registry, got %d", rec.Code)
	}
}

func TestGetResource(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/resources/posts", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body httpapi.ResourceResponse
	decode(t, rec, &body)
	if body.Columns["status"] != builtins.ColumnBadge || body.Filters["featured"] != builtins.FilterBoolean {
		t.Fatalf("unexpected suggestions: %+v %+v", body.Columns, body.Filters)
	}

	rec = f.do(t, http.MethodGet, "/api/resources/comments", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestEditFormPicksDeepestNode(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/edit/posts?chain="+url.QueryEscape("g1_text,g1,tabs"), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	testsupport.AssertContains(t, rec.Body.String(),
		`<input type="hidden" name="_node" value="g1_text">`,
		`<input type="hidden" name="_revision" value="0">`,
		`action="/edit/posts?node=g1_text"`,
	)

	rec = f.do(t, http.MethodGet, "/edit/posts?node=nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown node, got %d", rec.Code)
	}
}

func TestSubmitFormSaves(t *testing.T) {
	f := newFixture(t)
	rec := f.postForm(t, "/edit/posts?node=hdr", url.Values{
		"_node":     {"hdr"},
		"_revision": {"0"},
		"title":     {"Articles"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != "/preview/posts?edit=1" {
		t.Fatalf("unexpected redirect %q", got)
	}
	page := f.page(t)
	hdr, ok := blocks.Find(page.Blocks, "hdr", blocks.StandardKinds)
	if !ok {
		t.Fatalf("header missing after save")
	}
	if hdr.Config["title"] != "Articles" || hdr.Config["subtitle"] != "All posts" {
		t.Fatalf("unexpected header config: %v", hdr.Config)
	}
	if page.Revision != 1 {
		t.Fatalf("expected revision 1, got %d", page.Revision)
	}
	if got := sampleCounter(t, f.reg, "pagebuilder_editor_writes_total", "op", "save"); got != 1 {
		t.Fatalf("expected one save recorded, got %v", got)
	}
}

func TestSubmitFormRequiredFieldBlocksSave(t *testing.T) {
	f := newFixture(t)
	rec := f.postForm(t, "/edit/posts?node=hdr", url.Values{"_node": {"hdr"}, "title": {""}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	testsupport.AssertContains(t, rec.Body.String(), "is required")
	if f.page(t).Revision != 0 {
		t.Fatalf("invalid draft must not be written")
	}
}

func TestSubmitFormStaleRevision(t *testing.T) {
	f := newFixture(t)
	rec := f.postForm(t, "/edit/posts?node=hdr", url.Values{"_node": {"hdr"}, "_revision": {"3"}, "title": {"Late"}})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	testsupport.AssertContains(t, rec.Body.String(), "the page changed since it was loaded", `value="Late"`)
}

func TestSubmitFormRepeaterButtons(t *testing.T) {
	f := newFixture(t)
	rec := f.postForm(t, "/edit/posts?node=hdr", url.Values{
		"_node":       {"hdr"},
		"title":       {"Posts"},
		"showActions": {"false", "true"},
		"_append":     {"actions"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	testsupport.AssertContains(t, rec.Body.String(), `name="actions.0.label"`, `value="actions.0"`)
	if f.page(t).Revision != 0 {
		t.Fatalf("repeater buttons must not write")
	}
}

func TestSubmitFormDelete(t *testing.T) {
	f := newFixture(t)
	rec := f.postForm(t, "/edit/posts?node=g1&op=delete", url.Values{"_node": {"g1"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	page := f.page(t)
	for _, id := range []string{"g1", "g1_text"} {
		if _, ok := blocks.Find(page.Blocks, id, blocks.StandardKinds); ok {
			t.Fatalf("expected %s to be removed", id)
		}
	}
	if _, ok := blocks.Find(page.Blocks, "tabs", blocks.StandardKinds); !ok {
		t.Fatalf("parent tabs must survive")
	}
}

func TestSubmitFormCancel(t *testing.T) {
	f := newFixture(t)
	rec := f.postForm(t, "/edit/posts?node=hdr", url.Values{"_node": {"hdr"}, "_cancel": {"1"}, "title": {"Ignored"}})
	if rec.Code != http.StatusSeeOther || f.page(t).Revision != 0 {
		t.Fatalf("cancel must redirect without writing, got %d", rec.Code)
	}
}

func TestAddBlock(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/blocks/posts", "application/json", strings.NewReader(`{"slug":"text","parent":"tabs","tab":"t1","index":0}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Block model.BlockConfig `json:"block"`
	}
	decode(t, rec, &body)
	if body.Block.ID == "" || body.Block.Config["format"] != "plain" {
		t.Fatalf("expected a minted id and defaults, got %+v", body.Block)
	}
	if _, ok := blocks.Find(f.page(t).Blocks, body.Block.ID, blocks.StandardKinds); !ok {
		t.Fatalf("added block not stored")
	}

	rec = f.do(t, http.MethodPost, "/api/blocks/posts", "application/json", strings.NewReader(`{"slug":"carousel"}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown type, got %d", rec.Code)
	}
	rec = f.do(t, http.MethodPost, "/api/blocks/posts", "application/json", strings.NewReader(`{"slug":"text","tab":"t1"}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a tab without parent, got %d", rec.Code)
	}
}

func TestUpdateNode(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/nodes/posts", "application/json", strings.NewReader(`{"id":"g1_text","visible":false,"order":2}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	node, ok := blocks.Find(f.page(t).Blocks, "g1_text", blocks.StandardKinds)
	if !ok || node.IsVisible() || node.OrderValue() != 2 {
		t.Fatalf("unexpected node after update: %+v", node)
	}

	rec = f.do(t, http.MethodPost, "/api/nodes/posts", "application/json", strings.NewReader(`{"id":"g1_text"}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without visible or order, got %d", rec.Code)
	}
	rec = f.do(t, http.MethodPost, "/api/nodes/posts", "application/json", strings.NewReader(`{"id":"nope","visible":true}`))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown node, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/api/pages/posts", "", nil)
	if got := sampleCounter(t, f.reg, "pagebuilder_http_requests_total", "route", "/api/pages/*"); got != 1 {
		t.Fatalf("expected one request recorded, got %v", got)
	}
	rec := f.do(t, http.MethodGet, "/metrics", "", nil)
	testsupport.AssertContains(t, rec.Body.String(), "pagebuilder_http_requests_total")
}

func TestHealthAndAssets(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(t, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health returned %d", rec.Code)
	}
	rec := f.do(t, http.MethodGet, "/assets/"+vanilla.EditorScript, "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "data-node-id") {
		t.Fatalf("expected editor script, got %d", rec.Code)
	}
}

func sampleCounter(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	total := 0.0
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == label && pair.GetValue() == value {
					total += metric.GetCounter().GetValue()
				}
			}
		}
	}
	return total
}
