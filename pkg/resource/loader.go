package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"
)

// Loader reads OpenAPI documents from disk, an fs.FS or HTTP.
type Loader struct {
	files     fs.FS
	client    *http.Client
	allowHTTP bool
	timeout   time.Duration
	validate  bool
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFileSystem sets the fs.FS used by SourceFromFS sources.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(l *Loader) {
		l.files = files
	}
}

// WithHTTPClient enables URL sources through client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) {
		if client != nil {
			l.client = client
			l.allowHTTP = true
		}
	}
}

// WithHTTPFallback enables URL sources with a default client.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(l *Loader) {
		l.allowHTTP = true
		l.timeout = timeout
	}
}

// WithValidation runs the kin-openapi document validator after parsing.
func WithValidation(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.validate = enabled
	}
}

// NewLoader constructs a Loader. HTTP is off unless enabled by an option.
func NewLoader(options ...LoaderOption) *Loader {
	l := &Loader{validate: true}
	for _, option := range options {
		if option != nil {
			option(l)
		}
	}
	if l.allowHTTP && l.client == nil {
		l.client = &http.Client{Timeout: l.timeout}
	}
	return l
}

// Load reads and parses the document at src.
func (l *Loader) Load(ctx context.Context, src Source) (*Document, error) {
	if src == nil {
		return nil, errors.New("resource: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case SourceKindFile:
		data, err = os.ReadFile(src.Location())
	case SourceKindFS:
		if l.files == nil {
			return nil, errors.New("resource: filesystem is not configured")
		}
		data, err = fs.ReadFile(l.files, src.Location())
	case SourceKindURL:
		if !l.allowHTTP {
			return nil, errors.New("resource: http support disabled")
		}
		data, err = l.fetch(ctx, src.Location())
	default:
		err = fmt.Errorf("resource: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return nil, fmt.Errorf("resource: load %s: %w", src.Location(), err)
	}
	return Parse(ctx, data, ParseOptions{Validate: l.validate, Location: src.Location()})
}

func (l *Loader) fetch(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
