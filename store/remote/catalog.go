/*
Package remote implements tuition.ProgramCatalog against the academic
back end's REST API.

ENDPOINTS:
  GET {base}/programs/{id}  -> one program object
  GET {base}/programs       -> array of program objects

Both answer with the bare JSON contract documented in factory/program.go.
A 404 maps to tuition.ErrProgramNotFound; transport failures, other
non-2xx statuses and undecodable bodies map to tuition.ErrCatalogUnavailable.

The catalog is read-only: writes go to the back end directly.
*/
package remote

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/warp/tuition-engine/factory"
	"github.com/warp/tuition-engine/tuition"
)

// DefaultTimeout bounds each catalog request.
const DefaultTimeout = 10 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

// Catalog is a read-only REST catalog client.
type Catalog struct {
	baseURL    string
	factory    *factory.ProgramFactory
	httpClient *http.Client
}

var _ tuition.ProgramCatalog = (*Catalog)(nil)

// Option configures a Catalog.
type Option func(*Catalog)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(cat *Catalog) { cat.httpClient = c }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(cat *Catalog) {
		if d > 0 {
			cat.httpClient.Timeout = d
		}
	}
}

// WithCurrency sets the currency for records without "moneda".
func WithCurrency(c tuition.Currency) Option {
	return func(cat *Catalog) { cat.factory = factory.NewProgramFactory(c) }
}

func New(baseURL string, opts ...Option) *Catalog {
	c := &Catalog{
		baseURL:    strings.TrimRight(baseURL, "/"),
		factory:    factory.NewProgramFactory(tuition.DefaultCurrency),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Catalog) GetProgram(ctx context.Context, id tuition.ProgramID) (*tuition.Program, error) {
	body, err := c.get(ctx, "/programs/"+url.PathEscape(string(id)))
	if err != nil {
		if errors.Is(err, tuition.ErrProgramNotFound) {
			return nil, errors.Wrapf(err, "id %q", id)
		}
		return nil, err
	}

	p, err := c.factory.ParseProgram(body)
	if err != nil {
		return nil, errors.Wrapf(tuition.ErrCatalogUnavailable, "program %s: %v", id, err)
	}
	return p, nil
}

func (c *Catalog) ListPrograms(ctx context.Context) ([]tuition.Program, error) {
	body, err := c.get(ctx, "/programs")
	if errors.Is(err, tuition.ErrProgramNotFound) {
		return nil, errors.Wrap(tuition.ErrCatalogUnavailable, "list programs: status 404")
	}
	if err != nil {
		return nil, err
	}

	programs, err := c.factory.ParsePrograms(body)
	if err != nil {
		return nil, errors.Wrapf(tuition.ErrCatalogUnavailable, "list programs: %v", err)
	}
	return programs, nil
}

func (c *Catalog) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(tuition.ErrCatalogUnavailable, "GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.Wrapf(tuition.ErrCatalogUnavailable, "read %s: %v", path, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, tuition.ErrProgramNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, errors.Wrapf(tuition.ErrCatalogUnavailable, "GET %s: status %d", path, resp.StatusCode)
	}
	return body, nil
}
