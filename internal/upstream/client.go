// Package upstream fetches raw catalog records from the venue's data
// provider, a PostgREST-style API. It returns records exactly as sent; all
// interpretation happens in the catalog package.
package upstream

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/taproom-menu/internal/domain/catalog"
)

// ErrOrganizationNotFound is returned when the configured organization slug
// does not exist at the provider.
var ErrOrganizationNotFound = errors.New("organization not found")

// Config holds the provider connection settings.
type Config struct {
	// BaseURL is the provider root, e.g. https://xyz.supabase.co.
	BaseURL string
	// APIKey is sent as both the apikey header and a bearer token.
	APIKey string
	// Organization is the venue's slug; all records are scoped to it.
	Organization string
	// Timeout bounds each request. Zero means 10 seconds.
	Timeout time.Duration
}

// Client fetches raw category and menu item records.
type Client struct {
	cfg  Config
	http *http.Client
}

var _ catalog.Source = (*Client)(nil)

// NewClient creates a Client with an instrumented transport.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// FetchCatalog resolves the organization and fetches its categories and menu
// items concurrently. Categories come back in display order; items carry
// their embedded per-size prices, with disabled items filtered out at the
// provider.
func (c *Client) FetchCatalog(ctx context.Context) (categories, items []catalog.RawRecord, err error) {
	orgID, err := c.organizationID(ctx)
	if err != nil {
		return nil, nil, err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		categories, err = c.fetch(ctx, "categories", url.Values{
			"select":          []string{"*"},
			"organization_id": []string{"eq." + orgID},
			"order":           []string{"display_order.asc"},
		})
		return errors.Wrap(err, "fetch categories")
	})
	g.Go(func() error {
		var err error
		items, err = c.fetch(ctx, "menu_items", url.Values{
			"select":          []string{"*,prices(*),category:categories(*)"},
			"organization_id": []string{"eq." + orgID},
			"is_disabled":     []string{"eq.false"},
			"order":           []string{"display_order.asc"},
		})
		return errors.Wrap(err, "fetch menu items")
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return categories, items, nil
}

// organizationID resolves the configured organization slug to its id.
func (c *Client) organizationID(ctx context.Context) (string, error) {
	records, err := c.fetch(ctx, "organizations", url.Values{
		"select": []string{"id"},
		"slug":   []string{"eq." + c.cfg.Organization},
		"limit":  []string{"1"},
	})
	if err != nil {
		return "", errors.Wrap(err, "fetch organization")
	}
	if len(records) == 0 {
		return "", errors.Wrapf(ErrOrganizationNotFound, "slug %q", c.cfg.Organization)
	}

	id, ok := records[0].Text("id")
	if !ok || id == "" {
		return "", errors.New("organization record has no id")
	}
	return id, nil
}

// fetch performs one GET against a provider table and decodes the JSON array
// response into raw records.
func (c *Client) fetch(ctx context.Context, table string, query url.Values) ([]catalog.RawRecord, error) {
	u := c.cfg.BaseURL + "/rest/v1/" + table + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("apikey", c.cfg.APIKey)
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", table)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the error message.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, errors.Errorf("GET %s: status %d: %s", table, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s response", table)
	}

	return parseRecords(body)
}

func parseRecords(body []byte) ([]catalog.RawRecord, error) {
	var records []catalog.RawRecord
	d := jx.DecodeBytes(body)
	if err := d.Arr(func(d *jx.Decoder) error {
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		rec, err := catalog.ParseRawRecord(raw)
		if err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode records")
	}
	return records, nil
}
