// Package zoho reads deal records from the Zoho CRM REST API.
package zoho

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/straye-as/sales-dashboard-api/internal/config"
	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"go.uber.org/zap"
)

// ErrUpstream is returned when Zoho answers with a non-2xx status after retries
var ErrUpstream = errors.New("zoho upstream error")

// errUnauthorized triggers one token refresh before giving up
var errUnauthorized = errors.New("zoho access token rejected")

const (
	defaultBackoffBase = 500 * time.Millisecond
	maxPages           = 1000
)

// HTTPClient is satisfied by *http.Client
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches deal pages from Zoho CRM
type Client struct {
	httpc     HTTPClient
	tokens    *tokenSource
	apiDomain string
	module    string
	pageSize  int
	backoff   Backoff
	logger    *zap.Logger
}

type pageResponse struct {
	Data []json.RawMessage `json:"data"`
	Info struct {
		Page        int  `json:"page"`
		PerPage     int  `json:"per_page"`
		Count       int  `json:"count"`
		MoreRecords bool `json:"more_records"`
	} `json:"info"`
}

// NewClient creates a Zoho client. A nil httpc uses an http.Client with the configured timeout.
func NewClient(cfg *config.ZohoConfig, httpc HTTPClient, logger *zap.Logger) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: cfg.TimeoutDuration()}
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 200
	}
	module := cfg.Module
	if module == "" {
		module = "Deals"
	}

	return &Client{
		httpc: httpc,
		tokens: &tokenSource{
			httpc:        httpc,
			accountsURL:  cfg.AccountsURL,
			clientID:     cfg.ClientID,
			clientSecret: cfg.ClientSecret,
			refreshToken: cfg.RefreshToken,
			now:          time.Now,
		},
		apiDomain: strings.TrimRight(cfg.APIDomain, "/"),
		module:    module,
		pageSize:  pageSize,
		backoff:   NewBackoff(defaultBackoffBase, cfg.MaxRetries),
		logger:    logger,
	}
}

// FetchDealPayloads returns every deal of the module as raw JSON in Zoho's order.
// Either all pages are read or an error is returned.
func (c *Client) FetchDealPayloads(ctx context.Context) ([]json.RawMessage, error) {
	var all []json.RawMessage
	start := time.Now()

	for page := 1; page <= maxPages; page++ {
		resp, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s page %d: %w", c.module, page, err)
		}
		all = append(all, resp.Data...)

		if !resp.Info.MoreRecords {
			c.logger.Info("Fetched deals from Zoho",
				zap.String("module", c.module),
				zap.Int("pages", page),
				zap.Int("records", len(all)),
				zap.Duration("duration", time.Since(start)),
			)
			return all, nil
		}
	}
	return nil, fmt.Errorf("%w: more than %d pages", ErrUpstream, maxPages)
}

// FetchDeals returns every deal of the module decoded into records
func (c *Client) FetchDeals(ctx context.Context) ([]domain.DealRecord, error) {
	payloads, err := c.FetchDealPayloads(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]domain.DealRecord, len(payloads))
	for i, p := range payloads {
		if err := json.Unmarshal(p, &records[i]); err != nil {
			return nil, fmt.Errorf("failed to decode deal %d: %w", i, err)
		}
	}
	return records, nil
}

// GetDeals is FetchDeals under the name shared with the data warehouse client
func (c *Client) GetDeals(ctx context.Context) ([]domain.DealRecord, error) {
	return c.FetchDeals(ctx)
}

func (c *Client) fetchPage(ctx context.Context, page int) (*pageResponse, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(c.pageSize))
	endpoint := fmt.Sprintf("%s/crm/v2/%s?%s", c.apiDomain, url.PathEscape(c.module), q.Encode())

	var out pageResponse
	refreshed := false
	err := c.backoff.Do(ctx, func(attempt int) error {
		err := c.getJSON(ctx, endpoint, &out)
		if errors.Is(err, errUnauthorized) && !refreshed {
			refreshed = true
			c.tokens.Invalidate()
			err = c.getJSON(ctx, endpoint, &out)
		}
		if errors.Is(err, errUnauthorized) {
			return permanent(fmt.Errorf("%w: status 401 after token refresh", ErrUpstream))
		}
		if err != nil && attempt < c.backoff.maxRetries {
			c.logger.Warn("Zoho request failed",
				zap.Int("page", page),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// getJSON performs one authorized GET. Client errors other than 401/429 are permanent.
func (c *Client) getJSON(ctx context.Context, endpoint string, v *pageResponse) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return permanent(err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return permanent(err)
		}
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		// no records in the module
		*v = pageResponse{}
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return errUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("%w: status %d body=%s", ErrUpstream, resp.StatusCode, string(b))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return err
		}
		return permanent(err)
	}

	*v = pageResponse{}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return permanent(fmt.Errorf("failed to decode page: %w", err))
	}
	return nil
}
