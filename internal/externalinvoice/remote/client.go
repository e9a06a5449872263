package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/smallbiznis/supplierspend/internal/config"
	"github.com/smallbiznis/supplierspend/internal/externalinvoice/domain"
	"go.uber.org/zap"
)

var ErrMissingBaseURL = errors.New("external invoice base url is not configured")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("external invoice endpoint returned %d", e.StatusCode)
	}
	return fmt.Sprintf("external invoice endpoint returned %d: %s", e.StatusCode, e.Body)
}

// Client calls GET {base}/suppliers/{id}/invoices.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) *Client {
	return NewWithHTTPClient(cfg.ExternalInvoice.BaseURL, &http.Client{Timeout: cfg.ExternalInvoice.Timeout}, log)
}

func NewWithHTTPClient(baseURL string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    httpClient,
		log:     log.Named("externalinvoice.remote"),
	}
}

func (c *Client) GetInvoices(ctx context.Context, supplierID string) ([]domain.ExternalInvoice, error) {
	if c.baseURL == "" {
		return nil, ErrMissingBaseURL
	}

	endpoint := c.baseURL + "/suppliers/" + url.PathEscape(supplierID) + "/invoices"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Debug("remote invoice call rejected",
			zap.String("supplier_id", supplierID),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var invoices []domain.ExternalInvoice
	if err := json.NewDecoder(resp.Body).Decode(&invoices); err != nil {
		return nil, fmt.Errorf("decode external invoices: %w", err)
	}
	if invoices == nil {
		invoices = []domain.ExternalInvoice{}
	}
	return invoices, nil
}
