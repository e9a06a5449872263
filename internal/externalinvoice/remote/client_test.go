package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetInvoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/suppliers/42/invoices", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"year":2023,"total_amount":"12.50"},{"year":2024,"total_amount":7}]`))
	}))
	defer srv.Close()

	c := NewWithHTTPClient(srv.URL+"/", srv.Client(), zap.NewNop())
	invoices, err := c.GetInvoices(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, 2023, invoices[0].Year)
	assert.True(t, decimal.RequireFromString("12.5").Equal(invoices[0].TotalAmount))
	assert.True(t, decimal.NewFromInt(7).Equal(invoices[1].TotalAmount))
}

func TestGetInvoices_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer srv.Close()

	invoices, err := NewWithHTTPClient(srv.URL, srv.Client(), nil).GetInvoices(context.Background(), "1")
	require.NoError(t, err)
	assert.NotNil(t, invoices)
	assert.Empty(t, invoices)
}

func TestGetInvoices_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewWithHTTPClient(srv.URL, srv.Client(), nil).GetInvoices(context.Background(), "1")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "upstream busy", statusErr.Body)
}

func TestGetInvoices_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	_, err := NewWithHTTPClient(srv.URL, srv.Client(), nil).GetInvoices(context.Background(), "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode external invoices")
}

func TestGetInvoices_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := NewWithHTTPClient(srv.URL, &http.Client{Timeout: 20 * time.Millisecond}, nil)
	_, err := c.GetInvoices(context.Background(), "1")
	require.Error(t, err)
}

func TestGetInvoices_MissingBaseURL(t *testing.T) {
	_, err := NewWithHTTPClient("", nil, nil).GetInvoices(context.Background(), "1")
	assert.ErrorIs(t, err, ErrMissingBaseURL)
}
