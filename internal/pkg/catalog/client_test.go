package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalogClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 2 * time.Second},
	}
}

func TestFetch_Success(t *testing.T) {
	var gotPath, gotToken, gotYear string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("token")
		gotYear = r.URL.Query().Get("year")
		w.Write([]byte(`[` + validRecordJSON() + `]`))
	}))
	defer srv.Close()

	client := newTestCatalogClient(srv.URL, "secret")
	records, err := client.Fetch(context.Background(), 2026)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].ID)
	assert.Equal(t, "/api/brm", gotPath)
	assert.Equal(t, "secret", gotToken)
	assert.Equal(t, "2026", gotYear)
}

func TestFetch_MissingToken(t *testing.T) {
	client := newTestCatalogClient("http://unused.invalid", "  ")
	records, err := client.Fetch(context.Background(), 2026)
	assert.ErrorIs(t, err, ErrMissingToken)
	assert.Nil(t, records)
}

func TestFetch_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"bad token"}`))
	}))
	defer srv.Close()

	client := newTestCatalogClient(srv.URL, "wrong")
	records, err := client.Fetch(context.Background(), 2026)

	assert.Nil(t, records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=403")
}

func TestFetch_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	client := newTestCatalogClient(srv.URL, "secret")
	records, err := client.Fetch(context.Background(), 2026)

	assert.Nil(t, records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
