package marketplace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProbeMissingCredential(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", nil)
	res := c.Probe(context.Background(), "")
	require.Equal(t, OutcomeMissingCredential, res.Outcome)
	require.False(t, res.OK())
}

func TestProbeReportsUpstreamAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ping", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	res := c.Probe(context.Background(), "test-key")
	require.Equal(t, OutcomeOK, res.Outcome)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "pong", res.Body)
}

func TestProbeDegradesOnUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":["bad token"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	res := c.Probe(context.Background(), "bad-key")
	require.Equal(t, OutcomeDegraded, res.Outcome)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.Contains(t, res.Body, "bad token")
}

func TestProbeDegradesOnUnreachableHost(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", nil)
	res := c.Probe(context.Background(), "key")
	require.Equal(t, OutcomeDegraded, res.Outcome)
	require.NotEmpty(t, res.Error)
}

func TestFetchListingsOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/public/api/v1/getCards", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cards":[{"nmID":101,"vendorCode":"TB-1","title":"Tote","brand":"Atelier"},{"nmID":102,"title":"Apron"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	res := c.FetchListings(context.Background(), "key", 10)
	require.Equal(t, OutcomeOK, res.Outcome)
	require.Len(t, res.Listings, 2)
	require.Equal(t, "TB-1", res.Listings[0].Code)
	// Cards without a vendor code fall back to the numeric id.
	require.Equal(t, "102", res.Listings[1].Code)
}

func TestFetchListingsFallsBackOnUnreachableHost(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", nil)
	res := c.FetchListings(context.Background(), "key", 3)
	require.Equal(t, OutcomeFallback, res.Outcome)
	require.Len(t, res.Listings, 3)
	require.Equal(t, "DEMO-001", res.Listings[0].Code)
}

func TestFetchListingsFallsBackOnBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	res := c.FetchListings(context.Background(), "key", 10)
	require.Equal(t, OutcomeFallback, res.Outcome)
	require.NotEmpty(t, res.Listings)
}

func TestFetchListingsFallsBackOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	res := c.FetchListings(context.Background(), "key", 10)
	require.Equal(t, OutcomeFallback, res.Outcome)
}

func TestFetchListingsMissingCredential(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", nil)
	res := c.FetchListings(context.Background(), "", 10)
	require.Equal(t, OutcomeMissingCredential, res.Outcome)
	require.Empty(t, res.Listings)
}
