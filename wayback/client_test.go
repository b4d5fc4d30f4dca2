package wayback

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/cnosuke/mcp-wayback/internal/errors"
	"github.com/cnosuke/mcp-wayback/types"
)

// --- Mock Wayback Server Setup ---

type mockResponse struct {
	Body        string
	ContentType string
	StatusCode  int
}

const threeSnapshots = `[["timestamp","original"],
["20020120142510","http://example.com:80/"],
["20030601000000","http://www.example.com/"],
["20240101000000","https://example.com/"]]`

// startMockServer serves CDX responses keyed by the "url" query parameter on
// /cdx and replay responses keyed by path under /web/.
func startMockServer(t *testing.T, cdx map[string]mockResponse, replay map[string]mockResponse) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var resp mockResponse
		var ok bool
		switch {
		case r.URL.Path == "/cdx":
			resp, ok = cdx[r.URL.Query().Get("url")]
		case strings.HasPrefix(r.URL.Path, "/web/"):
			resp, ok = replay[strings.TrimPrefix(r.URL.Path, "/web/")]
		}
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("Not Found"))
			return
		}
		if resp.ContentType != "" {
			w.Header().Set("Content-Type", resp.ContentType)
		}
		w.WriteHeader(resp.StatusCode)
		_, err := w.Write([]byte(resp.Body))
		require.NoError(t, err, "Failed to write response body in mock server")
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c, err := NewClient(&Config{
		CDXEndpoint:    serverURL + "/cdx",
		ReplayEndpoint: serverURL + "/web/",
		Timeout:        5,
		UserAgent:      "test-agent",
	})
	require.NoError(t, err)
	return c
}

func TestClient_CDXURL(t *testing.T) {
	c := newTestClient(t, "http://cdx.test")
	got := c.CDXURL("example.com", 5)
	assert.Equal(t, "http://cdx.test/cdx?fl=timestamp%2Coriginal&limit=5&output=json&url=example.com", got)
}

func TestClient_SnapshotURL(t *testing.T) {
	c := newTestClient(t, "http://replay.test")
	got := c.SnapshotURL(types.Snapshot{Timestamp: "20020120142510", OriginalURL: "http://example.com:80/"})
	assert.Equal(t, "http://replay.test/web/20020120142510/http://example.com:80/", got)
}

func TestClient_GetSnapshots(t *testing.T) {
	var gotQuery, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(threeSnapshots))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	snapshots, err := c.GetSnapshots(context.Background(), "  example.com  ", 5)
	require.NoError(t, err)

	require.Len(t, snapshots, 3)
	assert.Equal(t, types.Snapshot{Timestamp: "20020120142510", OriginalURL: "http://example.com:80/"}, snapshots[0])
	assert.Equal(t, "https://example.com/", snapshots[2].OriginalURL)
	assert.Contains(t, gotQuery, "url=example.com")
	assert.Contains(t, gotQuery, "limit=5")
	assert.Contains(t, gotQuery, "output=json")
	assert.Equal(t, "test-agent", gotAgent)
}

func TestClient_GetSnapshots_Empty(t *testing.T) {
	server := startMockServer(t, map[string]mockResponse{
		"empty-body.test":  {Body: "", StatusCode: 200},
		"empty-array.test": {Body: "[]", StatusCode: 200},
		"header-only.test": {Body: `[["timestamp","original"]]`, StatusCode: 200},
	}, nil)
	c := newTestClient(t, server.URL)

	for _, target := range []string{"empty-body.test", "empty-array.test", "header-only.test"} {
		t.Run(target, func(t *testing.T) {
			snapshots, err := c.GetSnapshots(context.Background(), target, 5)
			require.NoError(t, err)
			assert.NotNil(t, snapshots)
			assert.Empty(t, snapshots)
		})
	}
}

func TestClient_GetSnapshots_Limit(t *testing.T) {
	server := startMockServer(t, map[string]mockResponse{
		"example.com": {Body: threeSnapshots, StatusCode: 200},
	}, nil)
	c := newTestClient(t, server.URL)

	// The mock ignores the limit parameter; the client still truncates.
	snapshots, err := c.GetSnapshots(context.Background(), "example.com", 2)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "20020120142510", snapshots[0].Timestamp)
	assert.Equal(t, "20030601000000", snapshots[1].Timestamp)
}

func TestClient_GetSnapshots_DefaultLimit(t *testing.T) {
	var gotLimit string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte("[]"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.GetSnapshots(context.Background(), "example.com", 0)
	require.NoError(t, err)
	assert.Equal(t, "10", gotLimit)
}

func TestClient_GetSnapshots_Errors(t *testing.T) {
	server := startMockServer(t, map[string]mockResponse{
		"unavailable.test": {Body: "down", StatusCode: 503},
		"garbage.test":     {Body: "<html>not json</html>", StatusCode: 200},
		"no-header.test":   {Body: `[["urlkey","digest"],["a","b"]]`, StatusCode: 200},
		"short-row.test":   {Body: `[["timestamp","original"],["20020120142510"]]`, StatusCode: 200},
	}, nil)
	c := newTestClient(t, server.URL)

	tests := []struct {
		target string
		status int
	}{
		{target: "unavailable.test", status: 503},
		{target: "garbage.test"},
		{target: "no-header.test"},
		{target: "short-row.test"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			snapshots, err := c.GetSnapshots(context.Background(), tt.target, 5)
			require.Error(t, err)
			assert.Nil(t, snapshots)

			var re *ierrors.RetrievalError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, "list snapshots", re.Op)
			assert.Equal(t, tt.status, re.StatusCode)
		})
	}
}

func TestClient_GetSnapshots_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	serverURL := server.URL
	server.Close()

	c := newTestClient(t, serverURL)
	_, err := c.GetSnapshots(context.Background(), "example.com", 5)
	require.Error(t, err)
	assert.True(t, ierrors.IsRetrieval(err))
}

func TestClient_GetSnapshots_EmptyTarget(t *testing.T) {
	c := newTestClient(t, "http://unused.test")
	_, err := c.GetSnapshots(context.Background(), "   ", 5)
	require.Error(t, err)
	assert.True(t, ierrors.IsRetrieval(err))
}

func TestClient_GetSnapshots_Cancelled(t *testing.T) {
	server := startMockServer(t, map[string]mockResponse{
		"example.com": {Body: threeSnapshots, StatusCode: 200},
	}, nil)
	c := newTestClient(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetSnapshots(ctx, "example.com", 5)
	require.Error(t, err)
	assert.True(t, ierrors.IsRetrieval(err))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_GetSnapshotHTML(t *testing.T) {
	page := "<html><head><title>Example</title></head><body>héllo</body></html>"
	server := startMockServer(t, nil, map[string]mockResponse{
		"20020120142510/http://example.com:80/": {Body: page, ContentType: "text/html; charset=utf-8", StatusCode: 200},
	})
	c := newTestClient(t, server.URL)

	snapshot := types.Snapshot{Timestamp: "20020120142510", OriginalURL: "http://example.com:80/"}
	res, err := c.GetSnapshotHTML(context.Background(), snapshot)
	require.NoError(t, err)

	assert.Equal(t, len(page), res.Length)
	assert.Equal(t, server.URL+"/web/20020120142510/http://example.com:80/", res.SnapshotURL)
	assert.Equal(t, page, res.Body)
	assert.Equal(t, "text/html; charset=utf-8", res.ContentType)
}

func TestClient_GetSnapshotHTML_Errors(t *testing.T) {
	server := startMockServer(t, nil, map[string]mockResponse{
		"20020120142510/http://gone.test/": {Body: "gone", StatusCode: 410},
	})
	c := newTestClient(t, server.URL)

	_, err := c.GetSnapshotHTML(context.Background(), types.Snapshot{Timestamp: "20020120142510", OriginalURL: "http://gone.test/"})
	require.Error(t, err)
	var re *ierrors.RetrievalError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "fetch snapshot", re.Op)
	assert.Equal(t, 410, re.StatusCode)

	_, err = c.GetSnapshotHTML(context.Background(), types.Snapshot{OriginalURL: "http://gone.test/"})
	require.Error(t, err)
	assert.True(t, ierrors.IsRetrieval(err))
}

func TestClient_GetSnapshotHTML_BodyLimit(t *testing.T) {
	server := startMockServer(t, nil, map[string]mockResponse{
		"1/http://big.test/": {Body: strings.Repeat("a", 64), StatusCode: 200},
	})
	c, err := NewClient(&Config{
		CDXEndpoint:    server.URL + "/cdx",
		ReplayEndpoint: server.URL + "/web",
		Timeout:        5,
		MaxBodyBytes:   32,
	})
	require.NoError(t, err)

	_, err = c.GetSnapshotHTML(context.Background(), types.Snapshot{Timestamp: "1", OriginalURL: "http://big.test/"})
	require.Error(t, err)
	assert.True(t, ierrors.IsRetrieval(err))
}
