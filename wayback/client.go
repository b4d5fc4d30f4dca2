package wayback

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	ierrors "github.com/cnosuke/mcp-wayback/internal/errors"
	"github.com/cnosuke/mcp-wayback/internal/tracelog"
	"github.com/cnosuke/mcp-wayback/types"
)

const (
	DefaultCDXEndpoint    = "https://web.archive.org/cdx/search/cdx"
	DefaultReplayEndpoint = "https://web.archive.org/web"
	DefaultLimit          = 10
	DefaultMaxBodyBytes   = int64(10 * 1024 * 1024)

	opListSnapshots = "list snapshots"
	opFetchSnapshot = "fetch snapshot"
)

type Config struct {
	CDXEndpoint    string
	ReplayEndpoint string
	Timeout        int // seconds
	UserAgent      string
	DefaultLimit   int
	MaxBodyBytes   int64
}

// SnapshotSource lists the known captures of a target.
type SnapshotSource interface {
	GetSnapshots(ctx context.Context, target string, limit int) ([]types.Snapshot, error)
}

// SnapshotFetcher retrieves the archived page of a capture.
type SnapshotFetcher interface {
	GetSnapshotHTML(ctx context.Context, snapshot types.Snapshot) (*types.HTMLResult, error)
}

// Client talks to the CDX index and the replay service. It only holds
// immutable settings and is safe for concurrent use.
type Client struct {
	client         *http.Client
	cdxEndpoint    string
	replayEndpoint string
	userAgent      string
	defaultLimit   int
	maxBodyBytes   int64
}

// NewClient creates a new Client.
func NewClient(cfg *Config) (*Client, error) {
	zap.S().Infow("creating new wayback client",
		"cdx_endpoint", cfg.CDXEndpoint,
		"replay_endpoint", cfg.ReplayEndpoint,
		"timeout", cfg.Timeout,
		"user_agent", cfg.UserAgent,
		"default_limit", cfg.DefaultLimit)

	c := &Client{
		client:         &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
		cdxEndpoint:    cfg.CDXEndpoint,
		replayEndpoint: strings.TrimRight(cfg.ReplayEndpoint, "/"),
		userAgent:      cfg.UserAgent,
		defaultLimit:   cfg.DefaultLimit,
		maxBodyBytes:   cfg.MaxBodyBytes,
	}
	if c.cdxEndpoint == "" {
		c.cdxEndpoint = DefaultCDXEndpoint
	}
	if c.replayEndpoint == "" {
		c.replayEndpoint = DefaultReplayEndpoint
	}
	if c.defaultLimit <= 0 {
		c.defaultLimit = DefaultLimit
	}
	if c.maxBodyBytes <= 0 {
		c.maxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Timeout <= 0 {
		c.client.Timeout = 30 * time.Second
	}

	if _, err := url.Parse(c.cdxEndpoint); err != nil {
		return nil, errors.Wrap(err, "invalid cdx endpoint")
	}
	if _, err := url.Parse(c.replayEndpoint); err != nil {
		return nil, errors.Wrap(err, "invalid replay endpoint")
	}
	return c, nil
}

type fetchResponse struct {
	status      int
	body        []byte
	contentType string
}

// fetch issues one GET and reads the body. Non-2xx statuses are returned as
// RetrievalErrors carrying the status code.
func (c *Client) fetch(ctx context.Context, op, urlStr string) (*fetchResponse, error) {
	log := tracelog.FromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, ierrors.NewRetrievalError(op, urlStr, ierrors.Wrap(err, "failed to create request"))
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorw("request failed", "op", op, "url", urlStr, "error", err)
		return nil, ierrors.NewRetrievalError(op, urlStr, ierrors.Wrap(err, "failed to execute request"))
	}
	defer resp.Body.Close()

	log.Infow("response received", "op", op, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ierrors.NewStatusError(op, urlStr, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, ierrors.NewRetrievalError(op, urlStr, ierrors.Wrap(err, "failed to read response body"))
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, ierrors.NewRetrievalError(op, urlStr, errors.Newf("response body exceeds %d bytes", c.maxBodyBytes))
	}

	log.Debugw("response body read",
		"op", op,
		"bytes", len(body),
		"content_type", resp.Header.Get("Content-Type"))

	return &fetchResponse{
		status:      resp.StatusCode,
		body:        body,
		contentType: resp.Header.Get("Content-Type"),
	}, nil
}

// CDXURL builds the index query for target.
func (c *Client) CDXURL(target string, limit int) string {
	q := url.Values{}
	q.Set("url", target)
	q.Set("output", "json")
	q.Set("fl", "timestamp,original")
	q.Set("limit", strconv.Itoa(limit))
	sep := "?"
	if strings.Contains(c.cdxEndpoint, "?") {
		sep = "&"
	}
	return c.cdxEndpoint + sep + q.Encode()
}

// SnapshotURL builds the replay URL of a capture.
func (c *Client) SnapshotURL(snapshot types.Snapshot) string {
	return c.replayEndpoint + "/" + snapshot.Timestamp + "/" + snapshot.OriginalURL
}

// GetSnapshots lists up to limit captures of target in the order returned by
// the index. A limit <= 0 uses the configured default.
func (c *Client) GetSnapshots(ctx context.Context, target string, limit int) ([]types.Snapshot, error) {
	log := tracelog.FromContext(ctx)

	target = strings.TrimSpace(target)
	if target == "" {
		return nil, ierrors.NewRetrievalError(opListSnapshots, "", errors.New("target is empty"))
	}
	if limit <= 0 {
		limit = c.defaultLimit
	}

	cdxURL := c.CDXURL(target, limit)
	log.Infow("requesting CDX API", "target", target, "limit", limit, "url", cdxURL)

	resp, err := c.fetch(ctx, opListSnapshots, cdxURL)
	if err != nil {
		return nil, err
	}

	snapshots, err := parseCDX(resp.body)
	if err != nil {
		log.Errorw("failed to parse CDX response", "error", err)
		return nil, ierrors.NewRetrievalError(opListSnapshots, cdxURL, err)
	}
	if len(snapshots) > limit {
		snapshots = snapshots[:limit]
	}

	log.Infow("parsed CDX response", "snapshots", len(snapshots))
	return snapshots, nil
}

// parseCDX decodes a CDX JSON response: an array of rows whose first row
// names the columns. Empty bodies and header-only arrays yield no snapshots.
func parseCDX(body []byte) ([]types.Snapshot, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []types.Snapshot{}, nil
	}

	var rows [][]string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, ierrors.Wrap(err, "failed to decode CDX response")
	}
	if len(rows) == 0 {
		return []types.Snapshot{}, nil
	}

	tsIdx, origIdx := -1, -1
	for i, col := range rows[0] {
		switch col {
		case "timestamp":
			tsIdx = i
		case "original":
			origIdx = i
		}
	}
	if tsIdx < 0 || origIdx < 0 {
		return nil, errors.Newf("CDX header %v lacks timestamp/original columns", rows[0])
	}

	snapshots := make([]types.Snapshot, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) <= tsIdx || len(row) <= origIdx {
			return nil, errors.Newf("CDX row %d has %d columns", i+1, len(row))
		}
		snapshots = append(snapshots, types.Snapshot{
			Timestamp:   row[tsIdx],
			OriginalURL: row[origIdx],
		})
	}
	return snapshots, nil
}

// GetSnapshotHTML fetches the archived page of snapshot and measures it.
func (c *Client) GetSnapshotHTML(ctx context.Context, snapshot types.Snapshot) (*types.HTMLResult, error) {
	log := tracelog.FromContext(ctx)

	if snapshot.Timestamp == "" || snapshot.OriginalURL == "" {
		return nil, ierrors.NewRetrievalError(opFetchSnapshot, "", errors.New("snapshot requires timestamp and original URL"))
	}

	snapshotURL := c.SnapshotURL(snapshot)
	log.Infow("fetching snapshot HTML", "url", snapshotURL)

	resp, err := c.fetch(ctx, opFetchSnapshot, snapshotURL)
	if err != nil {
		return nil, err
	}

	log.Infow("snapshot HTML fetched", "length", len(resp.body))
	return &types.HTMLResult{
		Length:      len(resp.body),
		SnapshotURL: snapshotURL,
		Body:        string(resp.body),
		ContentType: resp.contentType,
	}, nil
}
