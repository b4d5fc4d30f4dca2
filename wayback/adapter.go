package wayback

import (
	"context"
	"strings"

	ierrors "github.com/cnosuke/mcp-wayback/internal/errors"
	"github.com/cnosuke/mcp-wayback/internal/tracelog"
	"github.com/cnosuke/mcp-wayback/types"
)

const (
	// Name identifies the adapter in the archive registry.
	Name = "wayback"
	// TestLimit is the number of snapshots requested by a test run.
	TestLimit = 5
)

// Adapter runs wayback test lookups. It has no mutable state.
type Adapter struct {
	source  SnapshotSource
	fetcher SnapshotFetcher
}

// NewAdapter creates an Adapter backed by a single Client.
func NewAdapter(c *Client) *Adapter {
	return &Adapter{source: c, fetcher: c}
}

// NewAdapterWith creates an Adapter from separate source and fetcher.
func NewAdapterWith(source SnapshotSource, fetcher SnapshotFetcher) *Adapter {
	return &Adapter{source: source, fetcher: fetcher}
}

func (a *Adapter) Name() string { return Name }

// CanHandle reports whether target has non-blank content. Any URL or domain
// can be looked up in the index.
func (a *Adapter) CanHandle(target string) bool {
	return strings.TrimSpace(target) != ""
}

func (a *Adapter) GetSnapshots(ctx context.Context, target string, limit int) ([]types.Snapshot, error) {
	return a.source.GetSnapshots(ctx, target, limit)
}

func (a *Adapter) GetSnapshotHTML(ctx context.Context, snapshot types.Snapshot) (*types.HTMLResult, error) {
	return a.fetcher.GetSnapshotHTML(ctx, snapshot)
}

// Test implements archive.Adapter.
func (a *Adapter) Test(ctx context.Context, target string) (*types.TestOutcome, error) {
	return a.TestWayback(ctx, target)
}

// TestWayback lists up to TestLimit snapshots of target and, when any exist,
// fetches the first one in index order. Failures are returned as TestErrors.
func (a *Adapter) TestWayback(ctx context.Context, target string) (*types.TestOutcome, error) {
	log := tracelog.FromContext(ctx)
	log.Infow("starting wayback test", "target", target)

	snapshots, err := a.GetSnapshots(ctx, target, TestLimit)
	if err != nil {
		log.Errorw("wayback test failed", "stage", "list snapshots", "error", err)
		return nil, ierrors.NewTestError(target, err)
	}

	if len(snapshots) == 0 {
		log.Infow("no snapshots found", "target", target)
		return &types.TestOutcome{
			Target:         target,
			SnapshotsCount: 0,
		}, nil
	}

	first := snapshots[0]
	log.Infow("using first snapshot", "timestamp", first.Timestamp, "original_url", first.OriginalURL)

	html, err := a.GetSnapshotHTML(ctx, first)
	if err != nil {
		log.Errorw("wayback test failed", "stage", "fetch snapshot", "error", err)
		return nil, ierrors.NewTestError(target, err)
	}

	length := html.Length
	log.Infow("wayback test completed", "snapshots", len(snapshots), "html_length", length)

	return &types.TestOutcome{
		Target:                  target,
		SnapshotsCount:          len(snapshots),
		FirstSnapshotTimestamp:  first.Timestamp,
		FirstSnapshotURL:        first.OriginalURL,
		FirstSnapshotHTMLLength: &length,
		FirstSnapshotWaybackURL: html.SnapshotURL,
	}, nil
}
