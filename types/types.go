package types

// Snapshot - A single capture listed by the CDX index
type Snapshot struct {
	Timestamp   string `json:"timestamp"` // 14-digit format: YYYYMMDDhhmmss
	OriginalURL string `json:"originalUrl"`
}

// HTMLResult - Archived page fetched for a snapshot
type HTMLResult struct {
	Length      int    `json:"length"`
	SnapshotURL string `json:"snapshotUrl"`
	Body        string `json:"-"` // Kept for content extraction
	ContentType string `json:"-"`
}

// TestOutcome - Result of a wayback test run.
// The first-snapshot fields are set only when at least one snapshot exists.
type TestOutcome struct {
	Target                  string `json:"target"`
	SnapshotsCount          int    `json:"snapshotsCount"`
	FirstSnapshotTimestamp  string `json:"firstSnapshotTimestamp,omitempty"`
	FirstSnapshotURL        string `json:"firstSnapshotUrl,omitempty"`
	FirstSnapshotHTMLLength *int   `json:"firstSnapshotHtmlLength,omitempty"`
	FirstSnapshotWaybackURL string `json:"firstSnapshotWaybackUrl,omitempty"`
}

// APIResponse - Envelope returned by the HTTP API and the CLI
type APIResponse struct {
	Success bool           `json:"success"`
	Data    []*TestOutcome `json:"data,omitempty"`
	Message string         `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
	Logs    []string       `json:"logs"`
}

// SnapshotsResponse - Snapshot listing for a target
type SnapshotsResponse struct {
	Target    string     `json:"target"`
	Count     int        `json:"count"`
	Snapshots []Snapshot `json:"snapshots"`
}

// ContentResponse - Readable content of an archived snapshot
type ContentResponse struct {
	Snapshot    Snapshot `json:"snapshot"`
	SnapshotURL string   `json:"snapshotUrl"`
	Title       string   `json:"title,omitempty"`
	Content     string   `json:"content"`
	// Length is the byte length of the archived HTML, not of Content.
	Length int `json:"length"`
}
