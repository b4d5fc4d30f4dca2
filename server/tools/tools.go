package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	mcp "github.com/metoro-io/mcp-golang"

	"github.com/cnosuke/mcp-wayback/types"
)

// Wayback is the adapter surface used by the tools.
type Wayback interface {
	CanHandle(target string) bool
	TestWayback(ctx context.Context, target string) (*types.TestOutcome, error)
	GetSnapshots(ctx context.Context, target string, limit int) ([]types.Snapshot, error)
	Content(ctx context.Context, snapshot types.Snapshot) (*types.ContentResponse, error)
}

// Options - Settings shared by all tools
type Options struct {
	Timeout          time.Duration // Upper bound for one tool call
	DefaultLimit     int
	DefaultMaxLength int
}

// RegisterAllTools - Register all tools with the server
func RegisterAllTools(mcpServer *mcp.Server, wb Wayback, opts Options) error {
	if err := RegisterWaybackTestTool(mcpServer, wb, opts); err != nil {
		return err
	}
	if err := RegisterSnapshotsTool(mcpServer, wb, opts); err != nil {
		return err
	}
	if err := RegisterContentTool(mcpServer, wb, opts); err != nil {
		return err
	}
	return nil
}

func (o Options) context() (context.Context, context.CancelFunc) {
	if o.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), o.Timeout)
}

func toJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal response to JSON")
	}
	return string(b), nil
}

func textResponse(text string) *mcp.ToolResponse {
	return mcp.NewToolResponse(mcp.NewTextContent(text))
}

// trimContent helper function to trim content based on startIndex and maxLength
func trimContent(content string, startIndex int, maxLength int) string {
	contentLength := len(content)
	if startIndex < 0 {
		startIndex = 0
	}
	if startIndex >= contentLength {
		return ""
	}
	endIndex := contentLength
	if maxLength > 0 {
		potentialEndIndex := startIndex + maxLength
		if potentialEndIndex < endIndex {
			endIndex = potentialEndIndex
		}
	}
	return content[startIndex:endIndex]
}
