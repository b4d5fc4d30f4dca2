package tools

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	mcp "github.com/metoro-io/mcp-golang"
	"go.uber.org/zap"

	"github.com/cnosuke/mcp-wayback/types"
)

// ContentArgs - Arguments for wayback_content tool
type ContentArgs struct {
	Timestamp  string `json:"timestamp" jsonschema:"description=Snapshot timestamp (YYYYMMDDhhmmss),required=true"`
	URL        string `json:"url" jsonschema:"description=Original URL of the snapshot,required=true"`
	MaxLength  int    `json:"max_length,omitempty" jsonschema:"description=Maximum number of characters to return"`
	StartIndex int    `json:"start_index,omitempty" jsonschema:"description=Start content from this character index"`
}

// RegisterContentTool - Register the wayback_content tool
func RegisterContentTool(mcpServer *mcp.Server, wb Wayback, opts Options) error {
	zap.S().Debugw("registering wayback_content tool", "default_max_length", opts.DefaultMaxLength)
	err := mcpServer.RegisterTool("wayback_content",
		fmt.Sprintf("Fetches an archived Wayback Machine snapshot and extracts its contents as markdown. Default max_length is %d.", opts.DefaultMaxLength),
		func(args ContentArgs) (*mcp.ToolResponse, error) {
			ctx, cancel := opts.context()
			defer cancel()

			text, err := runContent(ctx, wb, opts, args)
			if err != nil {
				return nil, err
			}
			return textResponse(text), nil
		})
	if err != nil {
		zap.S().Errorw("failed to register wayback_content tool", "error", err)
		return errors.Wrap(err, "failed to register wayback_content tool")
	}
	return nil
}

func runContent(ctx context.Context, wb Wayback, opts Options, args ContentArgs) (string, error) {
	zap.S().Infow("executing wayback_content",
		"timestamp", args.Timestamp,
		"url", args.URL,
		"max_length", args.MaxLength,
		"start_index", args.StartIndex)

	if args.Timestamp == "" || args.URL == "" {
		return "", errors.New("timestamp and url are required")
	}
	maxLength := args.MaxLength
	if maxLength <= 0 {
		maxLength = opts.DefaultMaxLength
	}

	res, err := wb.Content(ctx, types.Snapshot{Timestamp: args.Timestamp, OriginalURL: args.URL})
	if err != nil {
		zap.S().Errorw("failed to read snapshot content", "url", args.URL, "error", err)
		return "", errors.Wrap(err, "failed to read snapshot content")
	}

	trimmed := trimContent(res.Content, args.StartIndex, maxLength)
	if len(trimmed) != len(res.Content) {
		zap.S().Debugw("content trimmed",
			"original_length", len(res.Content),
			"start_index", args.StartIndex,
			"trimmed_length", len(trimmed))
	}
	res.Content = trimmed

	return toJSON(res)
}
