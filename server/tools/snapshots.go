package tools

import (
	"context"

	"github.com/cockroachdb/errors"
	mcp "github.com/metoro-io/mcp-golang"
	"go.uber.org/zap"

	"github.com/cnosuke/mcp-wayback/types"
)

// SnapshotsArgs - Arguments for wayback_snapshots tool
type SnapshotsArgs struct {
	Target string `json:"target" jsonschema:"description=URL or domain to look up,required=true"`
	Limit  int    `json:"limit,omitempty" jsonschema:"description=Maximum number of snapshots to return"`
}

// RegisterSnapshotsTool - Register the wayback_snapshots tool
func RegisterSnapshotsTool(mcpServer *mcp.Server, wb Wayback, opts Options) error {
	zap.S().Debugw("registering wayback_snapshots tool", "default_limit", opts.DefaultLimit)
	err := mcpServer.RegisterTool("wayback_snapshots",
		"Lists archived Wayback Machine snapshots (timestamp and original URL) of a URL or domain, oldest first",
		func(args SnapshotsArgs) (*mcp.ToolResponse, error) {
			ctx, cancel := opts.context()
			defer cancel()

			text, err := runSnapshots(ctx, wb, opts, args)
			if err != nil {
				return nil, err
			}
			return textResponse(text), nil
		})
	if err != nil {
		zap.S().Errorw("failed to register wayback_snapshots tool", "error", err)
		return errors.Wrap(err, "failed to register wayback_snapshots tool")
	}
	return nil
}

func runSnapshots(ctx context.Context, wb Wayback, opts Options, args SnapshotsArgs) (string, error) {
	zap.S().Infow("executing wayback_snapshots", "target", args.Target, "limit", args.Limit)

	if !wb.CanHandle(args.Target) {
		return "", errors.New("target is required")
	}
	limit := args.Limit
	if limit <= 0 {
		limit = opts.DefaultLimit
	}

	snapshots, err := wb.GetSnapshots(ctx, args.Target, limit)
	if err != nil {
		zap.S().Errorw("failed to list snapshots", "target", args.Target, "error", err)
		return "", errors.Wrap(err, "failed to list snapshots")
	}

	return toJSON(&types.SnapshotsResponse{
		Target:    args.Target,
		Count:     len(snapshots),
		Snapshots: snapshots,
	})
}
