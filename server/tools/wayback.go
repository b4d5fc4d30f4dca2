package tools

import (
	"context"

	"github.com/cockroachdb/errors"
	mcp "github.com/metoro-io/mcp-golang"
	"go.uber.org/zap"
)

// WaybackTestArgs - Arguments for wayback_test tool
type WaybackTestArgs struct {
	Target string `json:"target" jsonschema:"description=URL or domain to look up in the Wayback Machine,required=true"`
}

// RegisterWaybackTestTool - Register the wayback_test tool
func RegisterWaybackTestTool(mcpServer *mcp.Server, wb Wayback, opts Options) error {
	zap.S().Debugw("registering wayback_test tool")
	err := mcpServer.RegisterTool("wayback_test",
		"Lists up to 5 Wayback Machine snapshots of a URL or domain, fetches the first one and reports its metadata",
		func(args WaybackTestArgs) (*mcp.ToolResponse, error) {
			ctx, cancel := opts.context()
			defer cancel()

			text, err := runWaybackTest(ctx, wb, args)
			if err != nil {
				return nil, err
			}
			return textResponse(text), nil
		})
	if err != nil {
		zap.S().Errorw("failed to register wayback_test tool", "error", err)
		return errors.Wrap(err, "failed to register wayback_test tool")
	}
	return nil
}

func runWaybackTest(ctx context.Context, wb Wayback, args WaybackTestArgs) (string, error) {
	zap.S().Infow("executing wayback_test", "target", args.Target)

	if !wb.CanHandle(args.Target) {
		return "", errors.New("target is required")
	}

	outcome, err := wb.TestWayback(ctx, args.Target)
	if err != nil {
		zap.S().Errorw("wayback test failed", "target", args.Target, "error", err)
		return "", err
	}
	return toJSON(outcome)
}
