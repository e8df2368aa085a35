package tools

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Handler executes one tool call. The returned string becomes the result
// text; an error is rendered as a "✗ Error: ..." payload for the model and
// never propagates as a protocol failure.
type Handler func(ctx context.Context, cc CallContext, args map[string]interface{}) (string, error)

// Hook mutates tool arguments before dispatch. Pattern is matched against
// the fully qualified name mcp__<server>__<tool>.
type Hook struct {
	Pattern *regexp.Regexp
	Apply   func(cc CallContext, args map[string]interface{})
}

// pmProjectHook forces the caller's project_id into pm_management calls so
// the model cannot forge it.
var pmProjectHook = Hook{
	Pattern: regexp.MustCompile(`.*pm_management__.*`),
	Apply: func(cc CallContext, args map[string]interface{}) {
		args["project_id"] = cc.ProjectID
	},
}

// Dispatcher resolves the caller, runs argument hooks, and invokes tool
// handlers.
type Dispatcher struct {
	resolve func(ctx context.Context, sessionID string) (CallContext, error)
	hooks   []Hook
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher with the given caller resolver.
func NewDispatcher(resolve func(ctx context.Context, sessionID string) (CallContext, error), logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		resolve: resolve,
		hooks:   []Hook{pmProjectHook},
		logger:  logger,
	}
}

// Wrap adapts a Handler into an MCP tool handler for the named server.
func (d *Dispatcher) Wrap(serverName, toolName string, h Handler) server.ToolHandlerFunc {
	fullName := fmt.Sprintf("mcp__%s__%s", serverName, toolName)
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sid := sessionIDFrom(ctx)
		if sid == "" {
			return errorResult("missing session identity"), nil
		}
		cc, err := d.resolve(ctx, sid)
		if err != nil {
			return errorResult(fmt.Sprintf("unknown calling session: %v", err)), nil
		}

		args := req.GetArguments()
		if args == nil {
			args = map[string]interface{}{}
		}
		for _, hook := range d.hooks {
			if hook.Pattern.MatchString(fullName) {
				hook.Apply(cc, args)
			}
		}

		text, err := h(ctx, cc, args)
		if err != nil {
			d.logger.Warn("tool call failed",
				"tool", fullName,
				"session_id", cc.SessionID,
				"error", err)
			return errorResult(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultText("✗ Error: " + msg)
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func numberArg(args map[string]interface{}, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
