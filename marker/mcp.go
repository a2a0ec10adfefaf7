// CLAUDE:SUMMARY Registers the marker MCP tools: open, close, render, select, highlight, unwrap, list, reset, export.
package marker

import (
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/rangewrap/kit"
)

// RegisterMCP registers marker tools on an MCP server.
func (m *Marker) RegisterMCP(srv *mcp.Server) {
	docID := map[string]any{"type": "string", "description": "Document ID returned by marker_open"}

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "marker_open",
		Description: "Open an HTML document for highlighting. Returns its document ID.",
		InputSchema: inputSchema(map[string]any{
			"html": map[string]any{"type": "string", "description": "HTML source"},
		}, []string{"html"}),
	}, m.openEndpoint(), decodeArgs[openRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "marker_close",
		Description: "Close an open document and drop its highlights.",
		InputSchema: inputSchema(map[string]any{"doc_id": docID}, []string{"doc_id"}),
	}, m.closeEndpoint(), decodeArgs[docRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "marker_render",
		Description: "Return the document HTML including highlight wrappers.",
		InputSchema: inputSchema(map[string]any{"doc_id": docID}, []string{"doc_id"}),
	}, m.renderEndpoint(), decodeArgs[docRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "marker_select",
		Description: "Set the document selection; marker_highlight without a range highlights it.",
		InputSchema: inputSchema(map[string]any{
			"doc_id": docID,
			"range":  rangeSchema(),
		}, []string{"doc_id", "range"}),
	}, m.selectEndpoint(), decodeArgs[selectRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name: "marker_highlight",
		Description: "Highlight the text of a range. The range is found by text search (find), " +
			"character offsets (text), or XPath boundary points (start/end). " +
			"Returns the highlight group ID and the tree mutations made.",
		InputSchema: inputSchema(map[string]any{
			"doc_id": docID,
			"style":  map[string]any{"type": "string", "description": "CSS applied verbatim to every wrapper"},
			"range":  rangeSchema(),
		}, []string{"doc_id"}),
	}, m.highlightEndpoint(), decodeArgs[HighlightRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "marker_unwrap",
		Description: "Remove every wrapper of a highlight group, restoring the original text.",
		InputSchema: inputSchema(map[string]any{
			"doc_id":   docID,
			"group_id": map[string]any{"type": "string", "description": "Highlight group ID"},
		}, []string{"doc_id", "group_id"}),
	}, m.unwrapEndpoint(), decodeArgs[unwrapRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "marker_list",
		Description: "List the highlight groups of a document in document order.",
		InputSchema: inputSchema(map[string]any{"doc_id": docID}, []string{"doc_id"}),
	}, m.listEndpoint(), decodeArgs[docRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "marker_reset",
		Description: "Restart highlight group IDs of a document from 1.",
		InputSchema: inputSchema(map[string]any{"doc_id": docID}, []string{"doc_id"}),
	}, m.resetEndpoint(), decodeArgs[docRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "marker_export",
		Description: "Export the highlights of a document as Markdown.",
		InputSchema: inputSchema(map[string]any{"doc_id": docID}, []string{"doc_id"}),
	}, m.exportEndpoint(), decodeArgs[docRequest])
}

// decodeArgs unmarshals tool arguments into a fresh T.
func decodeArgs[T any](req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var r T
	if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
		return nil, err
	}
	return &kit.MCPDecodeResult{Request: &r}, nil
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func rangeSchema() map[string]any {
	boundary := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"xpath":  map[string]any{"type": "string"},
			"offset": map[string]any{"type": "integer"},
		},
		"required": []string{"xpath", "offset"},
	}
	return map[string]any{
		"type":        "object",
		"description": "Range to highlight; omit to use the current selection",
		"properties": map[string]any{
			"root":     map[string]any{"type": "string", "description": "XPath of the subtree searched by find/text (default body)"},
			"selector": map[string]any{"type": "string", "description": "CSS selector alternative to root"},
			"find":     map[string]any{"type": "string", "description": "Highlight the first occurrence of this text"},
			"text": map[string]any{
				"type":        "object",
				"description": "Character offsets [start, end) into the subtree text",
				"properties": map[string]any{
					"start": map[string]any{"type": "integer"},
					"end":   map[string]any{"type": "integer"},
				},
				"required": []string{"start", "end"},
			},
			"start": boundary,
			"end":   boundary,
		},
	}
}
