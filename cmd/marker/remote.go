package main

import (
	"context"

	"github.com/hazyhaar/rangewrap/marker"
	"github.com/hazyhaar/rangewrap/mcpquic"
)

// highlighter is what one-shot mode needs from a marker, local or remote.
type highlighter interface {
	Open(ctx context.Context, page string) (*marker.DocumentInfo, error)
	Close(ctx context.Context, docID string) error
	Highlight(ctx context.Context, req marker.HighlightRequest) (*marker.HighlightResult, error)
	Render(ctx context.Context, docID string) (string, error)
	ExportMarkdown(ctx context.Context, docID string) (string, error)
}

// remoteMarker runs marker operations through the marker_* tools of a
// server reached over MCP QUIC.
type remoteMarker struct {
	c *mcpquic.Client
}

type docArgs struct {
	DocID string `json:"doc_id"`
}

func (r *remoteMarker) Open(ctx context.Context, page string) (*marker.DocumentInfo, error) {
	var info marker.DocumentInfo
	if err := r.c.CallJSON(ctx, "marker_open", map[string]string{"html": page}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *remoteMarker) Close(ctx context.Context, docID string) error {
	_, err := r.c.Call(ctx, "marker_close", docArgs{docID})
	return err
}

func (r *remoteMarker) Highlight(ctx context.Context, req marker.HighlightRequest) (*marker.HighlightResult, error) {
	var res marker.HighlightResult
	if err := r.c.CallJSON(ctx, "marker_highlight", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *remoteMarker) Render(ctx context.Context, docID string) (string, error) {
	return r.c.Call(ctx, "marker_render", docArgs{docID})
}

func (r *remoteMarker) ExportMarkdown(ctx context.Context, docID string) (string, error) {
	return r.c.Call(ctx, "marker_export", docArgs{docID})
}
