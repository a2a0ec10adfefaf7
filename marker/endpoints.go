package marker

import (
	"context"

	"github.com/hazyhaar/rangewrap/kit"
)

type openRequest struct {
	HTML string `json:"html"`
}

type docRequest struct {
	DocID string `json:"doc_id"`
}

type selectRequest struct {
	DocID string    `json:"doc_id"`
	Range RangeSpec `json:"range"`
}

type unwrapRequest struct {
	DocID   string `json:"doc_id"`
	GroupID string `json:"group_id"`
}

type statusResponse struct {
	Status string `json:"status"`
	DocID  string `json:"doc_id,omitempty"`
}

// endpoint builds the logged kit.Endpoint of one operation; the HTTP and
// MCP surfaces both go through it.
func (m *Marker) endpoint(name string, fn kit.Endpoint) kit.Endpoint {
	return kit.Logged(m.logger, name)(fn)
}

func (m *Marker) openEndpoint() kit.Endpoint {
	return m.endpoint("open", func(ctx context.Context, req any) (any, error) {
		return m.Open(ctx, req.(*openRequest).HTML)
	})
}

func (m *Marker) closeEndpoint() kit.Endpoint {
	return m.endpoint("close", func(ctx context.Context, req any) (any, error) {
		r := req.(*docRequest)
		if err := m.Close(ctx, r.DocID); err != nil {
			return nil, err
		}
		return &statusResponse{Status: "closed", DocID: r.DocID}, nil
	})
}

func (m *Marker) renderEndpoint() kit.Endpoint {
	return m.endpoint("render", func(ctx context.Context, req any) (any, error) {
		return m.Render(ctx, req.(*docRequest).DocID)
	})
}

func (m *Marker) selectEndpoint() kit.Endpoint {
	return m.endpoint("select", func(ctx context.Context, req any) (any, error) {
		r := req.(*selectRequest)
		return m.Select(ctx, r.DocID, r.Range)
	})
}

func (m *Marker) highlightEndpoint() kit.Endpoint {
	return m.endpoint("highlight", func(ctx context.Context, req any) (any, error) {
		return m.Highlight(ctx, *req.(*HighlightRequest))
	})
}

func (m *Marker) unwrapEndpoint() kit.Endpoint {
	return m.endpoint("unwrap", func(ctx context.Context, req any) (any, error) {
		r := req.(*unwrapRequest)
		return m.Unwrap(ctx, r.DocID, r.GroupID)
	})
}

func (m *Marker) listEndpoint() kit.Endpoint {
	return m.endpoint("list", func(ctx context.Context, req any) (any, error) {
		return m.Highlights(ctx, req.(*docRequest).DocID)
	})
}

func (m *Marker) resetEndpoint() kit.Endpoint {
	return m.endpoint("reset", func(ctx context.Context, req any) (any, error) {
		r := req.(*docRequest)
		if err := m.ResetCounter(ctx, r.DocID); err != nil {
			return nil, err
		}
		return &statusResponse{Status: "reset", DocID: r.DocID}, nil
	})
}

func (m *Marker) exportEndpoint() kit.Endpoint {
	return m.endpoint("export", func(ctx context.Context, req any) (any, error) {
		return m.ExportMarkdown(ctx, req.(*docRequest).DocID)
	})
}
