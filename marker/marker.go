// CLAUDE:SUMMARY Marker service: in-memory document sessions that highlight ranges, unwrap groups and journal every tree mutation.
// Package marker serves reversible text highlighting over HTML documents.
//
// Each opened document is an independent session with its own tree,
// highlight id counter and mutation journal. Every operation that changes
// a tree returns the mutation batch it produced.
//
// Usage:
//
//	m := marker.New(marker.Config{})
//	info, err := m.Open(ctx, page)
//	res, err := m.Highlight(ctx, marker.HighlightRequest{
//	    DocID: info.ID,
//	    Style: "background:yellow",
//	    Range: &marker.RangeSpec{Find: "some words"},
//	})
//	m.RegisterMCP(srv)
//	m.RegisterHTTP(router)
package marker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/rangewrap/dom"
	"github.com/hazyhaar/rangewrap/highlight"
	"github.com/hazyhaar/rangewrap/idgen"
	"github.com/hazyhaar/rangewrap/mutation"
)

// Marker holds the open documents.
type Marker struct {
	cfg       Config
	logger    *slog.Logger
	newDocID  idgen.Generator
	newBatch  idgen.Generator
	sanitizer *bluemonday.Policy
	md        *converter.Converter

	mu   sync.Mutex
	docs map[string]*session
}

// session is one open document. mu serialises every operation on it.
type session struct {
	mu      sync.Mutex
	id      string
	doc     *dom.Document
	ids     *idgen.Counter
	wrapper *highlight.Wrapper
	journal *mutation.Journal
	created time.Time
}

// New creates a Marker with the given configuration.
func New(cfg Config) *Marker {
	cfg.defaults()
	m := &Marker{
		cfg:      cfg,
		logger:   cfg.Logger,
		newDocID: idgen.Prefixed("doc_", idgen.Default),
		newBatch: idgen.Prefixed("mut_", idgen.Default),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		docs: make(map[string]*session),
	}
	if cfg.Sanitize {
		p := bluemonday.UGCPolicy()
		p.AllowDataAttributes()
		m.sanitizer = p
	}
	return m
}

// Config returns the effective configuration.
func (m *Marker) Config() Config {
	return m.cfg
}

// Open parses page and starts a document session.
func (m *Marker) Open(ctx context.Context, page string) (*DocumentInfo, error) {
	if int64(len(page)) > m.cfg.MaxDocumentSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrDocumentTooLarge, len(page), m.cfg.MaxDocumentSize)
	}
	if m.sanitizer != nil {
		page = m.sanitizer.Sanitize(page)
	}
	doc, err := dom.ParseString(page)
	if err != nil {
		return nil, err
	}

	s := &session{
		id:      m.newDocID(),
		doc:     doc,
		ids:     idgen.NewCounter(),
		created: time.Now(),
	}
	s.wrapper = highlight.New(highlight.Options{
		Tag:  m.cfg.Wrapper.Tag,
		Attr: m.cfg.Wrapper.Attr,
		IDs:  s.ids,
	})
	s.journal = mutation.NewJournal(s.id, m.newBatch)
	doc.Observe(s.journal.Add)

	m.mu.Lock()
	if len(m.docs) >= m.cfg.MaxDocuments {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %d open", ErrTooManyDocuments, m.cfg.MaxDocuments)
	}
	m.docs[s.id] = s
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "marker: document opened", "doc_id", s.id, "bytes", len(page))
	return s.info(), nil
}

func (s *session) info() *DocumentInfo {
	rendered := s.doc.String()
	return &DocumentInfo{
		ID:         s.id,
		Hash:       mutation.HashHTML([]byte(rendered)),
		Size:       len(rendered),
		Highlights: len(s.wrapper.Highlights(s.doc)),
		CreatedAt:  s.created.UnixMilli(),
	}
}

// lookup returns the locked session docID. The caller must unlock it.
func (m *Marker) lookup(docID string) (*session, error) {
	m.mu.Lock()
	s, ok := m.docs[docID]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
	}
	s.mu.Lock()
	return s, nil
}

// Close drops a document session.
func (m *Marker) Close(ctx context.Context, docID string) error {
	m.mu.Lock()
	_, ok := m.docs[docID]
	delete(m.docs, docID)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
	}
	m.logger.InfoContext(ctx, "marker: document closed", "doc_id", docID)
	return nil
}

// Documents lists the open documents.
func (m *Marker) Documents(ctx context.Context) []*DocumentInfo {
	m.mu.Lock()
	sessions := make([]*session, 0, len(m.docs))
	for _, s := range m.docs {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	out := make([]*DocumentInfo, 0, len(sessions))
	for _, s := range sessions {
		s.mu.Lock()
		out = append(out, s.info())
		s.mu.Unlock()
	}
	return out
}

// Info describes an open document.
func (m *Marker) Info(ctx context.Context, docID string) (*DocumentInfo, error) {
	s, err := m.lookup(docID)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	return s.info(), nil
}

// Render returns the serialised document with its highlights.
func (m *Marker) Render(ctx context.Context, docID string) (string, error) {
	s, err := m.lookup(docID)
	if err != nil {
		return "", err
	}
	defer s.mu.Unlock()
	return s.doc.String(), nil
}

// Select makes spec the document's selection, used by highlights that
// carry no range of their own.
func (m *Marker) Select(ctx context.Context, docID string, spec RangeSpec) (*RangeInfo, error) {
	s, err := m.lookup(docID)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	r, err := resolveRange(s.doc, &spec)
	if err != nil {
		return nil, err
	}
	s.doc.Selection().SetRange(r)
	return describeRange(r), nil
}

// Highlight wraps the text of the requested range. A range covering no
// text yields a result without ID and an empty batch.
func (m *Marker) Highlight(ctx context.Context, req HighlightRequest) (*HighlightResult, error) {
	s, err := m.lookup(req.DocID)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	var rng *dom.Range
	if req.Range != nil {
		if rng, err = resolveRange(s.doc, req.Range); err != nil {
			return nil, err
		}
	}
	style := req.Style
	if style == "" {
		style = m.cfg.DefaultStyle
	}

	h, err := s.wrapper.Wrap(s.doc, style, rng)
	if err != nil {
		// Partially wrapped text stays in the tree; its records go out with
		// the next batch.
		if errors.Is(err, highlight.ErrNoRange) {
			return nil, fmt.Errorf("%w: no range given and nothing selected", ErrInvalidRange)
		}
		m.logger.WarnContext(ctx, "marker: highlight failed",
			"doc_id", s.id, "error", err, "pending_records", s.journal.Pending())
		return nil, err
	}

	res := &HighlightResult{Batch: s.journal.Flush()}
	if h == nil {
		m.logger.DebugContext(ctx, "marker: nothing to highlight", "doc_id", s.id)
		return res, nil
	}
	res.ID = h.ID
	res.Text = h.Text()
	for _, n := range h.Wrappers {
		res.Wrappers = append(res.Wrappers, dom.XPath(n))
	}
	if rng == nil {
		rng, _ = s.doc.Selection().RangeAt(0)
	}
	if rng != nil {
		res.Range = describeRange(rng)
	}
	m.logger.InfoContext(ctx, "marker: highlight",
		"doc_id", s.id, "group", h.ID, "wrappers", len(h.Wrappers), "records", len(res.Batch.Records))
	return res, nil
}

// Unwrap removes every wrapper of highlight group groupID.
func (m *Marker) Unwrap(ctx context.Context, docID, groupID string) (*UnwrapResult, error) {
	s, err := m.lookup(docID)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	n := s.wrapper.UnwrapGroup(s.doc, groupID)
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	res := &UnwrapResult{ID: groupID, Removed: n, Batch: s.journal.Flush()}
	m.logger.InfoContext(ctx, "marker: unwrap",
		"doc_id", s.id, "group", groupID, "wrappers", n, "records", len(res.Batch.Records))
	return res, nil
}

// ResetCounter restarts the document's highlight ids from "1".
func (m *Marker) ResetCounter(ctx context.Context, docID string) error {
	s, err := m.lookup(docID)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.wrapper.ResetCounter()
	return nil
}

// Highlights lists the highlight groups of a document in document order.
func (m *Marker) Highlights(ctx context.Context, docID string) ([]Group, error) {
	s, err := m.lookup(docID)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	hs := s.wrapper.Highlights(s.doc)
	out := make([]Group, 0, len(hs))
	for _, h := range hs {
		g := Group{ID: h.ID, Text: h.Text()}
		for _, n := range h.Wrappers {
			g.Wrappers = append(g.Wrappers, dom.XPath(n))
		}
		out = append(out, g)
	}
	return out, nil
}
