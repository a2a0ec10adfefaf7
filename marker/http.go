// CLAUDE:SUMMARY Chi REST surface of the marker service: documents, selection, highlights, unwrap, reset and Markdown export.
package marker

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/rangewrap/shield"
)

// RegisterHTTP mounts the marker routes on r.
//
//	POST   /documents                              open (text/html body or {"html": ...})
//	GET    /documents                              list open documents
//	GET    /documents/{docID}                      rendered HTML
//	DELETE /documents/{docID}                      close
//	POST   /documents/{docID}/selection            set the selection
//	GET    /documents/{docID}/highlights           list groups
//	POST   /documents/{docID}/highlights           highlight {style, range}
//	DELETE /documents/{docID}/highlights/{groupID} unwrap a group
//	POST   /documents/{docID}/highlights/reset     restart group ids
//	GET    /documents/{docID}/export.md            Markdown export
//	GET    /health
func (m *Marker) RegisterHTTP(r chi.Router) {
	open := m.openEndpoint()
	closeDoc := m.closeEndpoint()
	render := m.renderEndpoint()
	sel := m.selectEndpoint()
	hl := m.highlightEndpoint()
	unwrap := m.unwrapEndpoint()
	list := m.listEndpoint()
	reset := m.resetEndpoint()
	export := m.exportEndpoint()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"documents": len(m.Documents(r.Context())),
		})
	})

	r.Route("/documents", func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			page, err := readDocument(r)
			if err != nil {
				writeError(w, r, err)
				return
			}
			resp, err := open(r.Context(), &openRequest{HTML: page})
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusCreated, resp)
		})

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, m.Documents(r.Context()))
		})

		r.Route("/{docID}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				resp, err := render(r.Context(), &docRequest{DocID: chi.URLParam(r, "docID")})
				if err != nil {
					writeError(w, r, err)
					return
				}
				writeText(w, "text/html; charset=utf-8", resp.(string))
			})

			r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
				if _, err := closeDoc(r.Context(), &docRequest{DocID: chi.URLParam(r, "docID")}); err != nil {
					writeError(w, r, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			r.Post("/selection", func(w http.ResponseWriter, r *http.Request) {
				req := &selectRequest{DocID: chi.URLParam(r, "docID")}
				if err := decodeJSON(r, &req.Range); err != nil {
					writeError(w, r, err)
					return
				}
				resp, err := sel(r.Context(), req)
				if err != nil {
					writeError(w, r, err)
					return
				}
				writeJSON(w, http.StatusOK, resp)
			})

			r.Get("/highlights", func(w http.ResponseWriter, r *http.Request) {
				resp, err := list(r.Context(), &docRequest{DocID: chi.URLParam(r, "docID")})
				if err != nil {
					writeError(w, r, err)
					return
				}
				writeJSON(w, http.StatusOK, resp)
			})

			r.Post("/highlights", func(w http.ResponseWriter, r *http.Request) {
				req := &HighlightRequest{}
				if err := decodeJSON(r, req); err != nil {
					writeError(w, r, err)
					return
				}
				req.DocID = chi.URLParam(r, "docID")
				resp, err := hl(r.Context(), req)
				if err != nil {
					writeError(w, r, err)
					return
				}
				code := http.StatusOK
				if resp.(*HighlightResult).ID != "" {
					code = http.StatusCreated
				}
				writeJSON(w, code, resp)
			})

			r.Post("/highlights/reset", func(w http.ResponseWriter, r *http.Request) {
				if _, err := reset(r.Context(), &docRequest{DocID: chi.URLParam(r, "docID")}); err != nil {
					writeError(w, r, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			r.Delete("/highlights/{groupID}", func(w http.ResponseWriter, r *http.Request) {
				resp, err := unwrap(r.Context(), &unwrapRequest{
					DocID:   chi.URLParam(r, "docID"),
					GroupID: chi.URLParam(r, "groupID"),
				})
				if err != nil {
					writeError(w, r, err)
					return
				}
				writeJSON(w, http.StatusOK, resp)
			})

			r.Get("/export.md", func(w http.ResponseWriter, r *http.Request) {
				resp, err := export(r.Context(), &docRequest{DocID: chi.URLParam(r, "docID")})
				if err != nil {
					writeError(w, r, err)
					return
				}
				writeText(w, "text/markdown; charset=utf-8", resp.(string))
			})
		})
	})
}

// readDocument returns the HTML of an open request: the raw body for
// text/html, the "html" field of a JSON body otherwise.
func readDocument(r *http.Request) (string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "text/html") {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return "", bodyError(err)
		}
		return string(data), nil
	}
	var req openRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", err
	}
	return req.HTML, nil
}

var errBadRequest = errors.New("marker: bad request")

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return bodyError(err)
	}
	return nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: body exceeds %d bytes", ErrDocumentTooLarge, tooLarge.Limit)
	}
	return fmt.Errorf("%w: %w", errBadRequest, err)
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, ErrDocumentNotFound), errors.Is(err, ErrGroupNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrTooManyDocuments):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrInvalidRange), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := httpStatus(err)
	if code >= http.StatusInternalServerError {
		shield.GetLogger(r.Context()).Error("marker: request failed", "status", code, "error", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeText(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, body)
}
