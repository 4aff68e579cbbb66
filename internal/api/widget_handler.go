package api

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/guezito-dev/gigachads/internal/ranking"
	"github.com/guezito-dev/gigachads/internal/widget"
)

const (
	tableContainer   = "gigachadsTable"
	unavailableError = "Failed to load Giga Chads data. Please try again later."
	renderError      = "Unable to load activities. Please try again later."
)

var containerPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,63}$`)

// FeedSource gathers the items shown by an activity widget
type FeedSource interface {
	Recent(ctx context.Context, art *ranking.Artifact, spec widget.FeedSpec) ([]widget.Item, error)
}

// WidgetHandler serves the HTML fragments embedded by the public pages
type WidgetHandler struct {
	loader   ArtifactLoader
	feeds    FeedSource
	renderer *widget.Renderer
}

func NewWidgetHandler(loader ArtifactLoader, feeds FeedSource, renderer *widget.Renderer) *WidgetHandler {
	return &WidgetHandler{loader: loader, feeds: feeds, renderer: renderer}
}

// Table handles GET /widgets/table?sort=&order=&container=
func (h *WidgetHandler) Table(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	container := containerID(q.Get("container"), tableContainer)

	art, ok := h.load(w, r, container)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Table(&buf, art, q.Get("sort"), q.Get("order"), container); err != nil {
		slog.Error("Failed to render ranking table", "error", err)
		h.renderPanel(w, http.StatusInternalServerError, renderError, container)
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

// Feed returns the handler for one activity widget
func (h *WidgetHandler) Feed(spec widget.FeedSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		container := containerID(r.URL.Query().Get("container"), spec.Container)

		art, ok := h.load(w, r, container)
		if !ok {
			return
		}

		items, err := h.feeds.Recent(r.Context(), art, spec)
		if err != nil {
			// only cancellation; the client has gone away
			slog.Debug("Widget request cancelled", "widget", spec.Name, "error", err)
			return
		}

		var buf bytes.Buffer
		if err := h.renderer.Feed(&buf, spec, items, container); err != nil {
			slog.Error("Failed to render widget", "widget", spec.Name, "error", err)
			h.renderPanel(w, http.StatusInternalServerError, renderError, container)
			return
		}
		writeHTML(w, http.StatusOK, buf.Bytes())
	}
}

func (h *WidgetHandler) load(w http.ResponseWriter, r *http.Request, container string) (*ranking.Artifact, bool) {
	art, err := h.loader.Load(r.Context())
	if err == nil {
		return art, true
	}

	status := http.StatusInternalServerError
	if errors.Is(err, widget.ErrDataUnavailable) {
		status = http.StatusServiceUnavailable
	}
	slog.Warn("Widget data unavailable", "path", r.URL.Path, "error", err)
	h.renderPanel(w, status, unavailableError, container)
	return nil, false
}

func (h *WidgetHandler) renderPanel(w http.ResponseWriter, status int, message, container string) {
	var buf bytes.Buffer
	if err := h.renderer.Error(&buf, message, container); err != nil {
		http.Error(w, message, status)
		return
	}
	writeHTML(w, status, buf.Bytes())
}

func containerID(requested, fallback string) string {
	if containerPattern.MatchString(requested) {
		return requested
	}
	return fallback
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
