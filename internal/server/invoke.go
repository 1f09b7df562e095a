package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/haasonsaas/tonari/internal/agent"
	"github.com/haasonsaas/tonari/pkg/models"
)

// toolBoundary is the wire shape of tool boundary markers. Text chunks are
// sent as bare JSON strings, which is what browser clients parse.
type toolBoundary struct {
	Event string `json:"event"`
	Tool  string `json:"tool,omitempty"`
}

// handleInvocations serves one user turn as a server-sent event stream.
func (s *Server) handleInvocations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.InvocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.ApplyDefaults()
	if req.Prompt == "" && req.ImageBase64 == "" {
		s.jsonError(w, "prompt or image is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	start := time.Now()

	content := agent.BuildContent(s.logger, req.Prompt, req.ImageBase64, req.ImageFormat)
	a := s.cache.GetOrCreate(ctx, req.Key())

	raw, err := a.Invoke(ctx, content)
	if err != nil {
		// The inference call itself failing is the only failure class
		// surfaced to the caller.
		s.logger.Error("inference invocation failed", "session", req.Key().String(), "error", err)
		s.metrics.TurnServed("failed", time.Since(start).Seconds())
		s.jsonError(w, "inference invocation failed", http.StatusBadGateway)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.jsonError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	d := agent.NewDemux(raw)
	for d.Next() {
		if err := writeEvent(w, d.Event()); err != nil {
			// Client went away; the request context cancellation tears
			// down the underlying stream.
			s.metrics.TurnServed("abandoned", time.Since(start).Seconds())
			return
		}
		flusher.Flush()
	}

	if err := d.Err(); err != nil {
		s.logger.Error("inference stream failed", "session", req.Key().String(), "error", err)
		_, _ = fmt.Fprintf(w, "event: error\ndata: %q\n\n", "inference stream failed")
		flusher.Flush()
		s.metrics.TurnServed("failed", time.Since(start).Seconds())
		return
	}
	s.metrics.TurnServed("ok", time.Since(start).Seconds())
}

// writeEvent serializes one client event as an SSE data frame.
func writeEvent(w http.ResponseWriter, ev models.ClientEvent) error {
	var payload []byte
	var err error
	switch ev.Type {
	case models.EventText:
		payload, err = json.Marshal(ev.Text)
	case models.EventToolStart:
		payload, err = json.Marshal(toolBoundary{Event: string(models.EventToolStart), Tool: ev.Tool})
	case models.EventToolEnd:
		payload, err = json.Marshal(toolBoundary{Event: string(models.EventToolEnd)})
	default:
		return nil
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}

func (s *Server) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
