package stream

import (
	"io"
	"net/http"

	"github.com/gin-contrib/sse"
)

// SSEWriter writes server-sent events: "data:" frames and ": heartbeat"
// comments.
type SSEWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

// NewSSEWriter sets the event-stream headers on w. It fails when w cannot flush.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, bool) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	h := w.Header()
	h.Set("Content-Type", sse.ContentType)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	f.Flush()
	return &SSEWriter{w: w, f: f}, true
}

func (s *SSEWriter) WriteFrame(b []byte) error {
	if err := sse.Encode(s.w, sse.Event{Data: string(b)}); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

func (s *SSEWriter) WriteHeartbeat() error {
	if _, err := io.WriteString(s.w, ": heartbeat\n\n"); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}
