package stream

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxInboundSize = 512
)

// Upgrader accepts websocket handshakes from an origin allow-list.
type Upgrader struct {
	ws        websocket.Upgrader
	heartbeat time.Duration
}

// NewUpgrader builds an upgrader for the given origins. With no origins only
// same-host browser requests are accepted; "*" accepts any origin. Requests
// without an Origin header come from non-browser clients and are always let
// through.
func NewUpgrader(allowedOrigins []string, heartbeat time.Duration) *Upgrader {
	u := &Upgrader{
		ws: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		heartbeat: heartbeat,
	}
	if len(allowedOrigins) > 0 {
		u.ws.CheckOrigin = originChecker(allowedOrigins)
	}
	return u
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[strings.ToLower(o)] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.ToLower(origin)]
		return ok
	}
}

// WSWriter sends frames as text messages and heartbeats as ping control frames.
type WSWriter struct {
	conn *websocket.Conn
}

// Upgrade switches the request to a websocket. The returned context is
// cancelled when the client goes away; the caller closes the writer.
// A rejected origin gets a 403 from the upgrader.
func (u *Upgrader) Upgrade(ctx context.Context, w http.ResponseWriter, r *http.Request) (*WSWriter, context.Context, error) {
	conn, err := u.ws.Upgrade(w, r, nil)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	go readLoop(conn, cancel, u.heartbeat)
	return &WSWriter{conn: conn}, ctx, nil
}

// readLoop drains client messages so control frames are processed, and
// cancels once the connection fails or pongs stop arriving.
func readLoop(conn *websocket.Conn, cancel context.CancelFunc, heartbeat time.Duration) {
	defer cancel()
	conn.SetReadLimit(maxInboundSize)
	if heartbeat > 0 {
		deadline := 2*heartbeat + writeWait
		_ = conn.SetReadDeadline(time.Now().Add(deadline))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(deadline))
		})
	}
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (w *WSWriter) WriteFrame(b []byte) error {
	if err := w.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return w.conn.WriteMessage(websocket.TextMessage, b)
}

func (w *WSWriter) WriteHeartbeat() error {
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Close sends a close frame and releases the connection.
func (w *WSWriter) Close() error {
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	return w.conn.Close()
}
