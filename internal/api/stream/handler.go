// Package stream serves the push channel over WebSocket and Server-Sent
// Events. Both transports subscribe to the broadcast hub: the first message
// is the alert history snapshot, followed by live log and alert events.
package stream

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/good-yellow-bee/logpulse/internal/api/respond"
	"github.com/good-yellow-bee/logpulse/internal/hub"
	"github.com/good-yellow-bee/logpulse/internal/metrics"
)

// Options configures the push endpoints.
type Options struct {
	// Buffer is the per-subscriber event queue length.
	Buffer int
	// WriteWait bounds a single message write.
	WriteWait time.Duration
	// PongWait is how long a WebSocket peer may stay silent.
	PongWait time.Duration
	// Heartbeat is the SSE keepalive comment interval.
	Heartbeat time.Duration
	// MaxDuration closes a connection after this long; 0 keeps it open.
	MaxDuration time.Duration
	// AllowedOrigins restricts browser WebSocket origins; empty allows all.
	AllowedOrigins []string
}

// DefaultOptions returns default push options.
func DefaultOptions() Options {
	return Options{
		Buffer:    hub.DefaultBuffer,
		WriteWait: 10 * time.Second,
		PongWait:  60 * time.Second,
		Heartbeat: 15 * time.Second,
	}
}

// Handler serves the push endpoints.
type Handler struct {
	hub      *hub.Hub
	opts     Options
	upgrader websocket.Upgrader
	logger   logrus.FieldLogger
}

// NewHandler creates a push handler.
func NewHandler(h *hub.Hub, opts Options, logger logrus.FieldLogger) *Handler {
	def := DefaultOptions()
	if opts.Buffer <= 0 {
		opts.Buffer = def.Buffer
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = def.WriteWait
	}
	if opts.PongWait <= 0 {
		opts.PongWait = def.PongWait
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = def.Heartbeat
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &Handler{
		hub:    h,
		opts:   opts,
		logger: logger.WithField("component", "stream"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients) and browser origins from the allow list.
func (s *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range s.opts.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) || strings.EqualFold(allowed, u.Host) {
			return true
		}
	}
	return false
}

func (s *Handler) pingInterval() time.Duration {
	return s.opts.PongWait * 9 / 10
}

// maxDuration returns a channel that fires when the connection has been
// open for MaxDuration, or nil when unlimited.
func (s *Handler) maxDuration() (<-chan time.Time, func()) {
	if s.opts.MaxDuration <= 0 {
		return nil, func() {}
	}
	t := time.NewTimer(s.opts.MaxDuration)
	return t.C, func() { t.Stop() }
}

// WebSocket handles GET /api/v1/ws.
func (s *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		s.logger.WithError(err).Debug("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := s.hub.Subscribe(s.opts.Buffer)
	defer s.hub.Unsubscribe(sub)

	gauge := metrics.Subscribers.WithLabelValues("websocket")
	gauge.Inc()
	defer gauge.Dec()

	log := s.logger.WithFields(logrus.Fields{"subscriber": sub.ID, "remote": r.RemoteAddr})
	log.Debug("websocket subscriber connected")

	// The read loop only services control frames; inbound messages are
	// discarded.
	done := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(s.opts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.opts.PongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.WithError(err).Debug("websocket read failed")
				}
				return
			}
		}
	}()

	ping := time.NewTicker(s.pingInterval())
	defer ping.Stop()
	expired, stop := s.maxDuration()
	defer stop()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				s.closeWebSocket(conn, websocket.CloseGoingAway, "server shutting down")
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(s.opts.WriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				log.WithError(err).Warn("push send failed, removing subscriber")
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.opts.WriteWait)); err != nil {
				log.WithError(err).Warn("ping failed, removing subscriber")
				return
			}
		case <-expired:
			s.closeWebSocket(conn, websocket.CloseNormalClosure, "max connection duration reached")
			return
		case <-done:
			log.Debug("websocket subscriber disconnected")
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Handler) closeWebSocket(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.opts.WriteWait))
}

// SSE handles GET /api/v1/stream.
func (s *Handler) SSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respond.JSONError(w, &respond.Error{
			Code:    respond.ErrCodeInternalError,
			Message: "streaming not supported",
			Status:  http.StatusInternalServerError,
		})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := s.hub.Subscribe(s.opts.Buffer)
	defer s.hub.Unsubscribe(sub)

	gauge := metrics.Subscribers.WithLabelValues("sse")
	gauge.Inc()
	defer gauge.Dec()

	log := s.logger.WithFields(logrus.Fields{"subscriber": sub.ID, "remote": r.RemoteAddr})
	sse := NewSSEWriter(w, flusher)
	if err := sse.SendRetry(3000); err != nil {
		log.WithError(err).Debug("sse client gone")
		return
	}

	heartbeat := time.NewTicker(s.opts.Heartbeat)
	defer heartbeat.Stop()
	expired, stop := s.maxDuration()
	defer stop()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.WithError(err).WithField("type", ev.Type).Error("failed to encode event")
				continue
			}
			if err := sse.SendEvent(ev.Type, data); err != nil {
				log.WithError(err).Warn("push send failed, removing subscriber")
				return
			}
		case <-heartbeat.C:
			if err := sse.SendComment("heartbeat"); err != nil {
				log.WithError(err).Warn("heartbeat failed, removing subscriber")
				return
			}
		case <-expired:
			return
		case <-r.Context().Done():
			log.Debug("sse subscriber disconnected")
			return
		}
	}
}
