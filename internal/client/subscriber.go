package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
)

type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

type SubscriberConfig struct {
	URL        string
	MinBackoff time.Duration
	MaxBackoff time.Duration
	// ReadTimeout is how long the connection may stay silent before it is
	// treated as dead. The server pings well inside it.
	ReadTimeout time.Duration
	Logger     *logger.Logger
	OnEvent    func(domain.Event)
	OnState    func(ConnState)
}

// Subscriber holds one realtime connection open, reconnecting with capped
// exponential backoff until its context is cancelled.
type Subscriber struct {
	cfg    SubscriberConfig
	dialer *websocket.Dialer

	mu    sync.RWMutex
	state ConnState
}

func NewSubscriber(cfg SubscriberConfig) *Subscriber {
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 90 * time.Second
	}
	if cfg.OnEvent == nil {
		cfg.OnEvent = func(domain.Event) {}
	}
	if cfg.OnState == nil {
		cfg.OnState = func(ConnState) {}
	}
	return &Subscriber{
		cfg:    cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

func (s *Subscriber) State() ConnState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Subscriber) setState(state ConnState) {
	s.mu.Lock()
	changed := s.state != state
	s.state = state
	s.mu.Unlock()
	if changed {
		s.cfg.OnState(state)
	}
}

// Run blocks until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	backoff := s.cfg.MinBackoff
	defer s.setState(StateDisconnected)

	for {
		s.setState(StateConnecting)
		conn, _, err := s.dialer.DialContext(ctx, s.cfg.URL, nil)
		if err == nil {
			backoff = s.cfg.MinBackoff
			s.setState(StateConnected)
			s.cfg.Logger.Infow("client_realtime_connected", "url", s.cfg.URL)
			s.readLoop(ctx, conn)
			s.cfg.Logger.Infow("client_realtime_disconnected", "url", s.cfg.URL)
		} else if ctx.Err() == nil {
			s.cfg.Logger.Warnw("client_realtime_dial_failed", "url", s.cfg.URL, "error", err, "retry_in", backoff)
		}

		s.setState(StateDisconnected)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if err != nil {
			backoff *= 2
			if backoff > s.cfg.MaxBackoff {
				backoff = s.cfg.MaxBackoff
			}
		}
	}
}

func (s *Subscriber) readLoop(ctx context.Context, conn *websocket.Conn) {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
		}
	}()
	defer conn.Close()

	extend := func() { _ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)) }
	extend()
	conn.SetPingHandler(func(data string) error {
		extend()
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.cfg.Logger.Debugw("client_realtime_read_failed", "url", s.cfg.URL, "error", err)
			}
			return
		}
		extend()
		event, ok := DecodeEvent(frame)
		if !ok {
			s.cfg.Logger.Warnw("client_realtime_malformed_frame", "frame", string(frame))
			continue
		}
		s.cfg.OnEvent(event)
	}
}

// DecodeEvent parses one realtime frame. Frames without a type are rejected.
func DecodeEvent(frame []byte) (domain.Event, bool) {
	var event domain.Event
	if err := json.Unmarshal(frame, &event); err != nil || event.Type == "" {
		return domain.Event{}, false
	}
	return event, true
}
