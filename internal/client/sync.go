package client

import (
	"context"
	"fmt"

	"github.com/solarops/dispatch/internal/domain"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
)

// KeysFor lists the queries an event makes stale. Unknown types map to none.
func KeysFor(t domain.EventType) []string {
	switch t {
	case domain.EventTaskAssigned, domain.EventTaskCompleted:
		return []string{KeyTasks, KeyStats, KeyTeams}
	case domain.EventTaskCreated, domain.EventTaskUpdated, domain.EventTaskDeleted:
		return []string{KeyTasks, KeyStats}
	case domain.EventTeamUpdated:
		return []string{KeyTeams, KeyStats}
	}
	return nil
}

// Synchronizer keeps a QueryCache current by invalidating on realtime events.
type Synchronizer struct {
	api    *APIClient
	cache  *QueryCache
	sub    *Subscriber
	logger *logger.Logger

	connectedOnce bool
}

type SyncConfig struct {
	API     *APIClient
	Logger  *logger.Logger
	WSPath  string
	OnState func(ConnState)
}

func NewSynchronizer(cfg SyncConfig) (*Synchronizer, error) {
	path := cfg.WSPath
	if path == "" {
		path = "/ws"
	}
	wsURL, err := cfg.API.WebsocketURL(path)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	s := &Synchronizer{
		api:    cfg.API,
		cache:  NewQueryCache(cfg.Logger),
		logger: cfg.Logger,
	}
	RegisterQueries(s.cache, cfg.API)

	s.sub = NewSubscriber(SubscriberConfig{
		URL:     wsURL,
		Logger:  cfg.Logger,
		OnEvent: s.HandleEvent,
		OnState: func(state ConnState) {
			if state == StateConnected {
				s.handleConnected()
			}
			if cfg.OnState != nil {
				cfg.OnState(state)
			}
		},
	})
	return s, nil
}

// RegisterQueries binds the standard query keys to their API calls.
func RegisterQueries(cache *QueryCache, api *APIClient) {
	cache.Register(KeyTasks, func(ctx context.Context) (interface{}, error) { return api.Tasks(ctx) })
	cache.Register(KeyTeams, func(ctx context.Context) (interface{}, error) { return api.Teams(ctx) })
	cache.Register(KeyStats, func(ctx context.Context) (interface{}, error) { return api.Stats(ctx) })
}

func (s *Synchronizer) Cache() *QueryCache { return s.cache }

func (s *Synchronizer) State() ConnState { return s.sub.State() }

// HandleEvent invalidates the queries affected by event.
func (s *Synchronizer) HandleEvent(event domain.Event) {
	keys := KeysFor(event.Type)
	if len(keys) == 0 {
		s.logger.Debugw("client_event_ignored", "type", event.Type)
		return
	}
	s.logger.Debugw("client_event_invalidate", "type", event.Type, "keys", keys)
	s.cache.Invalidate(keys...)
}

// handleConnected refreshes everything after a reconnect, since events sent
// while disconnected are lost.
func (s *Synchronizer) handleConnected() {
	if s.connectedOnce {
		s.cache.InvalidateAll()
	}
	s.connectedOnce = true
}

// Run performs the initial load then follows the realtime channel until ctx ends.
func (s *Synchronizer) Run(ctx context.Context) error {
	defer s.cache.Close()
	for _, key := range s.cache.Keys() {
		if _, err := s.cache.Get(ctx, key); err != nil {
			s.logger.Warnw("client_initial_load_failed", "key", key, "error", err)
		}
	}
	return s.sub.Run(ctx)
}

func (s *Synchronizer) Tasks(ctx context.Context) ([]domain.Task, error) {
	v, err := s.cache.Get(ctx, KeyTasks)
	if err != nil {
		return nil, err
	}
	return v.([]domain.Task), nil
}

func (s *Synchronizer) Teams(ctx context.Context) ([]domain.Team, error) {
	v, err := s.cache.Get(ctx, KeyTeams)
	if err != nil {
		return nil, err
	}
	return v.([]domain.Team), nil
}

func (s *Synchronizer) Stats(ctx context.Context) (*domain.Stats, error) {
	v, err := s.cache.Get(ctx, KeyStats)
	if err != nil {
		return nil, err
	}
	return v.(*domain.Stats), nil
}
