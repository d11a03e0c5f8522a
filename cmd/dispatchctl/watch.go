package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/solarops/dispatch/internal/client"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the board live over the realtime channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, api, err := session()
			if err != nil {
				return err
			}
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			redraw := make(chan struct{}, 1)
			poke := func() {
				select {
				case redraw <- struct{}{}:
				default:
				}
			}

			syncer, err := client.NewSynchronizer(client.SyncConfig{
				API:     api,
				Logger:  log,
				OnState: func(client.ConnState) { poke() },
			})
			if err != nil {
				return err
			}
			syncer.Cache().OnChange(func(string) { poke() })

			done := make(chan error, 1)
			go func() { done <- syncer.Run(ctx) }()

			for {
				select {
				case err := <-done:
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				case <-redraw:
					drawBoard(syncer)
				}
			}
		},
	}
}

// drawBoard renders whatever the cache holds without fetching. Keys still
// loading are skipped; stale ones are marked.
func drawBoard(s *client.Synchronizer) {
	clearScreen()
	fmt.Printf("dispatch board  [%s]  %s\n", s.State(), time.Now().Format("15:04:05"))

	cache := s.Cache()
	section := func(key string) (interface{}, bool) {
		v, stale, ok := cache.Peek(key)
		if !ok {
			return nil, false
		}
		fmt.Println()
		if stale {
			fmt.Println("(refreshing)")
		}
		return v, true
	}

	if v, ok := section(client.KeyStats); ok {
		if stats, isStats := v.(*domain.Stats); isStats {
			renderStats(stats)
		}
	}
	if v, ok := section(client.KeyTasks); ok {
		if tasks, isTasks := v.([]domain.Task); isTasks {
			renderTasks(tasks)
		}
	}
	if v, ok := section(client.KeyTeams); ok {
		if teams, isTeams := v.([]domain.Team); isTeams {
			renderTeams(teams)
		}
	}
}
