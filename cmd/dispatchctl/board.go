package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/solarops/dispatch/internal/client"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/spf13/cobra"
)

func teamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "teams",
		Short: "List teams",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAPI(cmd, func(ctx context.Context, api *client.APIClient) error {
				teams, err := api.Teams(ctx)
				if err != nil {
					return err
				}
				if opts.jsonOut {
					return printJSON(teams)
				}
				renderTeams(teams)
				return nil
			})
		},
	}
}

func renderTeams(teams []domain.Team) {
	tw := newTable()
	tw.AppendHeader(table.Row{"ID", "Name", "Leader", "Status", "Location", "Next available"})
	for _, t := range teams {
		tw.AppendRow(table.Row{t.ID, t.Name, t.Leader, t.Status, t.CurrentLocation, t.NextAvailable})
	}
	tw.Render()
}

func teamStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "team-status <team-id> <available|offline>",
		Short: "Take a team offline or bring it back (manager only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withAPI(cmd, func(ctx context.Context, api *client.APIClient) error {
				team, err := api.UpdateTeam(ctx, id, map[string]interface{}{"status": args[1]})
				if err != nil {
					return err
				}
				if opts.jsonOut {
					return printJSON(team)
				}
				renderTeams([]domain.Team{*team})
				return nil
			})
		},
	}
}

func plantsCmd() *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "plants",
		Short: "List or search plants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAPI(cmd, func(ctx context.Context, api *client.APIClient) error {
				var plants []domain.Plant
				var err error
				if query != "" {
					plants, err = api.SearchPlants(ctx, query)
				} else {
					plants, err = api.Plants(ctx)
				}
				if err != nil {
					return err
				}
				if opts.jsonOut {
					return printJSON(plants)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Name", "Location", "Capacity", "Installed", "Status"})
				for _, p := range plants {
					tw.AppendRow(table.Row{p.ID, p.Name, p.Location, p.Capacity, p.InstallationDate, p.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&query, "q", "", "case-insensitive search on name and location")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAPI(cmd, func(ctx context.Context, api *client.APIClient) error {
				stats, err := api.Stats(ctx)
				if err != nil {
					return err
				}
				if opts.jsonOut {
					return printJSON(stats)
				}
				renderStats(stats)
				return nil
			})
		},
	}
}

func renderStats(s *domain.Stats) {
	tw := newTable()
	tw.AppendHeader(table.Row{"Total", "Available", "In progress", "Completed", "Active teams", "Busy teams"})
	tw.AppendRow(table.Row{s.TotalTasks, s.Available, s.InProgress, s.Completed, s.ActiveTeams, s.BusyTeams})
	tw.Render()
}

func timelineCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Show recent board activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAPI(cmd, func(ctx context.Context, api *client.APIClient) error {
				events, err := api.Timeline(ctx, limit)
				if err != nil {
					return err
				}
				if opts.jsonOut {
					return printJSON(events)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"When", "Type", "Message"})
				for _, e := range events {
					tw.AppendRow(table.Row{e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Type, e.Message})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of events")
	return cmd
}

func clearScreen() {
	fmt.Print("\033[H\033[2J")
}
