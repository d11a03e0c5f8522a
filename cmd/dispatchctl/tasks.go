package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/solarops/dispatch/internal/client"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/spf13/cobra"
)

func loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and store the token in the client config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, api, err := session()
			if err != nil {
				return err
			}
			res, err := api.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			cfg.Username = res.Username
			cfg.Token = res.Token
			cfg.TeamID = 0
			if res.TeamID != nil {
				cfg.TeamID = *res.TeamID
			}
			if err := cfg.Save(opts.configPath); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Printf("Logged in as %s (%s)\n", res.Username, res.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func tasksCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAPI(cmd, func(ctx context.Context, api *client.APIClient) error {
				tasks, err := api.Tasks(ctx)
				if err != nil {
					return err
				}
				if status != "" {
					filtered := tasks[:0]
					for _, t := range tasks {
						if string(t.Status) == status {
							filtered = append(filtered, t)
						}
					}
					tasks = filtered
				}
				if opts.jsonOut {
					return printJSON(tasks)
				}
				renderTasks(tasks)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter (available, in_progress, completed)")
	return cmd
}

func renderTasks(tasks []domain.Task) {
	tw := newTable()
	tw.AppendHeader(table.Row{"ID", "Plant", "Activity", "Priority", "Hours", "Status", "Team"})
	for _, t := range tasks {
		team := ""
		if t.AssignedTeamID != nil {
			team = strconv.FormatUint(uint64(*t.AssignedTeamID), 10)
		}
		tw.AppendRow(table.Row{t.ID, t.Plant, t.Activity, t.Priority, t.EstimatedHours, t.Status, team})
	}
	tw.Render()
}

func createTaskCmd() *cobra.Command {
	var req client.CreateTaskRequest
	var activity, priority string
	cmd := &cobra.Command{
		Use:   "create-task",
		Short: "Create a task (manager only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Activity = domain.Activity(activity)
			req.Priority = domain.Priority(priority)
			return withAPI(cmd, func(ctx context.Context, api *client.APIClient) error {
				task, err := api.CreateTask(ctx, req)
				if err != nil {
					return err
				}
				if opts.jsonOut {
					return printJSON(task)
				}
				fmt.Printf("Created task %d\n", task.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&activity, "activity", string(domain.ActivityMonitoring), "monitoraggio, impianto or \"manutenzione ordinaria\"")
	cmd.Flags().StringVar(&req.Description, "description", "", "what needs doing")
	cmd.Flags().StringVar(&req.Location, "location", "", "where")
	cmd.Flags().StringVar(&req.Plant, "plant", "", "plant name")
	cmd.Flags().StringVar(&priority, "priority", string(domain.PriorityMedium), "bassa, media, alta or urgente")
	cmd.Flags().IntVar(&req.EstimatedHours, "hours", 1, "estimated hours")
	return cmd
}

func updateTaskCmd() *cobra.Command {
	var description, location, plant, priority, activity string
	var hours int
	cmd := &cobra.Command{
		Use:   "update-task <id>",
		Short: "Edit an available task (manager only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			patch := map[string]interface{}{}
			flags := cmd.Flags()
			if flags.Changed("description") {
				patch["description"] = description
			}
			if flags.Changed("location") {
				patch["location"] = location
			}
			if flags.Changed("plant") {
				patch["plant"] = plant
			}
			if flags.Changed("priority") {
				patch["priority"] = priority
			}
			if flags.Changed("activity") {
				patch["activity"] = activity
			}
			if flags.Changed("hours") {
				patch["estimatedHours"] = hours
			}
			if len(patch) == 0 {
				return fmt.Errorf("nothing to update")
			}
			return withAPI(cmd, func(ctx context.Context, api *client.APIClient) error {
				task, err := api.UpdateTask(ctx, id, patch)
				if err != nil {
					return err
				}
				if opts.jsonOut {
					return printJSON(task)
				}
				renderTasks([]domain.Task{*task})
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&location, "location", "", "location")
	cmd.Flags().StringVar(&plant, "plant", "", "plant")
	cmd.Flags().StringVar(&priority, "priority", "", "priority")
	cmd.Flags().StringVar(&activity, "activity", "", "activity")
	cmd.Flags().IntVar(&hours, "hours", 0, "estimated hours")
	return cmd
}

func deleteTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-task <id>",
		Short: "Delete an available task (manager only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withAPI(cmd, func(ctx context.Context, api *client.APIClient) error {
				if err := api.DeleteTask(ctx, id); err != nil {
					return err
				}
				fmt.Printf("Deleted task %d\n", id)
				return nil
			})
		},
	}
}

func assignCmd() *cobra.Command {
	var teamID uint
	cmd := &cobra.Command{
		Use:   "assign <task-id>",
		Short: "Assign a task to a team (operators default to their own team)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withAPI(cmd, func(ctx context.Context, api *client.APIClient) error {
				res, err := api.AssignTask(ctx, id, teamID)
				if err != nil {
					return err
				}
				if opts.jsonOut {
					return printJSON(res)
				}
				fmt.Printf("Task %d assigned to %s, busy: %s\n", res.Task.ID, res.Team.Name, res.Team.NextAvailable)
				return nil
			})
		},
	}
	cmd.Flags().UintVar(&teamID, "team", 0, "team id")
	return cmd
}

func completeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Mark an in-progress task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withAPI(cmd, func(ctx context.Context, api *client.APIClient) error {
				task, err := api.CompleteTask(ctx, id)
				if err != nil {
					return err
				}
				if opts.jsonOut {
					return printJSON(task)
				}
				fmt.Printf("Task %d completed\n", task.ID)
				return nil
			})
		},
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}
