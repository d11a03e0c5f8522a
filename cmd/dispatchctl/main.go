package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/solarops/dispatch/internal/client"
	"github.com/solarops/dispatch/internal/config"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
	"github.com/spf13/cobra"
)

var Version = "dev"

type globalOptions struct {
	configPath string
	baseURL    string
	jsonOut    bool
	verbose    bool
}

var opts globalOptions

func main() {
	rootCmd := &cobra.Command{
		Use:           "dispatchctl",
		Short:         "Command line client for the maintenance dispatch board",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath(), "client config file")
	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "server", "", "server base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "output JSON")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log client activity to stderr")

	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(tasksCmd())
	rootCmd.AddCommand(createTaskCmd())
	rootCmd.AddCommand(updateTaskCmd())
	rootCmd.AddCommand(deleteTaskCmd())
	rootCmd.AddCommand(assignCmd())
	rootCmd.AddCommand(completeCmd())
	rootCmd.AddCommand(teamsCmd())
	rootCmd.AddCommand(teamStatusCmd())
	rootCmd.AddCommand(plantsCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(timelineCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "dispatchctl", "dispatchctl.yaml")
	}
	return "dispatchctl.yaml"
}

// session loads the profile and returns an API client bound to it.
func session() (*client.Config, *client.APIClient, error) {
	cfg, err := client.LoadConfig(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	if opts.baseURL != "" {
		cfg.BaseURL = opts.baseURL
	}
	return cfg, client.NewAPIClient(cfg.BaseURL, cfg.Token), nil
}

func withAPI(cmd *cobra.Command, fn func(ctx context.Context, api *client.APIClient) error) error {
	_, api, err := session()
	if err != nil {
		return err
	}
	return fn(cmd.Context(), api)
}

func newLogger() (*logger.Logger, error) {
	if !opts.verbose {
		return logger.NewNop(), nil
	}
	return logger.New(config.LoggerConfig{
		Level:            "debug",
		Encoding:         "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	return tw
}
