// StudyToolsGPT - terminal chat client
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/adithyag/studytoolsgpt/internal/client"
	"github.com/adithyag/studytoolsgpt/internal/store"
	"github.com/adithyag/studytoolsgpt/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

func main() {
	var (
		configPath string
		serverURL  string
		mode       string
	)

	root := &cobra.Command{
		Use:     "studytools",
		Short:   "StudyToolsGPT terminal client",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, serverURL, mode)
			if err != nil {
				return err
			}
			return runChat(cfg)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", client.DefaultConfigPath(), "path to config file")
	root.PersistentFlags().StringVar(&serverURL, "server", "", "proxy base URL (overrides config)")
	root.Flags().StringVar(&mode, "mode", "", "mode label (overrides config)")

	root.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Check that the proxy is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, serverURL, mode)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if err := client.NewHTTPClient(cfg.ServerURL).Health(ctx); err != nil {
				return err
			}
			fmt.Printf("%s is healthy\n", cfg.ServerURL)
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig(configPath, serverURL, mode string) (*client.Config, error) {
	cfg, err := client.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if mode != "" {
		cfg.Mode = mode
	}
	return cfg, nil
}

func runChat(cfg *client.Config) error {
	// The TUI owns stdout, so logs go to a file.
	setupLogging(cfg.LogPath)

	controller := client.NewController(client.NewHTTPClient(cfg.ServerURL), cfg.Mode)

	var repo store.PackRepository
	if cfg.DBPath != "" {
		r, err := store.NewSQLite(cfg.DBPath)
		if err != nil {
			slog.Warn("Pack store unavailable, saving disabled", "path", cfg.DBPath, "error", err)
		} else {
			repo = r
			defer func() {
				if closeErr := r.Close(); closeErr != nil {
					slog.Error("Failed to close pack store", "error", closeErr)
				}
			}()
		}
	}

	program := tea.NewProgram(tui.New(controller, repo), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run chat UI: %w", err)
	}
	return nil
}

func setupLogging(path string) {
	if path == "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err == nil {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
			slog.SetDefault(slog.New(slog.NewJSONHandler(f, nil)))
			return
		}
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
}
