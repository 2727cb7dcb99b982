package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotifetch/internal/shared"
	"github.com/desertthunder/spotifetch/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive playlist browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	client, err := r.requireClient()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logCfg := r.config.Log
	if logCfg.File == "" {
		logCfg.File = defaultTUILog
	}
	logFile, err := shared.OpenLogFile(logCfg)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	r.logger.SetOutput(logFile)

	model := ui.NewModel(ctx, client, cmd.String("user"), cmd.String("id"))
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
