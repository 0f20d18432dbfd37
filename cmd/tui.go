package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/alignx/internal/repositories"
	"github.com/desertthunder/alignx/internal/shared"
	"github.com/desertthunder/alignx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive alignment browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, logFile, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	r.SetLogger(fileLogger)

	flow := r.workflow()

	opts := ui.Options{
		SyncLimit: r.config.API.ListLimit,
		Offline:   cmd.Bool("offline") || !r.api.HasKey(),
		Logger:    shared.WithLogger(fileLogger, "component", "tui"),
	}
	if r.settings != nil {
		opts.Selections = repositories.NewSelectionStore(r.settings)
	}

	model := ui.NewModel(ctx, flow, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
