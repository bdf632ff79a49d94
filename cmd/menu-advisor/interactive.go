package main

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"menu-advisor/cmd/menu-advisor/ui"
)

// runInteractive starts the terminal interface on top of a live session.
func runInteractive(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	surface := ui.NewChannelSurface(256)
	a, err := newApp(ctx, cfg, zapLog, surface)
	if err != nil {
		return err
	}
	a.start(ctx)

	model := ui.NewModel(surface, a.session, a.store.Snapshot,
		ui.WithBudgetStep(cfg.Filters.BudgetStep),
		ui.WithStyles(ui.NewStyles(ui.DetectTheme())),
	)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()

	cancel()
	surface.Close()
	a.close()

	if errors.Is(err, tea.ErrProgramKilled) && parent.Err() != nil {
		return nil
	}
	return err
}
