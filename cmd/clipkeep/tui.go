package main

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/adaryorg/clipkeep/internal/config"
	"github.com/adaryorg/clipkeep/internal/logging"
	"github.com/adaryorg/clipkeep/internal/share"
	"github.com/adaryorg/clipkeep/internal/ui"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the clipboard history in the terminal (default)",
		Args:  cobra.NoArgs,
		RunE:  runTUI,
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Console logging would corrupt the alternate screen.
	a, err := setupApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Quitting never hands off: unpinned entries end with the TUI.
	return a.withSession(ctx, func(live *liveSession) error {
		model := ui.NewModel(ui.Options{
			Context: ctx,
			Session: live.ctrl,
			Config:  a.cfg,
			Policy:  a.policy,
			Sharer:  share.NewClient(a.cfg.Share.PasteURL, a.cfg.Share.ExpiryDays),
		})
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

		if updates, err := config.Watch(ctx, a.configPath); err != nil {
			logging.Warn("Configuration changes will not be picked up: %v", err)
		} else {
			go func() {
				for cfg := range updates {
					p.Send(ui.ConfigChangedMsg{Config: cfg})
				}
			}()
		}

		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})
}
