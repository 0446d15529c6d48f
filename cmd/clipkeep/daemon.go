/*
MIT License

Copyright (c) 2025 Yuval Adar <adary@adary.org>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adaryorg/clipkeep/internal/config"
	"github.com/adaryorg/clipkeep/internal/lockwatch"
	"github.com/adaryorg/clipkeep/internal/logging"
	"github.com/adaryorg/clipkeep/internal/version"
)

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Record clipboard history in the background",
		Long: `Run a headless clipboard session.

The session is handed off and closed while the screen is locked and resumed
on unlock. SIGUSR1 hands the session off and exits, so that a restarted
daemon continues with the same history; SIGINT and SIGTERM exit without a
hand-off.`,
		Args: cobra.NoArgs,
		RunE: runDaemon,
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	a, err := setupApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	logging.Info("Starting clipkeep daemon %s", version.String())

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var events daemonEvents
	if watcher, err := lockwatch.Connect(); err != nil {
		logging.Warn("Screen lock events unavailable: %v", err)
	} else {
		defer watcher.Close()
		events.locks = watcher.Run(ctx)
	}

	if updates, err := config.Watch(ctx, a.configPath); err != nil {
		logging.Warn("Configuration changes will not be picked up: %v", err)
	} else {
		events.updates = updates
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)
	defer signal.Stop(signals)
	events.signals = signals

	d, err := newDaemon(ctx, a)
	if err != nil {
		return err
	}
	return d.run(ctx, events)
}

// daemonEvents are the inputs of the daemon loop. Nil channels are never
// ready.
type daemonEvents struct {
	signals <-chan os.Signal
	locks   <-chan lockwatch.State
	updates <-chan *config.Config
}

// daemon hosts at most one live session. The session is nil while the screen
// is locked.
type daemon struct {
	app  *app
	live *liveSession
}

func newDaemon(ctx context.Context, a *app) (*daemon, error) {
	live, err := a.startSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start clipboard session: %w", err)
	}
	return &daemon{app: a, live: live}, nil
}

// run handles events until a signal arrives or ctx is done. Leaving run for
// any reason other than SIGUSR1 discards the hand-off slot.
func (d *daemon) run(ctx context.Context, events daemonEvents) error {
	for {
		select {
		case <-ctx.Done():
			return d.shutdown()

		case sig := <-events.signals:
			logging.Info("Received %s", sig)
			if sig == syscall.SIGUSR1 {
				return d.handoff()
			}
			return d.shutdown()

		case state, ok := <-events.locks:
			if !ok {
				events.locks = nil
				continue
			}
			if err := d.lockChanged(ctx, state); err != nil {
				return err
			}

		case cfg, ok := <-events.updates:
			if !ok {
				events.updates = nil
				continue
			}
			applyConfig(d.app, cfg, d.live)
		}
	}
}

func (d *daemon) lockChanged(ctx context.Context, state lockwatch.State) error {
	switch {
	case state == lockwatch.Locked && d.live != nil:
		logging.Info("Screen locked, suspending session")
		err := d.live.stop(true)
		d.live = nil
		if err != nil {
			logging.Error("Failed to hand off session: %v", err)
		}
	case state == lockwatch.Unlocked && d.live == nil:
		logging.Info("Screen unlocked, resuming session")
		live, err := d.app.startSession(ctx)
		if err != nil {
			return fmt.Errorf("failed to resume clipboard session: %w", err)
		}
		d.live = live
	}
	return nil
}

// handoff leaves the history for the next daemon. While locked the slot
// already holds it.
func (d *daemon) handoff() error {
	if d.live == nil {
		return nil
	}
	err := d.live.stop(true)
	d.live = nil
	return err
}

// shutdown ends the daemon without a hand-off, dropping any state parked by
// a lock.
func (d *daemon) shutdown() error {
	if d.live == nil {
		if err := d.app.slot.Discard(); err != nil {
			logging.Error("Failed to discard hand-off state: %v", err)
		}
		return nil
	}
	err := d.live.stop(false)
	d.live = nil
	if err != nil {
		logging.Error("Failed to close session: %v", err)
	}
	return nil
}

// applyConfig takes over the settings that can change while running. Storage,
// privacy and logging settings need a restart. A new history size reaches a
// locked daemon's next session through a.cfg.
func applyConfig(a *app, cfg *config.Config, live *liveSession) {
	if cfg.History.Size != a.cfg.History.Size && live != nil {
		logging.Info("History size changed to %d", cfg.History.Size)
		live.ctrl.SetCapacity(cfg.History.Size)
	}
	if cfg.History.Backend != a.cfg.History.Backend || cfg.History.StateDir != a.cfg.History.StateDir {
		logging.Warn("Storage settings changed; restart the daemon to apply them")
	}
	a.cfg = cfg
}
