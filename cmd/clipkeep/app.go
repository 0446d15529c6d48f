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
	"errors"
	"fmt"
	"path/filepath"

	"github.com/adaryorg/clipkeep/internal/clipboard"
	"github.com/adaryorg/clipkeep/internal/config"
	"github.com/adaryorg/clipkeep/internal/logging"
	"github.com/adaryorg/clipkeep/internal/security"
	"github.com/adaryorg/clipkeep/internal/session"
	"github.com/adaryorg/clipkeep/internal/storage"
)

// app holds everything that outlives a single clipboard session.
type app struct {
	cfg        *config.Config
	configPath string
	stateDir   string

	store     storage.Store
	closers   []func() error
	blocklist *security.Blocklist
	policy    *security.Policy
	slot      session.Slot

	newWatcher func(clipboard.Options) (clipboard.Watcher, error)
}

func newSystemWatcher(opts clipboard.Options) (clipboard.Watcher, error) {
	w, err := clipboard.NewSystemWatcher(opts)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// loadConfig reads --config when given, the user configuration otherwise.
func loadConfig() (*config.Config, string, error) {
	if configFile != "" {
		cfg, err := config.LoadFile(configFile)
		return cfg, configFile, err
	}
	path, err := config.Path()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load()
	return cfg, path, err
}

func stateDir(cfg *config.Config) (string, error) {
	if cfg.History.StateDir != "" {
		return filepath.Join(cfg.History.StateDir, cfg.History.InstallID), nil
	}
	return storage.DefaultDir(cfg.History.InstallID)
}

// setupApp loads the configuration, starts logging and opens storage. Any
// error here is a startup failure.
func setupApp(console bool) (*app, error) {
	cfg, path, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logging.InitLogger(logging.Options{
		File:       cfg.Logging.LogFile,
		Level:      cfg.Logging.Level,
		MaxSize:    cfg.Logging.MaxSize,
		MaxAge:     cfg.Logging.MaxAge,
		MaxBackups: cfg.Logging.MaxBackups,
		Console:    console,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	dir, err := stateDir(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, configPath: path, stateDir: dir, newWatcher: newSystemWatcher}
	if err := a.openStore(); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openPolicy(); err != nil {
		a.Close()
		return nil, err
	}

	switch cfg.Session.Handoff {
	case config.HandoffMemory:
		a.slot = session.NewMemorySlot()
	default:
		a.slot = session.NewRuntimeSlot(session.DefaultRuntimeDir())
	}

	logging.Info("State directory %s (backend %s)", dir, cfg.History.Backend)
	return a, nil
}

func (a *app) openStore() error {
	switch a.cfg.History.Backend {
	case config.BackendSQLite:
		store, err := storage.NewSQLiteStore(filepath.Join(a.stateDir, storage.DatabaseFileName))
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		a.store = store
		a.closers = append(a.closers, store.Close)
	default:
		a.store = storage.NewFileStore(a.stateDir)
	}
	return nil
}

func (a *app) openPolicy() error {
	var detector *security.Detector
	if a.cfg.Privacy.DetectSecrets {
		detector = security.NewDetector()
	}

	if a.cfg.Privacy.Blocklist {
		blocklist, err := security.OpenBlocklist(filepath.Join(a.stateDir, security.BlocklistFileName))
		if err != nil {
			return fmt.Errorf("failed to open blocklist: %w", err)
		}
		a.blocklist = blocklist
		a.closers = append(a.closers, blocklist.Close)
	}

	if detector != nil || a.blocklist != nil {
		a.policy = security.NewPolicy(detector, a.blocklist)
	}
	return nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// liveSession is a running controller with its clipboard watcher.
type liveSession struct {
	ctrl    *session.Controller
	watcher clipboard.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// startSession opens the clipboard and starts a controller, restoring any
// state handed off by the previous session.
func (a *app) startSession(ctx context.Context) (*liveSession, error) {
	watcher, err := a.newWatcher(clipboard.Options{Policy: a.policy})
	if err != nil {
		return nil, err
	}

	ctrl := session.New(session.Options{
		Store:    a.store,
		Watcher:  watcher,
		Slot:     a.slot,
		Capacity: a.cfg.History.Size,
	})

	runCtx, cancel := context.WithCancel(ctx)
	s := &liveSession{
		ctrl:    ctrl,
		watcher: watcher,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		if err := ctrl.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error("Session stopped: %v", err)
		}
	}()
	return s, nil
}

// withSession runs fn against a new session and closes it without a hand-off
// when fn returns.
func (a *app) withSession(ctx context.Context, fn func(*liveSession) error) error {
	live, err := a.startSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to start clipboard session: %w", err)
	}

	runErr := fn(live)
	if err := live.stop(false); err != nil {
		logging.Error("Failed to close session: %v", err)
	}
	return runErr
}

// stop closes the controller, optionally handing its state to the next
// session, and releases the clipboard.
func (s *liveSession) stop(handoff bool) error {
	err := s.ctrl.Close(handoff)
	s.cancel()
	<-s.done
	return errors.Join(err, s.watcher.Close())
}
