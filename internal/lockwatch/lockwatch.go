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

// Package lockwatch reports desktop screen lock transitions from the
// screensaver's ActiveChanged signal on the session bus.
package lockwatch

import (
	"context"
	"fmt"

	"github.com/adaryorg/clipkeep/internal/logging"
	"github.com/godbus/dbus/v5"
)

// Screensaver interfaces that emit ActiveChanged(bool).
var screensaverInterfaces = []string{
	"org.gnome.ScreenSaver",
	"org.freedesktop.ScreenSaver",
}

const activeChangedMember = "ActiveChanged"

// State is a lock transition.
type State int

const (
	Unlocked State = iota
	Locked
)

func (s State) String() string {
	if s == Locked {
		return "locked"
	}
	return "unlocked"
}

// Watcher subscribes to screensaver signals on a private session bus
// connection.
type Watcher struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal
}

// Connect opens a session bus connection and registers the match rules.
func Connect() (*Watcher, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	for _, iface := range screensaverInterfaces {
		if err := conn.AddMatchSignal(
			dbus.WithMatchInterface(iface),
			dbus.WithMatchMember(activeChangedMember),
		); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to subscribe to %s.%s: %w", iface, activeChangedMember, err)
		}
	}

	w := &Watcher{
		conn:    conn,
		signals: make(chan *dbus.Signal, 8),
	}
	conn.Signal(w.signals)
	return w, nil
}

// Run forwards lock transitions until ctx is done or the connection drops.
// Repeated signals for the same state are collapsed. The returned channel is
// closed when Run stops.
func (w *Watcher) Run(ctx context.Context) <-chan State {
	out := make(chan State, 1)
	go func() {
		defer close(out)
		last := Unlocked
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-w.signals:
				if !ok {
					return
				}
				state, ok := ParseSignal(sig)
				if !ok || state == last {
					continue
				}
				last = state
				logging.Debug("Screen %s (%s)", state, sig.Name)
				select {
				case out <- state:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Close unregisters the signal channel and closes the connection.
func (w *Watcher) Close() error {
	w.conn.RemoveSignal(w.signals)
	return w.conn.Close()
}

// ParseSignal extracts the lock state from an ActiveChanged signal.
func ParseSignal(sig *dbus.Signal) (State, bool) {
	if sig == nil || len(sig.Body) != 1 {
		return Unlocked, false
	}

	matched := false
	for _, iface := range screensaverInterfaces {
		if sig.Name == iface+"."+activeChangedMember {
			matched = true
			break
		}
	}
	if !matched {
		return Unlocked, false
	}

	active, ok := sig.Body[0].(bool)
	if !ok {
		return Unlocked, false
	}
	if active {
		return Locked, true
	}
	return Unlocked, true
}
