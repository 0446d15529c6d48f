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

package security

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// BlocklistFileName is the database created next to the history state.
const BlocklistFileName = "blocklist.db"

// Blocklist remembers text the user never wants recorded. Only SHA-256
// digests are stored, never the text itself.
type Blocklist struct {
	db *sql.DB
}

// BlockedEntry is one row of the blocklist.
type BlockedEntry struct {
	Hash      string    `json:"hash"`
	Reason    string    `json:"reason"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	Count     int       `json:"count"`
}

// OpenBlocklist opens or creates the blocklist database at dbPath
func OpenBlocklist(dbPath string) (*Blocklist, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create blocklist directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open blocklist database: %w", err)
	}

	b := &Blocklist{db: db}
	if err := b.initSchema(); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to initialize blocklist schema: %w", err)
	}

	return b, nil
}

func (b *Blocklist) initSchema() error {
	_, err := b.db.Exec(`
	CREATE TABLE IF NOT EXISTS blocked_hashes (
		hash TEXT PRIMARY KEY,
		reason TEXT NOT NULL,
		first_seen DATETIME NOT NULL,
		last_seen DATETIME NOT NULL,
		count INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_blocked_last_seen ON blocked_hashes(last_seen);
	`)
	return err
}

// Add blocks text. Blocking the same text again bumps its count.
func (b *Blocklist) Add(text, reason string) error {
	now := time.Now()
	_, err := b.db.Exec(`
		INSERT INTO blocked_hashes (hash, reason, first_seen, last_seen, count)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(hash) DO UPDATE SET last_seen = excluded.last_seen, count = count + 1, reason = excluded.reason
	`, Hash(text), reason, now, now)
	if err != nil {
		return fmt.Errorf("failed to block content: %w", err)
	}
	return nil
}

// Contains reports whether text is blocked.
func (b *Blocklist) Contains(text string) (bool, error) {
	var one int
	err := b.db.QueryRow("SELECT 1 FROM blocked_hashes WHERE hash = ? LIMIT 1", Hash(text)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to check blocklist: %w", err)
	}
	return true, nil
}

// Get returns the row for text, or nil when it is not blocked.
func (b *Blocklist) Get(text string) (*BlockedEntry, error) {
	var entry BlockedEntry
	err := b.db.QueryRow(`
		SELECT hash, reason, first_seen, last_seen, count
		FROM blocked_hashes WHERE hash = ?
	`, Hash(text)).Scan(&entry.Hash, &entry.Reason, &entry.FirstSeen, &entry.LastSeen, &entry.Count)

	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get blocked entry: %w", err)
	}
	return &entry, nil
}

// Remove unblocks text.
func (b *Blocklist) Remove(text string) error {
	if _, err := b.db.Exec("DELETE FROM blocked_hashes WHERE hash = ?", Hash(text)); err != nil {
		return fmt.Errorf("failed to unblock content: %w", err)
	}
	return nil
}

// Len returns the number of blocked digests.
func (b *Blocklist) Len() (int, error) {
	var count int
	if err := b.db.QueryRow("SELECT COUNT(*) FROM blocked_hashes").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count blocklist: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (b *Blocklist) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
