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

package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DatabaseFileName is the SQLite file created inside the state directory.
const DatabaseFileName = "history.db"

// SQLiteStore implements Store on a single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) createTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS pinned_index (
			position INTEGER PRIMARY KEY,
			id TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS pinned_content (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			saved_at DATETIME NOT NULL
		)
	`)
	return err
}

func (s *SQLiteStore) LoadIndex() ([]IndexEntry, error) {
	rows, err := s.db.Query("SELECT id FROM pinned_index ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []IndexEntry
	for rows.Next() {
		var entry IndexEntry
		if err := rows.Scan(&entry.ID); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SaveIndex replaces the whole index in one transaction.
func (s *SQLiteStore) SaveIndex(entries []IndexEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM pinned_index"); err != nil {
		return err
	}
	for i, entry := range entries {
		if _, err := tx.Exec("INSERT INTO pinned_index (position, id) VALUES (?, ?)", i, entry.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadContent(id string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}

	var content string
	err := s.db.QueryRow("SELECT content FROM pinned_content WHERE id = ?", id).Scan(&content)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return content, nil
}

func (s *SQLiteStore) SaveContent(id, text string) error {
	if err := validateID(id); err != nil {
		return err
	}

	query := "INSERT OR REPLACE INTO pinned_content (id, content, saved_at) VALUES (?, ?, ?)"
	_, err := s.db.Exec(query, id, text, time.Now())
	return err
}

func (s *SQLiteStore) DeleteContent(id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	_, err := s.db.Exec("DELETE FROM pinned_content WHERE id = ?", id)
	return err
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
