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
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a pinned entry has no stored content.
	ErrNotFound = errors.New("entry content not found")

	// ErrInvalidID is returned for ids that cannot name a content unit.
	ErrInvalidID = errors.New("invalid entry id")
)

// IndexEntry is one record of the pinned-entry index. Every indexed entry is
// pinned; the slice order is the pinned display order.
type IndexEntry struct {
	ID string `json:"id"`
}

// Store is durable storage for pinned entries: one index document plus one
// content unit per entry id.
type Store interface {
	LoadIndex() ([]IndexEntry, error)
	SaveIndex(entries []IndexEntry) error
	LoadContent(id string) (string, error)
	SaveContent(id, text string) error
	DeleteContent(id string) error
}

func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0) {
		return ErrInvalidID
	}
	return nil
}
