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
	"errors"

	"github.com/adaryorg/clipkeep/internal/logging"
)

// ErrNoBlocklist is returned by Block when the policy has no blocklist.
var ErrNoBlocklist = errors.New("blocklist disabled")

// Policy decides whether clipboard text may enter the history. Either part
// may be nil.
type Policy struct {
	detector  *Detector
	blocklist *Blocklist
}

// NewPolicy combines a secret detector and a user blocklist.
func NewPolicy(detector *Detector, blocklist *Blocklist) *Policy {
	return &Policy{detector: detector, blocklist: blocklist}
}

// Allow reports whether text may be recorded. When it may not, reason says
// why.
func (p *Policy) Allow(text string) (bool, string) {
	if p == nil || text == "" {
		return true, ""
	}

	if p.blocklist != nil {
		entry, err := p.blocklist.Get(text)
		if err != nil {
			// Lookup errors fail open.
			logging.Warn("Blocklist lookup failed: %v", err)
		} else if entry != nil {
			return false, "blocked: " + entry.Reason
		}
	}

	if p.detector != nil {
		if sensitive, reason := p.detector.Sensitive(text); sensitive {
			return false, reason
		}
	}

	return true, ""
}

// Block adds text to the blocklist so it is never recorded again.
func (p *Policy) Block(text, reason string) error {
	if p == nil || p.blocklist == nil {
		return ErrNoBlocklist
	}
	return p.blocklist.Add(text, reason)
}
