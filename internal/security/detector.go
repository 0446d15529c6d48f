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
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// DefaultThreshold is the confidence at which a finding makes text sensitive.
const DefaultThreshold = 0.8

// Finding describes one reason text looks like a secret.
type Finding struct {
	Kind       string  // "jwt", "api_key", "private_key", "password", ...
	Confidence float64 // 0.0 to 1.0
	Reason     string
}

type rule struct {
	name    string
	pattern *regexp.Regexp
	finding Finding
}

// Detector flags clipboard text that looks like credentials or key material.
type Detector struct {
	rules     []rule
	threshold float64
}

// NewDetector returns a detector with the built-in rules and DefaultThreshold.
func NewDetector() *Detector {
	return &Detector{rules: builtinRules(), threshold: DefaultThreshold}
}

// WithThreshold returns a copy of d that reports text as sensitive at t.
func (d *Detector) WithThreshold(t float64) *Detector {
	clone := *d
	clone.threshold = t
	return &clone
}

func builtinRules() []rule {
	specs := []struct {
		name, pattern string
		finding       Finding
	}{
		{"jwt", `^[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}$`,
			Finding{"jwt", 0.95, "JWT token detected (3-part base64 structure)"}},
		{"github_token", `^(ghp_|gho_|ghu_|ghs_|ghr_)[A-Za-z0-9_]{36,}$`,
			Finding{"api_key", 0.98, "GitHub personal access token detected"}},
		{"aws_access_key", `^AKIA[0-9A-Z]{16}$`,
			Finding{"api_key", 0.95, "AWS access key detected"}},
		{"google_api", `^AIza[0-9A-Za-z_-]{35}$`,
			Finding{"api_key", 0.95, "Google API key detected"}},
		{"slack_token", `^xox[baprs]-[0-9a-zA-Z-]{10,}$`,
			Finding{"api_key", 0.95, "Slack token detected"}},
		{"stripe_key", `^(sk|rk)_(test_|live_)?[0-9a-zA-Z]{24,}$`,
			Finding{"api_key", 0.95, "Stripe secret key detected"}},
		{"private_key", `-----BEGIN (RSA |DSA |EC |OPENSSH |ENCRYPTED |PGP )?PRIVATE KEY( BLOCK)?-----`,
			Finding{"private_key", 0.99, "Private key detected"}},
		{"db_url", `^(postgres|postgresql|mysql|mongodb|mongodb\+srv|redis|amqp)://[^:/\s]+:[^@\s]+@\S+$`,
			Finding{"connection_string", 0.9, "Connection string with credentials detected"}},
		{"bearer_token", `(?i)^(authorization:\s*)?bearer\s+[A-Za-z0-9_.=-]{20,}$`,
			Finding{"token", 0.9, "Bearer token detected"}},
		{"password_field", `(?i)\b(password|passwd|pwd|secret|api[_-]?key|token)\s*[:=]\s*\S{8,}`,
			Finding{"password", 0.8, "Password field detected"}},
	}

	rules := make([]rule, 0, len(specs))
	for _, s := range specs {
		rules = append(rules, rule{name: s.name, pattern: regexp.MustCompile(s.pattern), finding: s.finding})
	}
	return rules
}

// Scan returns every finding for text, in rule order followed by heuristics.
func (d *Detector) Scan(text string) []Finding {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var findings []Finding
	for _, r := range d.rules {
		if r.pattern.MatchString(text) {
			findings = append(findings, r.finding)
		}
	}

	switch passwordClasses(text) {
	case 4:
		findings = append(findings, Finding{"password", 0.85, "Potential password detected based on character complexity"})
	case 3:
		findings = append(findings, Finding{"password", 0.6, "Mixed-character word, possibly a password"})
	}
	if isSensitiveEnvAssignment(text) {
		findings = append(findings, Finding{"env_secret", 0.8, "Environment variable with sensitive name"})
	}
	if hasSensitiveQuery(text) {
		findings = append(findings, Finding{"url_with_params", 0.85, "URL carries a credential query parameter"})
	}

	return findings
}

// Sensitive reports whether text should be kept out of the history, and the
// reason of the strongest finding.
func (d *Detector) Sensitive(text string) (bool, string) {
	top, ok := Strongest(d.Scan(text))
	if !ok || top.Confidence < d.threshold {
		return false, ""
	}
	return true, top.Reason
}

// Strongest returns the finding with the highest confidence.
func Strongest(findings []Finding) (Finding, bool) {
	if len(findings) == 0 {
		return Finding{}, false
	}
	top := findings[0]
	for _, f := range findings[1:] {
		if f.Confidence > top.Confidence {
			top = f
		}
	}
	return top, true
}

// passwordClasses counts the character classes (upper, lower, digit, symbol)
// of a single 8 to 40 character word. URLs, paths and hex or uuid identifiers
// count as zero.
func passwordClasses(text string) int {
	if strings.ContainsAny(text, " \t\r\n") {
		return 0
	}
	if len(text) < 8 || len(text) > 40 {
		return 0
	}
	if strings.Contains(text, "://") || strings.ContainsAny(text, `/\`) {
		return 0
	}
	if isHex(strings.ReplaceAll(text, "-", "")) {
		return 0
	}
	if strings.Count(text, ".") >= 2 {
		return 0 // versions, hostnames, package names
	}

	var upper, lower, digit, special bool
	for _, c := range text {
		switch {
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.ContainsRune("!@#$%^&*()_+-=[]{}|;:,.<>?~", c):
			special = true
		}
	}

	classes := 0
	for _, present := range []bool{upper, lower, digit, special} {
		if present {
			classes++
		}
	}
	return classes
}

var sensitiveEnvNames = []string{
	"PASSWORD", "PASSWD", "SECRET", "TOKEN", "API_KEY", "ACCESS_KEY",
	"PRIVATE_KEY", "CLIENT_SECRET", "AUTH_TOKEN", "DATABASE_URL",
}

func isSensitiveEnvAssignment(text string) bool {
	upper := strings.ToUpper(text)
	for _, name := range sensitiveEnvNames {
		if strings.Contains(upper, name+"=") {
			return true
		}
	}
	return false
}

var sensitiveParams = []string{
	"token=", "access_token=", "api_key=", "apikey=", "secret=",
	"password=", "client_secret=", "refresh_token=", "sig=",
}

func hasSensitiveQuery(text string) bool {
	if strings.ContainsAny(text, " \t\r\n") {
		return false
	}
	if !strings.HasPrefix(text, "http://") && !strings.HasPrefix(text, "https://") {
		return false
	}
	q := strings.Index(text, "?")
	if q < 0 {
		return false
	}
	query := strings.ToLower(text[q+1:])
	for _, param := range sensitiveParams {
		if strings.HasPrefix(query, param) || strings.Contains(query, "&"+param) {
			return true
		}
	}
	return false
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// Hash returns the SHA-256 hex digest used to remember blocked text.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
