package codec

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// previewLimit bounds how much raw/cleaned text an InvalidOutputError carries.
const previewLimit = 200

// InvalidOutputError reports model output that could not be decoded into the
// expected shape, with bounded previews of the raw and cleaned text for
// diagnostics. It is not retried here; the caller's retry layer decides.
type InvalidOutputError struct {
	Label   string
	Raw     string
	Cleaned string
	Err     error
}

func (e *InvalidOutputError) Error() string {
	return fmt.Sprintf("codec: invalid structured output for %s: %v (raw: %q, cleaned: %q)",
		e.Label, e.Err, e.Raw, e.Cleaned)
}

func (e *InvalidOutputError) Unwrap() error { return e.Err }

func invalidOutput(label, raw, cleaned string, err error) *InvalidOutputError {
	return &InvalidOutputError{
		Label:   label,
		Raw:     preview(raw),
		Cleaned: preview(cleaned),
		Err:     err,
	}
}

func preview(s string) string {
	if len(s) > previewLimit {
		return s[:previewLimit] + "..."
	}
	return s
}

// Decode extracts a JSON object from raw model text and unmarshals it into v.
// The label names the call site in diagnostics (e.g. "outline", "module").
func Decode(raw string, v any, label string) error {
	cleaned, ok := Extract(raw)
	if !ok {
		return invalidOutput(label, raw, "", fmt.Errorf("no balanced JSON object in response"))
	}

	cleaned = removeTrailingCommas(cleaned)
	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}

	repaired := fixUnescapedQuotes(cleaned)
	if err := json.Unmarshal([]byte(repaired), v); err == nil {
		return nil
	}

	// Aggressive pass: restart from the raw text, drop every fence marker,
	// collapse to the first-to-last brace span and strip trailing commas.
	salvaged, ok := salvage(raw)
	if !ok {
		return invalidOutput(label, raw, cleaned, fmt.Errorf("no brace span to salvage"))
	}
	if err := json.Unmarshal([]byte(salvaged), v); err != nil {
		return invalidOutput(label, raw, salvaged, err)
	}
	return nil
}

// Extract strips markdown code fences and pulls the first balanced top-level
// JSON object out of s, discarding any leading or trailing prose. The scan
// tracks quoted-string and escape state so braces inside strings don't count.
func Extract(s string) (string, bool) {
	s = stripFences(strings.TrimSpace(s))
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// string contents never affect depth
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// stripFences removes a leading ```json (or bare ```) fence and its closing
// fence, leaving the inner text intact.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// removeTrailingCommas drops commas that directly precede a closing bracket,
// skipping over string contents.
func removeTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && c == ',':
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue // drop the comma
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// fixUnescapedQuotes escapes interior double quotes inside string values.
// A quote is treated as interior when the next non-space character could not
// legally follow a string terminator. Best effort only.
func fixUnescapedQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			if inString && isInteriorQuote(s, i) {
				b.WriteString(`\"`)
				continue
			}
			inString = !inString
		}
		b.WriteByte(c)
	}
	return b.String()
}

// isInteriorQuote reports whether the quote at index i sits in the middle of
// a string value rather than terminating it.
func isInteriorQuote(s string, i int) bool {
	j := i + 1
	for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
		j++
	}
	if j >= len(s) {
		return false
	}
	switch s[j] {
	case ',', ':', '}', ']', '\n', '\r':
		return false
	}
	return true
}

var fenceMarker = regexp.MustCompile("```[a-zA-Z]*")

// salvage is the last-resort cleanup: remove every fence marker, keep the
// first-to-last brace span, strip trailing commas.
func salvage(s string) (string, bool) {
	s = fenceMarker.ReplaceAllString(s, "")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return removeTrailingCommas(s[start : end+1]), true
}
