package parsers

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	errx "github.com/legal-consult-agent/server/internal/core/error"
	logx "github.com/legal-consult-agent/server/pkg/logger"
)

// basic safety limits to avoid pathological model outputs
const (
	maxContentLen = 64 * 1024 // 64KB
	maxErrSnippet = 200       // limit error snippet size
)

// ParseJudgment extracts the JSON object from a judgment-model response and
// decodes it into T, then runs the schema's validate function over the
// decoded value. Every failure is a schema violation: judgment outputs are
// enum-constrained and there is no safe default for an out-of-domain value.
func ParseJudgment[T any](content string, validate func(*T) error) (out *T, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "judgment_parser").Msgf("panic recovered: %v", r)
			err = errx.SchemaViolation(fmt.Errorf("judgment parser panic"))
			out = nil
		}
	}()

	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "judgment_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
	}
	if !utf8.ValidString(content) {
		return nil, errx.SchemaViolation(fmt.Errorf("judgment output is not valid utf8"))
	}

	raw, err := extractObject(content)
	if err != nil {
		return nil, errx.SchemaViolation(fmt.Errorf("no JSON object in judgment output: %s", safeSnippet(content)))
	}

	out = new(T)
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return nil, errx.SchemaViolation(fmt.Errorf("decode judgment: %w (%s)", err, safeSnippet(raw)))
	}
	if validate != nil {
		if err := validate(out); err != nil {
			return nil, errx.SchemaViolation(err)
		}
	}
	return out, nil
}

// extractObject returns the outermost JSON object in s. Models often wrap
// JSON in markdown fences or prose; everything outside the braces is ignored.
func extractObject(s string) (string, error) {
	s = strings.TrimSpace(s)

	// strip a ```json ... ``` fence when present
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	if start < 0 {
		return "", fmt.Errorf("no opening brace")
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
			// skip structural chars inside strings
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced braces")
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
