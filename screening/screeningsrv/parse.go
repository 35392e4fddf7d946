package screeningsrv

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Abraxas-365/screener/pkg/errx"
	"github.com/Abraxas-365/screener/screening"
)

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// extractJSON pulls the first JSON object out of an LLM response.
// Models wrap JSON in markdown fences or prefix it with prose often
// enough that naive unmarshalling fails; try the fenced block first,
// then fall back to brace matching over the raw text.
func extractJSON(response string) (string, bool) {
	response = strings.TrimSpace(response)
	if response == "" {
		return "", false
	}

	if m := fencedJSONRe.FindStringSubmatch(response); len(m) == 2 {
		return m[1], true
	}

	start := strings.Index(response, "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		c := response[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return response[start : i+1], true
				}
			}
		}
	}

	return "", false
}

// truncate cuts text to the model's character window. Long inputs are
// truncated, never rejected. The cut backs off to a rune boundary so a
// multi-byte character at the window edge is dropped, not split.
func truncate(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// llmErr maps a text-service failure onto its domain code. Deadline
// expiry gets its own code so callers can tell slow apart from broken.
func llmErr(err error, wrap func(error) *errx.Error) *errx.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return screening.ErrLLMTimeout(err)
	}
	return wrap(err)
}
