package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
)

// decodeModelJSON parses a chat-model response into dst. The response is
// untrusted input: code fences are stripped and common JSON defects repaired
// before the response counts as malformed.
func decodeModelJSON(raw string, dst any) error {
	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		return domain.ErrMalformedModelOutput
	}

	if err := json.Unmarshal([]byte(cleaned), dst); err == nil {
		return nil
	}

	if err := json.Unmarshal([]byte(repairJSON(cleaned)), dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedModelOutput, err)
	}
	return nil
}

// stripCodeFences removes a leading ``` or ```json line and a trailing ```
// line from a model response, if present.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	lines = lines[1:]
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// repairJSON fixes the malformed constructs chat models most often emit:
// unquoted object keys and trailing commas. String literal content is left
// untouched; anything else it cannot fix passes through for the JSON parser
// to reject.
func repairJSON(input string) string {
	var out strings.Builder
	out.Grow(len(input) + 16)

	runes := []rune(input)
	var stack []rune
	inString := false
	escaped := false

	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if inString {
			out.WriteRune(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch {
		case ch == '"':
			inString = true
			out.WriteRune(ch)

		case ch == '{' || ch == '[':
			stack = append(stack, ch)
			out.WriteRune(ch)

		case ch == '}' || ch == ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			out.WriteRune(ch)

		case ch == ',':
			// A comma followed only by whitespace and a closing bracket is
			// a trailing comma; drop it.
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if j < len(runes) && (runes[j] == '}' || runes[j] == ']') {
				continue
			}
			out.WriteRune(ch)

		case isIdentRune(ch, true) && len(stack) > 0 && stack[len(stack)-1] == '{':
			// A bare identifier in object position followed by a colon is
			// an unquoted key; quote it. Bare values (true, null) are never
			// followed by a colon and pass through unchanged.
			j := i
			for j < len(runes) && isIdentRune(runes[j], j == i) {
				j++
			}
			k := j
			for k < len(runes) && unicode.IsSpace(runes[k]) {
				k++
			}
			if k < len(runes) && runes[k] == ':' {
				out.WriteRune('"')
				out.WriteString(string(runes[i:j]))
				out.WriteRune('"')
			} else {
				out.WriteString(string(runes[i:j]))
			}
			i = j - 1

		default:
			out.WriteRune(ch)
		}
	}

	return out.String()
}

func isIdentRune(ch rune, first bool) bool {
	if unicode.IsLetter(ch) || ch == '_' || ch == '$' {
		return true
	}
	return !first && unicode.IsDigit(ch)
}
