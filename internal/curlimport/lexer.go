package curlimport

import (
	"fmt"
	"strings"
)

// token is one shell word. quoted is set when the word opens with a quote.
type token struct {
	text   string
	quoted bool
}

// joinContinuations removes backslash-newline line continuations.
func joinContinuations(s string) string {
	s = strings.ReplaceAll(s, "\\\r\n", "")
	return strings.ReplaceAll(s, "\\\n", "")
}

// splitWords splits a POSIX-shell style command line into words. Single
// quotes and $'...' are taken literally (apart from \' inside $'...'), so
// escape sequences such as \n survive for the body cleanup step. Double
// quotes honour \" \\ \$ and \`.
func splitWords(s string) ([]token, error) {
	var (
		words  []token
		cur    strings.Builder
		inWord bool
		quoted bool
	)
	flush := func() {
		if inWord {
			words = append(words, token{text: cur.String(), quoted: quoted})
		}
		cur.Reset()
		inWord, quoted = false, false
	}

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()

		case r == '\'':
			end := indexRune(runes, i+1, '\'')
			if end < 0 {
				return nil, fmt.Errorf("unterminated single quote at offset %d", i)
			}
			cur.WriteString(string(runes[i+1 : end]))
			quoted = quoted || !inWord
			inWord = true
			i = end

		case r == '$' && i+1 < len(runes) && runes[i+1] == '\'':
			j := i + 2
			for ; j < len(runes); j++ {
				if runes[j] == '\\' && j+1 < len(runes) && runes[j+1] == '\'' {
					cur.WriteRune('\'')
					j++
					continue
				}
				if runes[j] == '\'' {
					break
				}
				cur.WriteRune(runes[j])
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("unterminated $' quote at offset %d", i)
			}
			quoted = quoted || !inWord
			inWord = true
			i = j

		case r == '"':
			j := i + 1
			for ; j < len(runes) && runes[j] != '"'; j++ {
				if runes[j] == '\\' && j+1 < len(runes) && strings.ContainsRune("\"\\$`", runes[j+1]) {
					j++
				}
				cur.WriteRune(runes[j])
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("unterminated double quote at offset %d", i)
			}
			quoted = quoted || !inWord
			inWord = true
			i = j

		case r == '\\' && i+1 < len(runes):
			cur.WriteRune(runes[i+1])
			inWord = true
			i++

		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	flush()
	return words, nil
}

func indexRune(runes []rune, from int, target rune) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == target {
			return i
		}
	}
	return -1
}
