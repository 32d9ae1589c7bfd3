package opt

import "strings"

// Tokenize splits a command-line string using GNU shell conventions:
// whitespace separates tokens, single quotes preserve everything up to
// the closing quote, double quotes preserve everything except \" and
// \\ escapes, and a backslash outside quotes escapes the next rune.
// An unterminated quote runs to the end of the string. Quoted empty
// strings produce empty tokens.
func Tokenize(line string) []string {
	var toks []string
	var cur strings.Builder
	quoted := false // saw a quote in the current token, keep even if empty

	flush := func() {
		if cur.Len() > 0 || quoted {
			toks = append(toks, cur.String())
		}
		cur.Reset()
		quoted = false
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch c {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			flush()
		case '\\':
			if i+1 < len(line) {
				i++
				cur.WriteByte(line[i])
			}
		case '\'':
			quoted = true
			j := i + 1
			for j < len(line) && line[j] != '\'' {
				cur.WriteByte(line[j])
				j++
			}
			i = j
		case '"':
			quoted = true
			j := i + 1
			for j < len(line) && line[j] != '"' {
				if line[j] == '\\' && j+1 < len(line) && (line[j+1] == '"' || line[j+1] == '\\') {
					j++
				}
				cur.WriteByte(line[j])
				j++
			}
			i = j
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return toks
}
