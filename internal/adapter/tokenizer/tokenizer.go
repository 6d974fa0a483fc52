// Package tokenizer adapts the golang.org/x/net/html tokenizer to the
// domain token model. The underlying tokenizer is treated as a black box
// that turns text into a flat stream of tag-open, tag-close and text
// tokens; attribute delimiters and original tag-name case are recovered
// from the raw token bytes since the generic tokenizer normalizes both.
package tokenizer

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dmitriid/svx/internal/domain"
)

type Adapter struct{}

func New() *Adapter {
	return &Adapter{}
}

// Tokenize runs the markup tokenizer over masked document text. Positions
// start at line 1, column 1 of the given text; they are not tied to any
// file and are only used for duplicate-section error reporting. A
// tokenizer failure propagates as an error, there is no retry.
func (a *Adapter) Tokenize(text string) ([]domain.Token, error) {
	z := html.NewTokenizer(strings.NewReader(text))

	var tokens []domain.Token
	line, col := 1, 1

	for {
		tt := z.Next()
		raw := string(z.Raw())

		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, fmt.Errorf("tokenize: %w", err)
			}
			return tokens, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			tok, err := parseTag(raw)
			if err != nil {
				return nil, fmt.Errorf("tokenize at %d:%d: %w", line, col, err)
			}
			tok.SelfClosing = tt == html.SelfClosingTagToken
			tok.Line, tok.Col = line, col
			tokens = append(tokens, tok)

		case html.EndTagToken:
			name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(raw, "</"), ">"))
			tokens = append(tokens, domain.Token{
				Kind: domain.TagClose,
				Name: name,
				Line: line,
				Col:  col,
			})

		default:
			// Text, comments and doctypes pass through with their raw
			// bytes so entities survive reconstruction untouched.
			tokens = append(tokens, domain.Token{
				Kind: domain.Text,
				Body: raw,
				Line: line,
				Col:  col,
			})
		}

		line, col = advance(line, col, raw)
	}
}

// parseTag recovers name, attribute order, value kinds and quote
// delimiters from the raw bytes of a start tag.
func parseTag(raw string) (domain.Token, error) {
	s := strings.TrimPrefix(raw, "<")
	s = strings.TrimSuffix(s, ">")
	s = strings.TrimSuffix(s, "/")

	i := 0
	for i < len(s) && !isSpace(s[i]) {
		i++
	}
	tok := domain.Token{Kind: domain.TagOpen, Name: s[:i]}
	if tok.Name == "" {
		return tok, fmt.Errorf("malformed tag %q", raw)
	}

	attrs, err := parseAttrs(s[i:])
	if err != nil {
		return tok, fmt.Errorf("tag %q: %w", tok.Name, err)
	}
	tok.Attrs = attrs
	return tok, nil
}

func parseAttrs(s string) ([]domain.Attr, error) {
	var attrs []domain.Attr
	i := 0
	for {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			return attrs, nil
		}

		start := i
		for i < len(s) && !isSpace(s[i]) && s[i] != '=' {
			i++
		}
		attr := domain.Attr{Name: s[start:i], Kind: domain.AttrBare}
		if attr.Name == "" {
			return nil, fmt.Errorf("malformed attribute near %q", s[i:])
		}

		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) || s[i] != '=' {
			attrs = append(attrs, attr)
			continue
		}
		i++ // consume '='
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			attrs = append(attrs, attr)
			continue
		}

		switch s[i] {
		case '"', '\'':
			delim := s[i]
			i++
			start = i
			for i < len(s) && s[i] != delim {
				i++
			}
			if i >= len(s) {
				return nil, fmt.Errorf("unterminated %c-quoted value for %q", delim, attr.Name)
			}
			attr.Kind = domain.AttrLiteral
			attr.Value = s[start:i]
			attr.Delim = delim
			i++
		case '{':
			// Expression value: balanced braces, body is opaque.
			depth := 0
			start = i + 1
			for ; i < len(s); i++ {
				if s[i] == '{' {
					depth++
				} else if s[i] == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
			}
			if depth != 0 {
				return nil, fmt.Errorf("unterminated expression value for %q", attr.Name)
			}
			attr.Kind = domain.AttrExpr
			attr.Value = s[start:i]
			i++
		default:
			start = i
			for i < len(s) && !isSpace(s[i]) {
				i++
			}
			attr.Kind = domain.AttrLiteral
			attr.Value = s[start:i]
		}
		attrs = append(attrs, attr)
	}
}

func advance(line, col int, raw string) (int, int) {
	if nl := strings.LastIndexByte(raw, '\n'); nl >= 0 {
		return line + strings.Count(raw, "\n"), len(raw) - nl
	}
	return line, col + len(raw)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
