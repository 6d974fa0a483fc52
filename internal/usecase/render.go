package usecase

import (
	"strings"

	"github.com/dmitriid/svx/internal/adapter/escape"
	"github.com/dmitriid/svx/internal/domain"
)

// Render turns a token sequence back into literal text, restoring masked
// expression delimiters. Attribute order is preserved; literal values keep
// the quote delimiter recorded at tokenize time, expression values render
// as name={expr}. Pure and deterministic.
func Render(tokens []domain.Token) string {
	var b strings.Builder

	for _, tok := range tokens {
		switch tok.Kind {
		case domain.Text:
			b.WriteString(tok.Body)

		case domain.TagOpen:
			b.WriteByte('<')
			b.WriteString(tok.Name)
			for _, attr := range tok.Attrs {
				b.WriteByte(' ')
				b.WriteString(attr.Name)
				switch attr.Kind {
				case domain.AttrBare:
				case domain.AttrExpr:
					b.WriteString("={")
					b.WriteString(attr.Value)
					b.WriteByte('}')
				default:
					b.WriteByte('=')
					if attr.Delim != 0 {
						b.WriteByte(attr.Delim)
					}
					b.WriteString(attr.Value)
					if attr.Delim != 0 {
						b.WriteByte(attr.Delim)
					}
				}
			}
			if tok.SelfClosing {
				b.WriteString("/>")
			} else {
				b.WriteByte('>')
			}

		case domain.TagClose:
			b.WriteString("</")
			b.WriteString(tok.Name)
			b.WriteByte('>')
		}
	}

	return escape.Unmask(b.String())
}
