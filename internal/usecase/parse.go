package usecase

import (
	"fmt"
	"strings"

	"github.com/dmitriid/svx/internal/domain"
)

type splitState int

const (
	stateContent splitState = iota
	stateModule
	stateStyle
)

// SplitSections partitions a token stream into the module, content and
// style sections of one source document in a single left-to-right pass.
// A document may carry at most one module section and at most one style
// section; a second one is a hard parse error.
func SplitSections(path string, tokens []domain.Token) (domain.ParsedSections, error) {
	sections := domain.ParsedSections{Path: path}
	state := stateContent

	for _, tok := range tokens {
		switch state {
		case stateContent:
			switch {
			case isModuleOpen(tok):
				if len(sections.Module) > 0 {
					return sections, &domain.ParseError{
						Path:        path,
						Line:        tok.Line,
						Col:         tok.Col,
						Description: "Can only have one module per file",
					}
				}
				state = stateModule
			case isStyleOpen(tok):
				if len(sections.Style) > 0 {
					return sections, &domain.ParseError{
						Path:        path,
						Line:        tok.Line,
						Col:         tok.Col,
						Description: "Can only have one css per file",
					}
				}
				state = stateStyle
			default:
				sections.Content = append(sections.Content, tok)
			}

		case stateModule:
			switch {
			case tok.Kind == domain.TagClose && strings.EqualFold(tok.Name, "script"):
				state = stateContent
			case tok.Kind == domain.Text:
				sections.Module = append(sections.Module, tok)
			default:
				return sections, fmt.Errorf("%s: unexpected %s inside script section at %d:%d",
					path, tokenLabel(tok), tok.Line, tok.Col)
			}

		case stateStyle:
			switch {
			case tok.Kind == domain.TagClose && strings.EqualFold(tok.Name, "style"):
				state = stateContent
			case tok.Kind == domain.Text:
				sections.Style = append(sections.Style, tok)
			default:
				return sections, fmt.Errorf("%s: unexpected %s inside style section at %d:%d",
					path, tokenLabel(tok), tok.Line, tok.Col)
			}
		}
	}

	return sections, nil
}

// isModuleOpen recognizes <script language="elixir">. The language
// attribute must be a literal; an expression-valued language is ordinary
// content. Any other <script> tag stays in the content section verbatim.
func isModuleOpen(tok domain.Token) bool {
	if tok.Kind != domain.TagOpen || !strings.EqualFold(tok.Name, "script") {
		return false
	}
	for _, attr := range tok.Attrs {
		if strings.EqualFold(attr.Name, "language") &&
			attr.Kind == domain.AttrLiteral &&
			attr.Value == "elixir" {
			return true
		}
	}
	return false
}

func isStyleOpen(tok domain.Token) bool {
	return tok.Kind == domain.TagOpen && strings.EqualFold(tok.Name, "style")
}

func tokenLabel(tok domain.Token) string {
	switch tok.Kind {
	case domain.TagOpen:
		return fmt.Sprintf("<%s>", tok.Name)
	case domain.TagClose:
		return fmt.Sprintf("</%s>", tok.Name)
	default:
		return "text"
	}
}
