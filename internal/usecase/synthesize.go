package usecase

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/dmitriid/svx/internal/adapter/escape"
	"github.com/dmitriid/svx/internal/domain"
	"github.com/dmitriid/svx/internal/port"
)

// Synthesizer turns one source document into a compiled unit and submits
// it to the host loader. Every failure is contained at this boundary:
// instead of propagating, a failed document compiles to a diagnostic
// stand-in unit that renders the escaped error text and contributes no
// style.
type Synthesizer struct {
	tokenizer port.Tokenizer
	loader    port.Loader
	root      string
	namespace string
	logger    *slog.Logger
}

func NewSynthesizer(tokenizer port.Tokenizer, loader port.Loader, root, namespace string, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		tokenizer: tokenizer,
		loader:    loader,
		root:      root,
		namespace: namespace,
		logger:    logger,
	}
}

// Compile parses, reconstructs and loads one document. It never returns
// an error; a document that cannot be compiled yields a diagnostic unit.
func (s *Synthesizer) Compile(path string, kind domain.DocumentKind, content string) domain.CompiledUnit {
	unit, err := s.compile(path, kind, content)
	if err != nil {
		s.logger.Error("compile failed", "path", path, "error", err)
		return s.Fallback(path, err)
	}
	return unit
}

func (s *Synthesizer) compile(path string, kind domain.DocumentKind, content string) (unit domain.CompiledUnit, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while compiling %s: %v", path, r)
		}
	}()

	masked := escape.Mask(content)

	tokens, err := s.tokenizer.Tokenize(masked)
	if err != nil {
		return unit, err
	}

	sections, err := SplitSections(path, tokens)
	if err != nil {
		return unit, err
	}

	name := s.ModuleName(path)
	moduleCode := Render(sections.Module)
	template := Render(sections.Content)
	styleText := Render(sections.Style)

	unit = domain.CompiledUnit{
		Name:     name,
		Kind:     kind,
		Source:   unitSource(name, kind, moduleCode, template),
		Template: template,
	}
	if strings.TrimSpace(styleText) != "" {
		unit.Style = []string{styleText}
	}

	if err := s.loader.Load(unit); err != nil {
		return unit, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return unit, nil
}

// Fallback builds and loads the diagnostic stand-in unit for a document
// that failed to compile. The unit renders the escaped error description
// and contributes no style text.
func (s *Synthesizer) Fallback(path string, cause error) domain.CompiledUnit {
	name := s.ModuleName(path)
	msg := fmt.Sprintf("%s failed to compile:\n\n%v", path, cause)
	template := "<pre class=\"svx-error\">" + html.EscapeString(msg) + "</pre>"

	unit := domain.CompiledUnit{
		Name:       name,
		Kind:       domain.KindLive,
		Source:     unitSource(name, domain.KindLive, "", template),
		Template:   template,
		Diagnostic: true,
	}
	if err := s.loader.Load(unit); err != nil {
		s.logger.Error("failed to load diagnostic unit", "path", path, "error", err)
	}
	return unit
}

// ModuleName derives the namespaced unit name from the path relative to
// the source root: components/nav_bar.svx under namespace Web becomes
// Web.Components.NavBar.
func (s *Synthesizer) ModuleName(path string) string {
	rel, err := filepath.Rel(s.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))

	parts := strings.FieldsFunc(rel, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	for i, part := range parts {
		parts[i] = camelize(part)
	}
	return s.namespace + "." + strings.Join(parts, ".")
}

func camelize(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if r == '-' || r == '_' || r == '.' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// unitSource wraps module code and template markup into one compilable
// unit text. The host runtime keeps units as data, so this text is what a
// code-loading host would consume, retained on the unit for inspection.
func unitSource(name string, kind domain.DocumentKind, code, template string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "defmodule %s do\n", name)
	if kind == domain.KindStatic {
		b.WriteString("  use Svx.Component\n")
	} else {
		b.WriteString("  use Svx.LiveComponent\n")
	}

	if code = strings.TrimRight(code, " \t\n"); strings.TrimSpace(code) != "" {
		b.WriteByte('\n')
		for _, line := range strings.Split(code, "\n") {
			if strings.TrimSpace(line) == "" {
				b.WriteByte('\n')
				continue
			}
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	b.WriteString("\n  def render(assigns) do\n    ~H\"\"\"\n")
	b.WriteString(strings.Trim(template, "\n"))
	b.WriteString("\n    \"\"\"\n  end\nend\n")

	return b.String()
}
