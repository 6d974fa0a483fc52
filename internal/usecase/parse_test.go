package usecase

import (
	"errors"
	"strings"
	"testing"

	"github.com/dmitriid/svx/internal/adapter/escape"
	"github.com/dmitriid/svx/internal/adapter/tokenizer"
	"github.com/dmitriid/svx/internal/domain"
)

func splitDoc(t *testing.T, doc string) (domain.ParsedSections, error) {
	t.Helper()
	tokens, err := tokenizer.New().Tokenize(escape.Mask(doc))
	if err != nil {
		t.Fatal(err)
	}
	return SplitSections("/src/test.svx", tokens)
}

const fullDoc = `<script language="elixir">
def mount(socket) do
  {:ok, assign(socket, name: "world")}
end
</script>

<h1>Hello <%= @name %></h1>

<style>
h1 { color: red }
</style>`

func TestSplitSectionsFullDocument(t *testing.T) {
	sections, err := splitDoc(t, fullDoc)
	if err != nil {
		t.Fatal(err)
	}

	module := Render(sections.Module)
	if !strings.Contains(module, "def mount(socket) do") {
		t.Errorf("module section missing code: %q", module)
	}
	if strings.Contains(module, "<script") {
		t.Errorf("module section contains tag markup: %q", module)
	}

	content := Render(sections.Content)
	if !strings.Contains(content, "<h1>Hello <%= @name %></h1>") {
		t.Errorf("content section missing markup: %q", content)
	}
	if strings.Contains(content, "color: red") {
		t.Errorf("content section leaked style text: %q", content)
	}

	style := Render(sections.Style)
	if !strings.Contains(style, "h1 { color: red }") {
		t.Errorf("style section missing css: %q", style)
	}
}

func TestSplitSectionsNoOptionalSections(t *testing.T) {
	sections, err := splitDoc(t, "<p>just content</p>")
	if err != nil {
		t.Fatal(err)
	}
	if len(sections.Module) != 0 || len(sections.Style) != 0 {
		t.Errorf("expected empty module and style sections: %+v", sections)
	}
}

func TestSplitSectionsDuplicateModule(t *testing.T) {
	doc := `<script language="elixir">def a, do: 1</script>
<script language="elixir">def b, do: 2</script>`

	_, err := splitDoc(t, doc)
	if err == nil {
		t.Fatal("expected error for second module section")
	}

	var perr *domain.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
	if !strings.Contains(perr.Description, "one module per file") {
		t.Errorf("unexpected description: %q", perr.Description)
	}
	if perr.Line != 2 {
		t.Errorf("expected error on line 2, got %d", perr.Line)
	}
}

func TestSplitSectionsDuplicateStyle(t *testing.T) {
	doc := `<style>a { }</style>
<style>b { }</style>`

	_, err := splitDoc(t, doc)
	if err == nil {
		t.Fatal("expected error for second style section")
	}

	var perr *domain.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
	if !strings.Contains(perr.Description, "one css per file") {
		t.Errorf("unexpected description: %q", perr.Description)
	}
}

func TestSplitSectionsPlainScriptStaysInContent(t *testing.T) {
	doc := `<script>var x = 1;</script><p>text</p>`

	sections, err := splitDoc(t, doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(sections.Module) != 0 {
		t.Errorf("plain script must not become module code: %+v", sections.Module)
	}

	content := Render(sections.Content)
	if !strings.Contains(content, "<script>var x = 1;</script>") {
		t.Errorf("plain script missing from content: %q", content)
	}
}

func TestSplitSectionsScriptWithOtherLanguageStaysInContent(t *testing.T) {
	doc := `<script language="javascript">var x = 1;</script>`

	sections, err := splitDoc(t, doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(sections.Module) != 0 {
		t.Errorf("javascript script must not become module code: %+v", sections.Module)
	}
}

func TestSplitSectionsExpressionLanguageAttrStaysInContent(t *testing.T) {
	tokens := []domain.Token{
		{Kind: domain.TagOpen, Name: "script", Attrs: []domain.Attr{
			{Name: "language", Kind: domain.AttrExpr, Value: "@lang"},
		}},
		{Kind: domain.Text, Body: "x"},
		{Kind: domain.TagClose, Name: "script"},
	}

	sections, err := SplitSections("/src/test.svx", tokens)
	if err != nil {
		t.Fatal(err)
	}
	if len(sections.Module) != 0 {
		t.Error("expression-valued language attribute must not open a module section")
	}
	if len(sections.Content) != 3 {
		t.Errorf("expected all tokens in content, got %d", len(sections.Content))
	}
}
