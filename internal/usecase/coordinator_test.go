package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dmitriid/svx/internal/adapter/cache"
	"github.com/dmitriid/svx/internal/adapter/fs"
	"github.com/dmitriid/svx/internal/adapter/tokenizer"
	"github.com/dmitriid/svx/internal/domain"
	"github.com/dmitriid/svx/internal/runtime"
)

// countingStyles records every aggregate rewrite.
type countingStyles struct {
	mu     sync.Mutex
	writes int
	last   string
}

func (w *countingStyles) WriteStylesheet(css string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes++
	w.last = css
	return nil
}

func (w *countingStyles) state() (int, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes, w.last
}

func writeDoc(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestCoordinator(t *testing.T, root string, buildCache *cache.BuildCache) (*Coordinator, *countingStyles) {
	t.Helper()
	reg := runtime.NewRegistry()
	synth := NewSynthesizer(tokenizer.New(), reg, root, "Web", testLogger())
	styles := &countingStyles{}
	coord := NewCoordinator(root, synth, fs.NewWalker(nil, nil), reg, styles, buildCache, testLogger())
	return coord, styles
}

func styledDoc(css string) string {
	return "<p>content</p>\n<style>\n" + css + "\n</style>"
}

const malformedDoc = `<script language="elixir">def a, do: 1</script>
<script language="elixir">def b, do: 2</script>`

func TestCompileAllPopulatesModuleMap(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "a.svx", styledDoc(".a { color: red }"))
	writeDoc(t, root, "b.svx", "<p>no style</p>")
	writeDoc(t, root, "bad.svx", malformedDoc)
	writeDoc(t, root, "nested/d.svx", styledDoc(".d { margin: 0 }"))
	writeDoc(t, root, "e.ssvx", "<footer>static</footer>")
	writeDoc(t, root, "ignored.txt", "not a component")

	coord, styles := newTestCoordinator(t, root, nil)

	result, err := coord.CompileAll(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if coord.Len() != 5 {
		t.Errorf("expected 5 tracked files, got %d", coord.Len())
	}
	if result.FilesCompiled != 4 || result.FilesFailed != 1 {
		t.Errorf("unexpected result: %+v", result)
	}

	bad, ok := coord.Unit(filepath.Join(root, "bad.svx"))
	if !ok || !bad.Diagnostic {
		t.Error("malformed file must be tracked as a diagnostic unit")
	}

	writes, css := styles.state()
	if writes != 1 {
		t.Errorf("expected exactly one aggregate write at startup, got %d", writes)
	}
	if !strings.Contains(css, ".a { color: red }") || !strings.Contains(css, ".d { margin: 0 }") {
		t.Errorf("aggregate missing contributions: %q", css)
	}
	if strings.Contains(css, "Can only have one") {
		t.Errorf("diagnostic unit leaked into the aggregate: %q", css)
	}
}

func TestCompileAllProgressCallback(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.svx", "b.svx", "c.svx", "d.svx", "e.svx"} {
		writeDoc(t, root, name, "<p>x</p>")
	}

	coord, _ := newTestCoordinator(t, root, nil)

	var mu sync.Mutex
	calls := 0
	_, err := coord.CompileAll(context.Background(), func(processed, total int, path string) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if total != 5 {
			t.Errorf("expected total 5, got %d", total)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 5 {
		t.Errorf("expected 5 progress calls, got %d", calls)
	}
}

func TestIncrementalStyleChangeRewritesAggregate(t *testing.T) {
	root := t.TempDir()
	pathA := writeDoc(t, root, "a.svx", styledDoc(".a { color: red }"))
	pathB := writeDoc(t, root, "b.svx", "<p>no style</p>")

	coord, styles := newTestCoordinator(t, root, nil)
	if _, err := coord.CompileAll(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	// A changes its style: the aggregate must be rewritten.
	writeDoc(t, root, "a.svx", styledDoc(".a { color: blue }"))
	coord.HandleEvent(domain.FileEvent{Path: pathA, Kinds: []domain.EventKind{domain.EventUpdated}})

	writes, css := styles.state()
	if writes != 2 {
		t.Fatalf("expected rewrite after style change, got %d writes", writes)
	}
	if !strings.Contains(css, "color: blue") || strings.Contains(css, "color: red") {
		t.Errorf("aggregate not updated: %q", css)
	}

	// B's style is unchanged (empty before and after): no rewrite.
	writeDoc(t, root, "b.svx", "<p>edited, still no style</p>")
	coord.HandleEvent(domain.FileEvent{Path: pathB, Kinds: []domain.EventKind{domain.EventUpdated}})

	if writes, _ := styles.state(); writes != 2 {
		t.Errorf("unchanged style must not rewrite the aggregate, got %d writes", writes)
	}
}

func TestCreatedFileJoinsModuleMap(t *testing.T) {
	root := t.TempDir()
	coord, styles := newTestCoordinator(t, root, nil)
	if _, err := coord.CompileAll(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	path := writeDoc(t, root, "new.svx", "<p>fresh</p>")
	coord.HandleEvent(domain.FileEvent{Path: path, Kinds: []domain.EventKind{domain.EventCreated}})

	if coord.Len() != 1 {
		t.Errorf("expected 1 tracked file, got %d", coord.Len())
	}
	// A brand-new entry rewrites the aggregate even with empty style.
	if writes, _ := styles.state(); writes != 2 {
		t.Errorf("expected rewrite for new entry, got %d writes", writes)
	}
}

func TestRemovedFilePurged(t *testing.T) {
	root := t.TempDir()
	pathA := writeDoc(t, root, "a.svx", styledDoc(".a { color: red }"))
	writeDoc(t, root, "b.svx", styledDoc(".b { color: green }"))

	coord, styles := newTestCoordinator(t, root, nil)
	if _, err := coord.CompileAll(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	os.Remove(pathA)
	coord.HandleEvent(domain.FileEvent{Path: pathA, Kinds: []domain.EventKind{domain.EventRemoved}})

	if coord.Len() != 1 {
		t.Errorf("expected removed file to be purged, %d tracked", coord.Len())
	}
	writes, css := styles.state()
	if writes != 2 {
		t.Errorf("expected rewrite after removal, got %d writes", writes)
	}
	if strings.Contains(css, "color: red") || !strings.Contains(css, "color: green") {
		t.Errorf("aggregate not rebuilt after removal: %q", css)
	}
}

func TestUnrecognizedExtensionIgnored(t *testing.T) {
	root := t.TempDir()
	coord, styles := newTestCoordinator(t, root, nil)
	if _, err := coord.CompileAll(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	path := writeDoc(t, root, "notes.txt", "hello")
	coord.HandleEvent(domain.FileEvent{Path: path, Kinds: []domain.EventKind{domain.EventUpdated}})

	if coord.Len() != 0 {
		t.Errorf("unrecognized extension must be ignored, %d tracked", coord.Len())
	}
	if writes, _ := styles.state(); writes != 1 {
		t.Errorf("unrecognized extension must not rewrite, got %d writes", writes)
	}
}

func TestCompileAllSkipsUnchangedWithCache(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "a.svx", styledDoc(".a { color: red }"))
	writeDoc(t, root, "b.svx", "<p>x</p>")

	bc, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer bc.Close()

	coord, _ := newTestCoordinator(t, root, bc)
	first, err := coord.CompileAll(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if first.FilesCompiled != 2 || first.FilesSkipped != 0 {
		t.Fatalf("unexpected first result: %+v", first)
	}

	coord2, styles2 := newTestCoordinator(t, root, bc)
	second, err := coord2.CompileAll(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if second.FilesSkipped != 2 || second.FilesCompiled != 0 {
		t.Fatalf("expected both files skipped on second run: %+v", second)
	}

	// Cached styles still reach the aggregate.
	if _, css := styles2.state(); !strings.Contains(css, "color: red") {
		t.Errorf("cached style missing from aggregate: %q", css)
	}
}

func TestAggregateDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "z.svx", styledDoc(".z { }"))
	writeDoc(t, root, "a.svx", styledDoc(".a { }"))

	coord, _ := newTestCoordinator(t, root, nil)
	if _, err := coord.CompileAll(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	css := coord.Aggregate()
	if strings.Index(css, ".a {") > strings.Index(css, ".z {") {
		t.Errorf("aggregate not sorted by path: %q", css)
	}
}
