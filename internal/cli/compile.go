package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dmitriid/svx/config"
	"github.com/dmitriid/svx/internal/adapter/cache"
	"github.com/dmitriid/svx/internal/adapter/fs"
	"github.com/dmitriid/svx/internal/adapter/tokenizer"
	"github.com/dmitriid/svx/internal/runtime"
	"github.com/dmitriid/svx/internal/usecase"
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile all component documents once",
	Long: `Compile every component document under the configured source path and
write the aggregated stylesheet. Unchanged files are skipped using the
build cache in .svx/cache.db.`,
	Args: cobra.NoArgs,
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
}

// setup wires the compilation pipeline from the loaded config. The caller
// owns the returned build cache and must close it.
func setup(logger *slog.Logger) (*usecase.Coordinator, *cache.BuildCache, string, error) {
	src := cfg.Source.Path
	if !filepath.IsAbs(src) {
		src = filepath.Join(rootDir, src)
	}
	src, err := filepath.Abs(src)
	if err != nil {
		return nil, nil, "", err
	}
	info, err := os.Stat(src)
	if err != nil {
		return nil, nil, "", fmt.Errorf("source path does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, "", fmt.Errorf("source path is not a directory: %s", src)
	}

	cssPath := cfg.Output.CSS
	if !filepath.IsAbs(cssPath) {
		cssPath = filepath.Join(rootDir, cssPath)
	}

	if err := config.EnsureSvxDir(rootDir); err != nil {
		return nil, nil, "", fmt.Errorf("failed to create .svx directory: %w", err)
	}
	buildCache, err := cache.Open(config.CacheDBPath(rootDir))
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to open build cache: %w", err)
	}

	registry := runtime.NewRegistry()
	synth := usecase.NewSynthesizer(tokenizer.New(), registry, src, cfg.Source.Namespace, logger)
	walker := fs.NewWalker(cfg.Source.Includes, cfg.Source.Excludes)
	styles := &fs.StylesheetFile{Path: cssPath}

	coord := usecase.NewCoordinator(src, synth, walker, registry, styles, buildCache, logger)
	return coord, buildCache, src, nil
}

func runCompile(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	coord, buildCache, src, err := setup(logger)
	if err != nil {
		return err
	}
	defer buildCache.Close()

	fmt.Printf("Compiling %s...\n", src)

	result, err := coord.CompileAll(context.Background(), newProgress())
	if err != nil {
		return fmt.Errorf("compilation failed: %w", err)
	}

	printResult(result)
	return nil
}

// newProgress builds the per-file progress callback, initializing the bar
// lazily once the total is known.
func newProgress() usecase.ProgressFunc {
	var (
		mu          sync.Mutex
		bar         *progressbar.ProgressBar
		initialized bool
	)

	return func(processed, total int, path string) {
		mu.Lock()
		defer mu.Unlock()

		if !initialized {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Compiling[reset]"),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
			initialized = true
		}

		bar.Set(processed)
	}
}

func printResult(result *usecase.BuildResult) {
	fmt.Printf("\nCompilation complete:\n")
	fmt.Printf("  Files compiled: %d\n", result.FilesCompiled)
	fmt.Printf("  Files skipped:  %d (unchanged)\n", result.FilesSkipped)
	fmt.Printf("  Files failed:   %d\n", result.FilesFailed)

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
}
