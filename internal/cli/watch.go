package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitriid/svx/internal/adapter/watch"
	"github.com/dmitriid/svx/internal/ctxlog"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Compile, then recompile on file changes",
	Long: `Run a full compilation, then keep watching the source directory and
recompile changed documents until interrupted. The aggregated stylesheet
is rewritten whenever a file's style output changes.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	coord, buildCache, src, err := setup(logger)
	if err != nil {
		return err
	}
	defer buildCache.Close()

	fmt.Printf("Compiling %s...\n", src)
	result, err := coord.CompileAll(context.Background(), newProgress())
	if err != nil {
		return fmt.Errorf("initial compilation failed: %w", err)
	}
	printResult(result)

	watcher, err := watch.New(src)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", src, err)
	}
	defer watcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = ctxlog.WithLogger(ctx, logger)

	go func() {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("watcher stopped", "error", err)
		}
	}()

	fmt.Printf("\nWatching %s for changes (ctrl-c to stop)...\n", src)

	if err := coord.Watch(ctx, watcher.Events()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Println("\nStopped.")
	return nil
}
