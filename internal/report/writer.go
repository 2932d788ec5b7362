package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Write stores the artifacts in dir, replacing files from earlier runs.
func Write(ctx context.Context, dir string, a *Artifacts) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// A stale error artifact would contradict a successful render.
	if err := os.Remove(filepath.Join(dir, ErrorFilename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale %s: %w", ErrorFilename, err)
	}

	files := map[string][]byte{
		HTMLFilename:    a.HTML,
		JSONFilename:    a.JSON,
		SummaryFilename: a.Summary,
	}

	g, ctx := errgroup.WithContext(ctx)
	for name, data := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// WriteError records a rendering failure as the single report-error.txt artifact.
func WriteError(dir string, renderErr error) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, ErrorFilename)
	content := fmt.Sprintf("report generation failed: %v\n", renderErr)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
