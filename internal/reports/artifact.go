package reports

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tokentoll/tokentoll/internal/backfill"
)

// WriteArtifact writes the report summary as a timestamped text file in dir
// and returns the file's path.
func WriteArtifact(dir string, r *backfill.Report) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating report dir: %w", err)
	}

	name := fmt.Sprintf("backfill-%s-%s.txt", r.StartedAt.UTC().Format("20060102-150405"), r.RunID)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(r.Summary()), 0o640); err != nil {
		return "", fmt.Errorf("writing report artifact: %w", err)
	}
	return path, nil
}
