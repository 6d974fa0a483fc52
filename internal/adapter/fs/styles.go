package fs

import (
	"os"
	"path/filepath"
)

// StylesheetFile writes the aggregate stylesheet to one output path. Every
// write is a full overwrite; there is no locking against concurrent
// readers, which is acceptable for a dev-time artifact.
type StylesheetFile struct {
	Path string
}

func (s *StylesheetFile) WriteStylesheet(css string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.Path, []byte(css), 0644)
}
