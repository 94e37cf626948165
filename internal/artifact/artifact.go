// Package artifact writes the HTML fragments and status logs consumed by the
// display panel.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

const filePerm = 0o644

// WriteFile replaces the file at path with content. The content is written to
// a temporary file in the same directory and renamed into place, so readers
// never observe a partially written fragment.
func WriteFile(path string, content []byte) error {
	err := renameio.WriteFile(path, content, filePerm, renameio.WithTempDir(filepath.Dir(path)))
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// AppendLine appends line to the file at path, creating it if needed.
// A trailing newline is added when missing.
func AppendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePerm)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", path, err)
	}

	return f.Close()
}
