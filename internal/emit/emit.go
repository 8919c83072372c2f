// Package emit defines the artifact type produced by the emitters and
// the helper that lands artifacts on disk. Emitters themselves only build
// bytes; writing is kept separate so the pipeline can hash and compare
// artifacts before touching the filesystem.
package emit

import (
	"fmt"
	"os"
	"path/filepath"
)

// Artifact is one emitted output: an opaque payload plus its destination.
type Artifact struct {
	// Dest identifies where the artifact belongs: a file name relative
	// to the output directory, or a logical name.
	Dest string

	// Bytes is the artifact payload.
	Bytes []byte
}

// Write lands artifacts under dir, creating it as needed.
func Write(dir string, artifacts []Artifact) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for _, a := range artifacts {
		path := filepath.Join(dir, a.Dest)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", a.Dest, err)
		}
		if err := os.WriteFile(path, a.Bytes, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", a.Dest, err)
		}
	}
	return nil
}
