package fetch

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// FileFetcher reads content from the local filesystem. Locators are paths
// or doublestar glob patterns, resolved relative to Root when set.
type FileFetcher struct {
	// Root anchors relative locators. Empty means the process working
	// directory.
	Root string
}

// NewFileFetcher creates a filesystem fetcher rooted at root.
func NewFileFetcher(root string) *FileFetcher {
	return &FileFetcher{Root: root}
}

func (f *FileFetcher) resolve(locator string) string {
	if f.Root == "" || filepath.IsAbs(locator) {
		return locator
	}
	return filepath.Join(f.Root, locator)
}

// Fetch reads one file.
func (f *FileFetcher) Fetch(_ context.Context, locator string) ([]byte, error) {
	data, err := os.ReadFile(f.resolve(locator))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newFetchError(locator, ErrNotFound)
		}
		return nil, newFetchError(locator, err)
	}
	return data, nil
}

// List expands a glob pattern into matching file paths, sorted so that
// item order is deterministic across runs. A literal path lists itself
// when the file exists.
func (f *FileFetcher) List(_ context.Context, locator string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(f.resolve(locator))
	if err != nil {
		return nil, newFetchError(locator, err)
	}

	var files []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, match)
	}
	sort.Strings(files)
	return files, nil
}
