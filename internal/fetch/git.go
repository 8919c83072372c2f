package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const gitLocatorPrefix = "git+"

// GitFetcher reads content out of remote git repositories. Locators take
// the form
//
//	git+<clone-url>#<ref>//<path-or-glob>
//
// where ref may be empty to use the remote default branch. Each repository
// is shallow-cloned once per run and reused for every locator addressing
// it.
type GitFetcher struct {
	workDir string

	mu     sync.Mutex
	clones map[string]string // clone key -> local path
}

// NewGitFetcher creates a git fetcher that clones into workDir.
func NewGitFetcher(workDir string) *GitFetcher {
	return &GitFetcher{
		workDir: workDir,
		clones:  make(map[string]string),
	}
}

type gitLocator struct {
	url  string
	ref  string
	path string
}

func parseGitLocator(locator string) (gitLocator, error) {
	rest, ok := strings.CutPrefix(locator, gitLocatorPrefix)
	if !ok {
		return gitLocator{}, fmt.Errorf("not a git locator: %s", locator)
	}
	url, after, ok := strings.Cut(rest, "#")
	if !ok {
		return gitLocator{}, fmt.Errorf("git locator missing '#<ref>//<path>' suffix: %s", locator)
	}
	ref, path, ok := strings.Cut(after, "//")
	if !ok {
		return gitLocator{}, fmt.Errorf("git locator missing '//<path>' suffix: %s", locator)
	}
	if url == "" || path == "" {
		return gitLocator{}, fmt.Errorf("git locator needs a clone URL and a path: %s", locator)
	}
	return gitLocator{url: url, ref: ref, path: path}, nil
}

func (l gitLocator) String() string {
	return gitLocatorPrefix + l.url + "#" + l.ref + "//" + l.path
}

func (g *GitFetcher) cloneKey(l gitLocator) string {
	sum := sha256.Sum256([]byte(l.url + "#" + l.ref))
	return hex.EncodeToString(sum[:6])
}

// ensureClone clones the repository once and returns its local path.
func (g *GitFetcher) ensureClone(ctx context.Context, l gitLocator) (string, error) {
	key := g.cloneKey(l)

	g.mu.Lock()
	defer g.mu.Unlock()
	if path, ok := g.clones[key]; ok {
		return path, nil
	}

	clonePath := filepath.Join(g.workDir, key)
	if err := os.RemoveAll(clonePath); err != nil {
		return "", fmt.Errorf("clean clone dir: %w", err)
	}

	opts := &git.CloneOptions{URL: l.url, Depth: 1}
	if l.ref != "" {
		opts.ReferenceName = plumbing.ReferenceName("refs/heads/" + l.ref)
		opts.SingleBranch = true
	}
	if _, err := git.PlainCloneContext(ctx, clonePath, false, opts); err != nil {
		return "", fmt.Errorf("clone %s: %w", l.url, err)
	}

	g.clones[key] = clonePath
	return clonePath, nil
}

// Fetch reads one file out of the repository named by the locator.
func (g *GitFetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	l, err := parseGitLocator(locator)
	if err != nil {
		return nil, newFetchError(locator, err)
	}
	clonePath, err := g.ensureClone(ctx, l)
	if err != nil {
		return nil, newFetchError(locator, err)
	}

	data, err := os.ReadFile(filepath.Join(clonePath, filepath.FromSlash(l.path)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newFetchError(locator, ErrNotFound)
		}
		return nil, newFetchError(locator, err)
	}
	return data, nil
}

// List expands the path component of a git locator as a glob over the
// cloned tree, returning one concrete git locator per matched file.
func (g *GitFetcher) List(ctx context.Context, locator string) ([]string, error) {
	l, err := parseGitLocator(locator)
	if err != nil {
		return nil, newFetchError(locator, err)
	}
	clonePath, err := g.ensureClone(ctx, l)
	if err != nil {
		return nil, newFetchError(locator, err)
	}

	matches, err := doublestar.Glob(os.DirFS(clonePath), l.path)
	if err != nil {
		return nil, newFetchError(locator, err)
	}

	var out []string
	for _, match := range matches {
		info, err := fs.Stat(os.DirFS(clonePath), match)
		if err != nil || info.IsDir() {
			continue
		}
		out = append(out, gitLocator{url: l.url, ref: l.ref, path: match}.String())
	}
	sort.Strings(out)
	return out, nil
}

// CleanUp removes all clones made during the run.
func (g *GitFetcher) CleanUp() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var errs []error
	for key, path := range g.clones {
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, err)
		}
		delete(g.clones, key)
	}
	return errors.Join(errs...)
}
