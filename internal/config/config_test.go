package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sitesync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
sources:
  - name: tutorials
    adapter: frontmatter
    kind: tutorial
    locators:
      - content/tutorials/**/*.md
`

func TestLoad_MinimalConfig_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))

	require.NoError(t, err)
	require.Equal(t, 4, cfg.Fetch.Workers)
	require.Equal(t, 30*time.Second, cfg.SourceTimeout())
	require.Equal(t, "./data", cfg.Output.SiteDataDir)
	require.Equal(t, "./admin/config.yml", cfg.Output.CMSConfigPath)
	require.False(t, cfg.Strict)
}

func TestLoad_MissingFile_ReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.Error(t, err)
	require.Contains(t, err.Error(), "read config file")
}

func TestLoad_MalformedYAML_ReturnsError(t *testing.T) {
	_, err := Load(writeConfig(t, "sources: [unclosed"))

	require.Error(t, err)
	require.Contains(t, err.Error(), "parse config")
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("SYNC_INDEX_URL", "https://pkg.example.com/index")

	cfg, err := Load(writeConfig(t, `
sources:
  - name: packages
    adapter: package-index
    kind: package-entry
    locators:
      - ${SYNC_INDEX_URL}
`))

	require.NoError(t, err)
	require.Equal(t, []string{"https://pkg.example.com/index"}, cfg.Sources[0].Locators)
}

func TestLoad_NotifyBlock_DefaultsSubject(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
notify:
  url: nats://localhost:4222
`))

	require.NoError(t, err)
	require.Equal(t, "sitesync.runs", cfg.Notify.Subject)
}

func TestLoad_DaemonBlock_DefaultsIntervalAndDebounce(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
daemon:
  metrics_addr: ":9090"
`))

	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, cfg.Daemon.IntervalDuration())
	require.Equal(t, 2*time.Second, cfg.Daemon.DebounceDuration())
}

func TestValidate_NoSources_ReturnsError(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	err := Validate(cfg)

	require.Error(t, err)
	require.Contains(t, err.Error(), "at least one source")
}

func TestValidate_DuplicateSourceNames_ReturnsError(t *testing.T) {
	cfg := &Config{Sources: []Source{
		{Name: "tutorials", Adapter: AdapterFrontMatter, Kind: "tutorial", Locators: []string{"a/**/*.md"}},
		{Name: "tutorials", Adapter: AdapterFrontMatter, Kind: "tutorial", Locators: []string{"b/**/*.md"}},
	}}
	applyDefaults(cfg)

	err := Validate(cfg)

	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate source name")
}

func TestValidate_UnsupportedAdapter_ReturnsError(t *testing.T) {
	cfg := &Config{Sources: []Source{
		{Name: "x", Adapter: "ftp", Kind: "tutorial", Locators: []string{"a"}},
	}}
	applyDefaults(cfg)

	err := Validate(cfg)

	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported adapter")
}

func TestValidate_SourceWithoutLocators_ReturnsError(t *testing.T) {
	cfg := &Config{Sources: []Source{
		{Name: "x", Adapter: AdapterFeed, Kind: "changelog-entry"},
	}}
	applyDefaults(cfg)

	err := Validate(cfg)

	require.Error(t, err)
	require.Contains(t, err.Error(), "at least one locator")
}

func TestValidate_SelectorsOnNonScrapeAdapter_ReturnsError(t *testing.T) {
	cfg := &Config{Sources: []Source{
		{
			Name: "x", Adapter: AdapterFeed, Kind: "changelog-entry",
			Locators:  []string{"https://example.com/feed.xml"},
			Selectors: map[string]string{"title": "h1"},
		},
	}}
	applyDefaults(cfg)

	err := Validate(cfg)

	require.Error(t, err)
	require.Contains(t, err.Error(), "selectors are only valid")
}

func TestValidate_ScrapeWithoutSelectors_ReturnsError(t *testing.T) {
	cfg := &Config{Sources: []Source{
		{Name: "x", Adapter: AdapterScrape, Kind: "success-story", Locators: []string{"https://example.com"}},
	}}
	applyDefaults(cfg)

	err := Validate(cfg)

	require.Error(t, err)
	require.Contains(t, err.Error(), "requires selectors")
}

func TestValidate_PageSizeOnNonIndexAdapter_ReturnsError(t *testing.T) {
	cfg := &Config{Sources: []Source{
		{Name: "x", Adapter: AdapterFeed, Kind: "changelog-entry", Locators: []string{"https://example.com/feed.xml"}, PageSize: 10},
	}}
	applyDefaults(cfg)

	err := Validate(cfg)

	require.Error(t, err)
	require.Contains(t, err.Error(), "page_size is only valid")
}

func TestValidate_InvalidSourceTimeout_ReturnsError(t *testing.T) {
	cfg := &Config{
		Sources: []Source{{Name: "x", Adapter: AdapterFeed, Kind: "changelog-entry", Locators: []string{"https://example.com/feed.xml"}}},
		Fetch:   FetchConfig{Workers: 2, SourceTimeout: "soon"},
	}

	err := Validate(cfg)

	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid fetch.source_timeout")
}

func TestValidate_InvalidDaemonInterval_ReturnsError(t *testing.T) {
	cfg := &Config{
		Sources: []Source{{Name: "x", Adapter: AdapterFeed, Kind: "changelog-entry", Locators: []string{"https://example.com/feed.xml"}}},
		Daemon:  &DaemonConfig{Interval: "sometimes"},
	}
	applyDefaults(cfg)

	err := Validate(cfg)

	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid daemon.interval")
}

func TestValidate_NotifyWithoutURL_ReturnsError(t *testing.T) {
	cfg := &Config{
		Sources: []Source{{Name: "x", Adapter: AdapterFeed, Kind: "changelog-entry", Locators: []string{"https://example.com/feed.xml"}}},
		Notify:  &NotifyConfig{},
	}
	applyDefaults(cfg)

	err := Validate(cfg)

	require.Error(t, err)
	require.Contains(t, err.Error(), "notify.url")
}

func TestValidate_RunLogWithoutPath_ReturnsError(t *testing.T) {
	cfg := &Config{
		Sources: []Source{{Name: "x", Adapter: AdapterFeed, Kind: "changelog-entry", Locators: []string{"https://example.com/feed.xml"}}},
		RunLog:  &RunLogConfig{},
	}
	applyDefaults(cfg)

	err := Validate(cfg)

	require.Error(t, err)
	require.Contains(t, err.Error(), "runlog.path")
}

func TestInit_WritesLoadableExampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitesync.yaml")

	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Sources, 4)
	require.Equal(t, AdapterFrontMatter, cfg.Sources[0].Adapter)
}

func TestInit_ExistingFileWithoutForce_ReturnsError(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	err := Init(path, false)

	require.Error(t, err)
	require.Contains(t, err.Error(), "already exists")
}

func TestInit_ExistingFileWithForce_Overwrites(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Sources, 4)
}
