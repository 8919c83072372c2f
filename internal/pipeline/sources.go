package pipeline

import (
	"fmt"

	"git.home.luguber.info/inful/sitesync/internal/adapter"
	"git.home.luguber.info/inful/sitesync/internal/adapter/feed"
	"git.home.luguber.info/inful/sitesync/internal/adapter/frontmatter"
	"git.home.luguber.info/inful/sitesync/internal/adapter/pkgregistry"
	"git.home.luguber.info/inful/sitesync/internal/adapter/scrape"
	"git.home.luguber.info/inful/sitesync/internal/config"
	"git.home.luguber.info/inful/sitesync/internal/fetch"
	"git.home.luguber.info/inful/sitesync/internal/schema"
)

// ConfiguredSource pairs a constructed adapter with its configuration
// entry. Order follows the config file; the merge step depends on it.
type ConfiguredSource struct {
	Spec   config.Source
	Source adapter.Source
}

// BuildSources constructs one adapter per configured source. Unknown kinds
// and invalid adapter settings fail here, before any fetching starts.
func BuildSources(cfg *config.Config, registry *schema.Registry, client fetch.Client) ([]ConfiguredSource, error) {
	sources := make([]ConfiguredSource, 0, len(cfg.Sources))
	for _, spec := range cfg.Sources {
		kind, err := registry.Lookup(spec.Kind)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", spec.Name, err)
		}

		src, err := buildAdapter(spec, kind, client)
		if err != nil {
			return nil, err
		}
		sources = append(sources, ConfiguredSource{Spec: spec, Source: src})
	}
	return sources, nil
}

func buildAdapter(spec config.Source, kind *schema.Kind, client fetch.Client) (adapter.Source, error) {
	switch spec.Adapter {
	case config.AdapterFrontMatter:
		return frontmatter.New(spec.Name, kind, client), nil
	case config.AdapterPackageIndex:
		var opts []pkgregistry.Option
		if spec.PageSize > 0 {
			opts = append(opts, pkgregistry.WithPageSize(spec.PageSize))
		}
		return pkgregistry.New(spec.Name, kind, client, opts...), nil
	case config.AdapterFeed:
		return feed.New(spec.Name, kind, client), nil
	case config.AdapterScrape:
		src, err := scrape.New(spec.Name, kind, client, spec.Selectors)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", spec.Name, err)
		}
		return src, nil
	default:
		return nil, fmt.Errorf("source %s: unsupported adapter: %s", spec.Name, spec.Adapter)
	}
}
