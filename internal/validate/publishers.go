package validate

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/util"
)

//go:embed publishers.yaml
var defaultPublishersYAML []byte

// Publisher locales used by the international contrast
const (
	LocaleDE   = "de"
	LocaleIntl = "intl"
)

// Publisher is one known outlet or institution
type Publisher struct {
	Key     string               `yaml:"key"`
	Name    string               `yaml:"name"`
	Hosts   []string             `yaml:"hosts"`
	Aliases []string             `yaml:"aliases,omitempty"`
	Class   model.EditorialClass `yaml:"class"`
	Locale  string               `yaml:"locale"`
}

type publisherFile struct {
	Version    string      `yaml:"version"`
	Publishers []Publisher `yaml:"publishers"`
}

// PublisherRegistry resolves sources to known publishers. It is immutable
// after construction and safe for concurrent use.
type PublisherRegistry struct {
	version    string
	publishers []Publisher
	byHost     map[string]int
	byName     map[string]int
}

// DefaultPublisherRegistry returns the embedded registry
func DefaultPublisherRegistry() *PublisherRegistry {
	r, err := ParsePublisherRegistry(defaultPublishersYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded publisher registry: %v", err))
	}
	return r
}

// LoadPublisherRegistry reads a registry YAML file
func LoadPublisherRegistry(path string) (*PublisherRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read publisher registry: %w", err)
	}
	return ParsePublisherRegistry(data)
}

// ParsePublisherRegistry builds a registry from YAML
func ParsePublisherRegistry(data []byte) (*PublisherRegistry, error) {
	var f publisherFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse publisher registry: %w", err)
	}

	r := &PublisherRegistry{
		version: f.Version,
		byHost:  make(map[string]int),
		byName:  make(map[string]int),
	}
	for _, p := range f.Publishers {
		if p.Key == "" {
			return nil, fmt.Errorf("publisher %q has no key", p.Name)
		}
		p.Class = model.ParseEditorialClass(string(p.Class))
		if p.Locale == "" {
			p.Locale = LocaleIntl
		}

		idx := len(r.publishers)
		r.publishers = append(r.publishers, p)
		for _, h := range p.Hosts {
			r.byHost[strings.TrimPrefix(strings.ToLower(h), "www.")] = idx
		}
		for _, n := range append([]string{p.Key, p.Name}, p.Aliases...) {
			if key := nameKey(n); key != "" {
				r.byName[key] = idx
			}
		}
	}
	return r, nil
}

// Version returns the registry version
func (r *PublisherRegistry) Version() string { return r.version }

// All returns a copy of the registry entries
func (r *PublisherRegistry) All() []Publisher {
	out := make([]Publisher, len(r.publishers))
	copy(out, r.publishers)
	return out
}

// Lookup resolves ref by host (including parent domains), then by
// publisher name or alias
func (r *PublisherRegistry) Lookup(ref model.SourceRef) (Publisher, bool) {
	if r == nil {
		return Publisher{}, false
	}

	host := util.Host(ref.URL)
	if host == "" {
		host = strings.TrimPrefix(strings.ToLower(ref.Domain), "www.")
	}
	for host != "" {
		if idx, ok := r.byHost[host]; ok {
			return r.publishers[idx], true
		}
		dot := strings.IndexByte(host, '.')
		if dot < 0 || !strings.Contains(host[dot+1:], ".") {
			break
		}
		host = host[dot+1:]
	}

	if idx, ok := r.byName[nameKey(ref.Publisher)]; ok {
		return r.publishers[idx], true
	}
	return Publisher{}, false
}

// Key returns the registry key of ref's publisher, or a normalized form of
// its publisher name when it is not registered
func (r *PublisherRegistry) Key(ref model.SourceRef) string {
	if p, ok := r.Lookup(ref); ok {
		return p.Key
	}
	return nameKey(ref.Publisher)
}

func nameKey(name string) string {
	return strings.Join(strings.FieldsFunc(util.Fold(name), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '.'
	}), "-")
}
