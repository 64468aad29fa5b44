package policy

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/agora/internal/model"
)

//go:embed voices.yaml
var defaultVoicesYAML []byte

type voiceFile struct {
	Version       string                          `yaml:"version"`
	DefaultDomain string                          `yaml:"default_domain"`
	ClassRoles    map[model.EditorialClass]string `yaml:"class_roles"`
	Domains       map[string][]string             `yaml:"domains"`
}

// VoiceRegistry lists the perspective roles each policy domain should hear
// and maps editorial classes onto those roles. It is immutable.
type VoiceRegistry struct {
	version       string
	defaultDomain string
	classRoles    map[model.EditorialClass]string
	domains       map[string][]string
}

// DefaultVoiceRegistry returns the embedded registry
func DefaultVoiceRegistry() *VoiceRegistry {
	r, err := ParseVoiceRegistry(defaultVoicesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded voice registry: %v", err))
	}
	return r
}

// LoadVoiceRegistry reads a voice registry YAML file
func LoadVoiceRegistry(path string) (*VoiceRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read voice registry: %w", err)
	}
	return ParseVoiceRegistry(data)
}

// ParseVoiceRegistry builds a registry from YAML. The default domain must be
// listed.
func ParseVoiceRegistry(data []byte) (*VoiceRegistry, error) {
	var f voiceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse voice registry: %w", err)
	}
	if f.DefaultDomain == "" {
		f.DefaultDomain = "sonstiges"
	}
	if _, ok := f.Domains[f.DefaultDomain]; !ok {
		return nil, fmt.Errorf("voice registry has no roles for default domain %q", f.DefaultDomain)
	}

	r := &VoiceRegistry{
		version:       f.Version,
		defaultDomain: f.DefaultDomain,
		classRoles:    make(map[model.EditorialClass]string, len(f.ClassRoles)),
		domains:       make(map[string][]string, len(f.Domains)),
	}
	for class, role := range f.ClassRoles {
		r.classRoles[class] = role
	}
	for domain, roles := range f.Domains {
		r.domains[domain] = append([]string(nil), roles...)
	}
	return r, nil
}

// Version returns the registry version
func (r *VoiceRegistry) Version() string { return r.version }

// DefaultDomain returns the domain used when none is declared
func (r *VoiceRegistry) DefaultDomain() string { return r.defaultDomain }

// Resolve returns the domains the registry knows, in input order. Unknown or
// missing domains resolve to the default domain.
func (r *VoiceRegistry) Resolve(domains []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, d := range domains {
		if _, ok := r.domains[d]; !ok || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	if len(out) == 0 {
		return []string{r.defaultDomain}
	}
	return out
}

// Required returns the union of required roles over the resolved domains,
// in first-seen order
func (r *VoiceRegistry) Required(domains []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, d := range r.Resolve(domains) {
		for _, role := range r.domains[d] {
			if !seen[role] {
				seen[role] = true
				out = append(out, role)
			}
		}
	}
	return out
}

// RoleFor maps an editorial class onto a role, "" when the class has none
func (r *VoiceRegistry) RoleFor(class model.EditorialClass) string {
	return r.classRoles[class]
}
