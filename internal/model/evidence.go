package model

// SourceRef is a cited source as delivered by the provider or a context pack
type SourceRef struct {
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
	Publisher string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Title     string `json:"title,omitempty" yaml:"title,omitempty"`
	Snippet   string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	Domain    string `json:"domain,omitempty" yaml:"domain,omitempty"`
	FetchedAt string `json:"fetchedAt,omitempty" yaml:"fetchedAt,omitempty"`
}

// EditorialClass is the editorial origin of a source
type EditorialClass string

const (
	ClassGov              EditorialClass = "gov"
	ClassMilitary         EditorialClass = "military"
	ClassPartyPolitical   EditorialClass = "party_political"
	ClassWireService      EditorialClass = "wire_service"
	ClassIndependentMedia EditorialClass = "independent_media"
	ClassNGO              EditorialClass = "ngo"
	ClassIGOUN            EditorialClass = "igo_un"
	ClassAcademic         EditorialClass = "academic"
	ClassOSINT            EditorialClass = "osint"
	ClassAffectedWitness  EditorialClass = "affected_witness"
	ClassCorporate        EditorialClass = "corporate"
	ClassUnknown          EditorialClass = "unknown"
)

// AllEditorialClasses lists every class in a stable order
func AllEditorialClasses() []EditorialClass {
	return []EditorialClass{
		ClassGov, ClassMilitary, ClassPartyPolitical, ClassWireService,
		ClassIndependentMedia, ClassNGO, ClassIGOUN, ClassAcademic,
		ClassOSINT, ClassAffectedWitness, ClassCorporate, ClassUnknown,
	}
}

// ParseEditorialClass maps a string onto the closed class set
func ParseEditorialClass(s string) EditorialClass {
	for _, c := range AllEditorialClasses() {
		if string(c) == s {
			return c
		}
	}
	return ClassUnknown
}

// ContextPack is a curated bundle of background sources attached to a run
type ContextPack struct {
	ID      string      `json:"id" yaml:"id"`
	Title   string      `json:"title" yaml:"title"`
	Domain  string      `json:"domain,omitempty" yaml:"domain,omitempty"`
	Sources []SourceRef `json:"sources" yaml:"sources"`
}
