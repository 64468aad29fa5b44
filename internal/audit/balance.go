package audit

import (
	"math"

	"github.com/ppiankov/agora/internal/model"
)

// powerShareThreshold is the gov+military share from which the audit treats
// the source set as dominated by state power
const powerShareThreshold = 0.6

// counterVoices are the classes reported missing in a power-dominated set
var counterVoices = []model.EditorialClass{
	model.ClassAffectedWitness,
	model.ClassIndependentMedia,
	model.ClassNGO,
	model.ClassAcademic,
}

// Balance computes the class distribution of a source set. The balance score
// is the Shannon entropy of the non-empty classes divided by ln(k), so one
// class scores 0 and k equally filled classes score 1.
func Balance(classes []model.EditorialClass) model.SourceBalance {
	b := model.SourceBalance{
		CountsByClass: make(map[model.EditorialClass]int),
		Total:         len(classes),
		DominantClass: model.ClassUnknown,
		MissingVoices: []model.EditorialClass{},
	}
	if len(classes) == 0 {
		return b
	}

	for _, c := range classes {
		b.CountsByClass[c]++
	}

	best := 0
	for _, c := range model.AllEditorialClasses() {
		if n := b.CountsByClass[c]; n > best {
			best = n
			b.DominantClass = c
		}
	}

	if k := len(b.CountsByClass); k > 1 {
		entropy := 0.0
		for _, n := range b.CountsByClass {
			p := float64(n) / float64(b.Total)
			entropy -= p * math.Log(p)
		}
		b.BalanceScore = round3(entropy / math.Log(float64(k)))
	}

	if powerShare(b) >= powerShareThreshold {
		for _, c := range counterVoices {
			if b.CountsByClass[c] == 0 {
				b.MissingVoices = append(b.MissingVoices, c)
			}
		}
	}

	return b
}

// powerShare is the gov+military fraction of all sources, 0 for an empty set
func powerShare(b model.SourceBalance) float64 {
	if b.Total == 0 {
		return 0
	}
	return float64(b.CountsByClass[model.ClassGov]+b.CountsByClass[model.ClassMilitary]) / float64(b.Total)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
