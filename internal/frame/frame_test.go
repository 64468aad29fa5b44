package frame

import (
	"testing"

	"github.com/ppiankov/agora/internal/model"
)

func TestJurisdiction(t *testing.T) {
	tests := []struct {
		name  string
		claim model.StatementRecord
		want  model.Jurisdiction
	}{
		{"declared Kommune", model.StatementRecord{Text: "Die EU soll zahlen", Responsibility: "Kommune"}, model.JurisdictionLocal},
		{"declared Land", model.StatementRecord{Text: "x", Responsibility: "Land"}, model.JurisdictionNational},
		{"declared Bund", model.StatementRecord{Text: "x", Responsibility: "Bund"}, model.JurisdictionNational},
		{"declared EU", model.StatementRecord{Text: "x", Responsibility: "EU"}, model.JurisdictionEU},
		{"eu keyword", model.StatementRecord{Text: "Die EU-Kommission soll Plastik verbieten."}, model.JurisdictionEU},
		{"neighbour keyword", model.StatementRecord{Text: "In Frankreich gibt es das schon."}, model.JurisdictionNeighbour},
		{"global keyword", model.StatementRecord{Text: "Die Vereinte Nationen sollen vermitteln."}, model.JurisdictionGlobal},
		{"local keyword", model.StatementRecord{Text: "Der Stadtrat soll mehr Bänke aufstellen."}, model.JurisdictionLocal},
		{"unknown responsibility falls through", model.StatementRecord{Text: "Die Gemeinde soll handeln.", Responsibility: "unbestimmt"}, model.JurisdictionLocal},
		{"default national", model.StatementRecord{Text: "Mehr Tempo-30-Zonen vor Schulen."}, model.JurisdictionNational},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Jurisdiction(tt.claim); got != tt.want {
				t.Errorf("Jurisdiction() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPolicyDomain(t *testing.T) {
	tests := []struct {
		name  string
		claim model.StatementRecord
		want  string
	}{
		{"declared", model.StatementRecord{Text: "Mehr Radwege.", Domain: "gesundheit"}, "health"},
		{"declared list", model.StatementRecord{Text: "x", Domains: []string{"sonstiges", "Wohnen"}}, "housing"},
		{"keyword", model.StatementRecord{Text: "Mehr Tempo-30-Zonen vor Schulen."}, "mobility"},
		{"keyword with sharp s", model.StatementRecord{Text: "Die Straßen sind kaputt."}, "mobility"},
		{"no match", model.StatementRecord{Text: "Etwas ganz anderes."}, "general"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PolicyDomain(tt.claim); got != tt.want {
				t.Errorf("PolicyDomain() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantStatus model.GateStatus
		wantPassed int
		failing    []string
	}{
		{
			name:       "short policy demand",
			text:       "Mehr Tempo-30-Zonen vor Schulen.",
			wantStatus: model.GateNeedsReview,
			wantPassed: 5,
			failing:    []string{GateOptions, GateTradeOffs, GateRightsDuties, GateStagedSanctions, GateTermsDefined},
		},
		{
			name: "complete proposal",
			text: "Wir sollen entweder Tempo 30 vor Schulen einführen oder Zebrastreifen bauen; das kostet aber 2 Mio. Euro. " +
				"Kinder haben ein Recht auf einen sicheren Schulweg, Autofahrer die Pflicht zur Rücksicht. " +
				"Verstöße werden stufenweise mit Bußgeld geahndet. Schulweg bedeutet hier der Weg im Umkreis von 300 m.",
			wantStatus: model.GatePass,
			wantPassed: 10,
		},
		{
			name:       "scapegoating",
			text:       "Schuld sind nur die Ausländer, die da oben tun nichts.",
			wantStatus: model.GateFail,
			failing:    []string{GateNoScapegoat},
		},
		{
			name:       "person targeting",
			text:       "Bürgermeister Müller muss weg!",
			wantStatus: model.GateFail,
			failing:    []string{GateNoPersonTarget},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ap := Evaluate(tt.text, nil)

			if ap.Total != 10 {
				t.Fatalf("Total = %d, want 10", ap.Total)
			}
			if ap.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", ap.Status, tt.wantStatus)
			}
			if tt.wantPassed > 0 {
				if ap.Passed != tt.wantPassed {
					t.Errorf("Passed = %d, want %d", ap.Passed, tt.wantPassed)
				}
				if want := float64(tt.wantPassed) / 10; ap.Score != want {
					t.Errorf("Score = %v, want %v", ap.Score, want)
				}
			}

			byID := make(map[string]model.Gate)
			for _, g := range ap.Gates {
				byID[g.ID] = g
			}
			for _, id := range tt.failing {
				if byID[id].Passed {
					t.Errorf("gate %s passed, want failure", id)
				}
			}
			if !byID[GateDossierRequired].Passed {
				t.Error("dossier gate must always pass")
			}
		})
	}
}

func TestEvaluate_FrameFieldsCount(t *testing.T) {
	f := &model.DebateFrame{
		Decision:    "Tempo 30 vor Grundschulen",
		Options:     []string{"Tempo 30", "Ampel"},
		Metrics:     []string{"Unfälle pro Jahr"},
		TradeOffs:   []string{"längere Fahrzeiten"},
		Rights:      []string{"sicherer Schulweg"},
		Duties:      []string{"Rücksicht"},
		Sanctions:   []string{"Verwarnung, dann Bußgeld"},
		Definitions: []string{"Schulumfeld: 300 m"},
	}

	ap := Evaluate("Ein Vorschlag.", f)
	if ap.Status != model.GatePass || ap.Passed != 10 {
		t.Errorf("got %s with %d passed, want pass with 10", ap.Status, ap.Passed)
	}
}

func TestBuild(t *testing.T) {
	claim := model.StatementRecord{ID: "c1", Text: "Mehr Tempo-30-Zonen vor Schulen.", Responsibility: "Kommune"}
	f := Build(claim)

	if f.Jurisdiction != model.JurisdictionLocal {
		t.Errorf("Jurisdiction = %q", f.Jurisdiction)
	}
	if f.PolicyDomain != "mobility" {
		t.Errorf("PolicyDomain = %q", f.PolicyDomain)
	}
	if len(f.AntiPopulism.Gates) != 10 {
		t.Errorf("got %d gates", len(f.AntiPopulism.Gates))
	}
	if again := Build(claim); again.AntiPopulism.Score != f.AntiPopulism.Score {
		t.Error("Build is not deterministic")
	}
}
