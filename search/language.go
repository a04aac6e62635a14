package search

import (
	lingua "github.com/pemistahl/lingua-go"
	"github.com/samber/lo"
)

// Languages the classification API can analyze, as ISO 639-1 codes.
var supportedLanguages = []string{"en"}

// Minimum English confidence before an untagged account is accepted.
const detectionThreshold = 0.5

// languageGate decides whether an account's posts are in a supported
// language. The declared language field wins when present; otherwise the
// text of the first item is run through lingua.
type languageGate struct {
	detector lingua.LanguageDetector
}

func newLanguageGate() *languageGate {
	return &languageGate{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.AllLanguages()...).
			WithMinimumRelativeDistance(0.25).
			Build(),
	}
}

func (g *languageGate) supported(declared string, text string) bool {
	if declared != "" {
		return lo.Contains(supportedLanguages, declared)
	}

	confidence := g.detector.ComputeLanguageConfidence(text, lingua.English)
	return confidence >= detectionThreshold
}
