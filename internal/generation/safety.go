package generation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mfedorov/legalrag/internal/core/domain"
)

// Topics that warrant a use-of-force caution regardless of answer quality.
var useOfForceTerms = []string{
	"use of force",
	"deadly force",
	"firearm",
	"discharge",
	"taser",
	"electronic control device",
	"oc spray",
	"pepper spray",
	"baton",
	"chokehold",
	"neck restraint",
	"vehicle pursuit",
	"pursuit policy",
	"fleeing",
	"shooting",
	"force",
	"pursuit",
}

var yearPattern = regexp.MustCompile(`((?:19|20)\d{2})`)

var jurisdictionKeywords = []string{
	"department", "agency", "local", "city", "county",
	"madison", "milwaukee", "dane",
}

const (
	useOfForceNote = "Note: This response involves use of force topics. " +
		"Department-specific policies may impose additional requirements " +
		"beyond state law. Consult your agency's use-of-force policy."
	outdatedNote = "Note: The primary source cited may be outdated. " +
		"Please verify against current statutes and regulations."
	jurisdictionNote = "Note: The top retrieved source is a local department policy. " +
		"State-level statutes or other jurisdictions may differ."
)

// SafetyResult carries the guardrail flags and the addendum text to attach
// to the answer.
type SafetyResult struct {
	UseOfForceCaution bool
	OutdatedPossible  bool
	JurisdictionNote  bool
	Addendum          string
}

// CheckUseOfForce reports whether the query or answer touches use-of-force
// topics.
func CheckUseOfForce(query, answerText string) bool {
	combined := strings.ToLower(query + " " + answerText)
	for _, term := range useOfForceTerms {
		if strings.Contains(combined, term) {
			return true
		}
	}
	return false
}

// CheckOutdatedPossible reports whether the primary cited source looks more
// than ten years old, judged by a year embedded in its file path.
func CheckOutdatedPossible(sources []domain.ChunkMetadata) bool {
	if len(sources) == 0 {
		return false
	}
	m := yearPattern.FindStringSubmatch(sources[0].SourceFile)
	if m == nil {
		return false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return false
	}
	return time.Now().Year()-year > 10
}

// CheckJurisdictionNote reports whether a jurisdiction-agnostic query was
// answered primarily from local department material.
func CheckJurisdictionNote(query string, sources []domain.ChunkMetadata) bool {
	if len(sources) == 0 {
		return false
	}
	queryLower := strings.ToLower(query)
	for _, kw := range jurisdictionKeywords {
		if strings.Contains(queryLower, kw) {
			return false
		}
	}
	top := sources[0]
	return top.SourceType == domain.SourceTraining || top.Jurisdiction == domain.JurisdictionLocal
}

// BuildSafety runs all guardrail checks and assembles the addendum.
func BuildSafety(query, answerText string, sources []domain.ChunkMetadata) SafetyResult {
	r := SafetyResult{
		UseOfForceCaution: CheckUseOfForce(query, answerText),
		OutdatedPossible:  CheckOutdatedPossible(sources),
		JurisdictionNote:  CheckJurisdictionNote(query, sources),
	}

	var parts []string
	if r.UseOfForceCaution {
		parts = append(parts, useOfForceNote)
	}
	if r.OutdatedPossible {
		parts = append(parts, outdatedNote)
	}
	if r.JurisdictionNote {
		parts = append(parts, jurisdictionNote)
	}
	r.Addendum = strings.Join(parts, " ")
	return r
}
