package chunking

import (
	"regexp"
	"strings"
)

// DocType selects the structural grammar used for hierarchy detection. The
// set of grammars is fixed and closed: statutes, court opinions, and
// training/policy manuals each carry their own ordered rule list, primary
// section levels, and split-boundary pattern.
type DocType int

const (
	DocTypeStatute DocType = iota
	DocTypeCaseLaw
	DocTypeTraining
)

func (d DocType) String() string {
	switch d {
	case DocTypeCaseLaw:
		return "case_law"
	case DocTypeTraining:
		return "training"
	default:
		return "statute"
	}
}

type hierarchyRule struct {
	level   int
	pattern *regexp.Regexp
}

type grammar struct {
	rules         []hierarchyRule
	primaryLevels map[int]bool
	splitBoundary *regexp.Regexp
}

// Statute grammar: Chapter > § section > numbered subsection > lettered
// paragraph.
var statuteGrammar = grammar{
	rules: []hierarchyRule{
		// "Chapter 943", "Chapter 346A"
		{0, regexp.MustCompile(`(?m)^(Chapter\s+\d+[A-Z]?)\b`)},
		// "SUBCHAPTER I", "SUBCHAPTER IV"
		{0, regexp.MustCompile(`(?m)^(SUBCHAPTER\s+[IVXLC]+)\b`)},
		// "§ 940.01", "§ 346.63(1)"
		{1, regexp.MustCompile(`(?m)^(§\s*\d+\.\d+(?:\(\d+\))?)\b`)},
		// Bare section number with title: "346.01 Words and phrases"
		{1, regexp.MustCompile(`(?m)^(\d{2,4}\.\d{2,4})\s+[A-Z]`)},
		// "Section 12." / "SECTION 12."
		{1, regexp.MustCompile(`(?mi)^(Section\s+\d+[A-Za-z]?\.?)\s`)},
		// Numbered subsections "(1)"
		{2, regexp.MustCompile(`(?m)^\((\d+)\)\s`)},
		// "Sub. (1)"
		{2, regexp.MustCompile(`(?m)^(Sub\.\s*\(\d+\))\s`)},
		// Letter paragraphs "(a)"
		{3, regexp.MustCompile(`(?m)^\(([a-z])\)\s`)},
	},
	primaryLevels: map[int]bool{0: true, 1: true},
	splitBoundary: regexp.MustCompile(`\n(?:Chapter\s+\d|§\s*\d|\d{2,4}\.\d{2,4}\s)`),
}

// Case-law grammar: opinion-author header > Roman-numeral ALL-CAPS section >
// lettered ALL-CAPS subsection > pilcrow paragraph.
var caseLawGrammar = grammar{
	rules: []hierarchyRule{
		{0, regexp.MustCompile(`(?m)^((?:Opinion of the Court|(?:JUSTICE|Justice|CHIEF JUSTICE)\s+[A-Z][A-Za-z]+(?:,?\s+(?:concurring|dissenting|concurring in part and dissenting in part))[^.\n]*))`)},
		// "I. FACTUAL AND PROCEDURAL BACKGROUND"
		{1, regexp.MustCompile(`(?m)^([IVXLC]+\.\s+[A-Z][A-Z\s:]+)`)},
		// "A. PRIVATE PARTY SEARCH"
		{2, regexp.MustCompile(`(?m)^([A-Z]\.\s+[A-Z][A-Z\s:]+)`)},
		// "¶1", "¶133"
		{3, regexp.MustCompile(`(?m)^(¶\s*\d+)\b`)},
	},
	primaryLevels: map[int]bool{0: true, 1: true},
	splitBoundary: regexp.MustCompile(`\n¶\s*\d+`),
}

// Training/policy grammar: ALL-CAPS major header > numbered/decimal section >
// numbered or lettered list item.
var trainingGrammar = grammar{
	rules: []hierarchyRule{
		// ALL-CAPS major section headers, 9+ chars
		{0, regexp.MustCompile(`(?m)^([A-Z][A-Z\s&/\-]{8,})\s*$`)},
		{0, regexp.MustCompile(`(?mi)^(POLICY\s*&\s*PROCEDURE)\s*$`)},
		// "Section 3:" (handbook style)
		{1, regexp.MustCompile(`(?mi)^(Section\s+\d+[A-Za-z]?[:.])(?:\s|$)`)},
		// Decimal subsection headers: "1.1 Welcome"
		{1, regexp.MustCompile(`(?m)^(\d+\.\d+)\s+[A-Z]`)},
		// Numbered items "1." but not decimals like "1.1". A single space
		// then any non-digit, so item text starting with a year still
		// matches when extra indentation follows the marker.
		{2, regexp.MustCompile(`(?m)^(\d+)\.\s[^\d]`)},
		// Lettered items "a.", "b."
		{2, regexp.MustCompile(`(?m)^([a-z])\.\s`)},
	},
	primaryLevels: map[int]bool{0: true, 1: true},
	splitBoundary: regexp.MustCompile(`(?m)\n(?:Section\s+\d|[A-Z][A-Z\s]{8,}$|\d+\.\d+\s)`),
}

func (d DocType) grammar() grammar {
	switch d {
	case DocTypeCaseLaw:
		return caseLawGrammar
	case DocTypeTraining:
		return trainingGrammar
	default:
		return statuteGrammar
	}
}

var subfolderToDocType = map[string]DocType{
	"statute":  DocTypeStatute,
	"statutes": DocTypeStatute,
	"case_law": DocTypeCaseLaw,
	"training": DocTypeTraining,
	"policy":   DocTypeTraining,
}

// Content-sniffing signals for unknown subfolders.
var (
	docketNumberPattern = regexp.MustCompile(`No\.\s*\d{4}AP\d+`)
	partyWordsPattern   = regexp.MustCompile(`(?i)Plaintiff|Defendant|Appellant|Respondent`)
	capsHeaderPattern   = regexp.MustCompile(`(?m)^[A-Z][A-Z\s&/\-]{10,}$`)
	sectionColonPattern = regexp.MustCompile(`Section\s+\d+:`)
)

// DetectDocType sniffs the document type from the first 3000 characters of
// content. Used when the subfolder classification is unknown.
func DetectDocType(text string) DocType {
	sample := text
	if len(sample) > 3000 {
		sample = sample[:3000]
	}

	if strings.Count(sample, "¶") >= 3 ||
		docketNumberPattern.MatchString(sample) ||
		strings.Contains(sample, "Opinion of the Court") ||
		partyWordsPattern.MatchString(sample) {
		return DocTypeCaseLaw
	}

	if capsHeaderPattern.MatchString(sample) ||
		sectionColonPattern.MatchString(sample) ||
		strings.Contains(strings.ToUpper(sample), "POLICY & PROCEDURE") ||
		strings.Contains(strings.ToLower(sample), "handbook") {
		return DocTypeTraining
	}

	return DocTypeStatute
}

// ResolveDocType maps a subfolder name to a document type, falling back to
// content sniffing for unknown folders.
func ResolveDocType(subfolder, text string) DocType {
	if dt, ok := subfolderToDocType[strings.ToLower(subfolder)]; ok {
		return dt
	}
	return DetectDocType(text)
}
