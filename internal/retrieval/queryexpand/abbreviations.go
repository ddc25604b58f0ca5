// Package queryexpand rewrites raw user questions for hybrid search: it
// expands law-enforcement abbreviations inline, maps colloquialisms to the
// formal terms that appear in statutes and case law, extracts exact-match
// keywords, and suggests relevant statute chapters.
package queryexpand

import "regexp"

type abbreviation struct {
	abbr    string
	full    string
	pattern *regexp.Regexp
}

func newAbbreviation(abbr, full string) abbreviation {
	return abbreviation{
		abbr:    abbr,
		full:    full,
		pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(abbr) + `\b`),
	}
}

// Wisconsin law-enforcement shorthand. Ordered so replacement output is
// deterministic.
var abbreviations = []abbreviation{
	newAbbreviation("OWI", "Operating While Intoxicated"),
	newAbbreviation("OMVWI", "Operating a Motor Vehicle While Intoxicated"),
	newAbbreviation("OAR", "Operating After Revocation"),
	newAbbreviation("OAS", "Operating After Suspension"),
	newAbbreviation("BOLO", "Be On the Lookout"),
	newAbbreviation("EDP", "Emotionally Disturbed Person"),
	newAbbreviation("DV", "Domestic Violence"),
	newAbbreviation("DUI", "Driving Under the Influence"),
	newAbbreviation("BAC", "Blood Alcohol Concentration"),
	newAbbreviation("FTA", "Failure to Appear"),
	newAbbreviation("LESB", "Law Enforcement Standards Board"),
	newAbbreviation("DOJ", "Department of Justice"),
	newAbbreviation("DA", "District Attorney"),
	newAbbreviation("ADA", "Assistant District Attorney"),
	newAbbreviation("OIS", "Officer Involved Shooting"),
	newAbbreviation("SRO", "School Resource Officer"),
	newAbbreviation("K9", "Canine Unit"),
	newAbbreviation("SWAT", "Special Weapons and Tactics"),
	newAbbreviation("FTO", "Field Training Officer"),
	newAbbreviation("MVA", "Motor Vehicle Accident"),
	newAbbreviation("PBT", "Preliminary Breath Test"),
	newAbbreviation("SFSTs", "Standardized Field Sobriety Tests"),
	newAbbreviation("CCW", "Carrying a Concealed Weapon"),
	newAbbreviation("PC", "Probable Cause"),
	newAbbreviation("RS", "Reasonable Suspicion"),
	newAbbreviation("MOU", "Memorandum of Understanding"),
	newAbbreviation("SOP", "Standard Operating Procedure"),
	newAbbreviation("UOF", "Use of Force"),
	newAbbreviation("CIT", "Crisis Intervention Team"),
	newAbbreviation("AODA", "Alcohol and Other Drug Abuse"),
	newAbbreviation("TRO", "Temporary Restraining Order"),
	newAbbreviation("OC", "Oleoresin Capsicum"),
	newAbbreviation("ECD", "Electronic Control Device"),
	newAbbreviation("LEO", "Law Enforcement Officer"),
	newAbbreviation("PAT", "Pre-trial Assessment Tool"),
}

// ExpandAbbreviations replaces whole-word abbreviations with
// "ABBR (Full Expansion)" so both forms stay searchable. Matching is
// case-insensitive.
func ExpandAbbreviations(text string) string {
	result := text
	for _, a := range abbreviations {
		if a.pattern.MatchString(result) {
			result = a.pattern.ReplaceAllLiteralString(result, a.abbr+" ("+a.full+")")
		}
	}
	return result
}
