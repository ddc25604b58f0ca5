package queryexpand

import "strings"

type termMapping struct {
	phrase  string
	formals []string
}

// Informal phrase to formal statutory language. Substring match against the
// lowercased query; ordered for deterministic synonym output.
var colloquialToLegal = []termMapping{
	{"pulled over", []string{"traffic stop", "Terry stop", "investigatory stop"}},
	{"drunk driving", []string{"operating while intoxicated", "OWI", "OMVWI"}},
	{"speeding", []string{"exceeding speed limit", "speed violation"}},
	{"running a red light", []string{"failure to obey traffic signal"}},
	{"hit and run", []string{"duty upon striking", "failure to report accident"}},
	{"road rage", []string{"aggressive driving", "reckless driving"}},
	{"resisting arrest", []string{"resisting or obstructing an officer"}},
	{"shoplifting", []string{"retail theft", "theft"}},
	{"breaking and entering", []string{"burglary", "unlawful entry"}},
	{"assault", []string{"battery", "substantial battery", "aggravated battery"}},
	{"murder", []string{"first degree intentional homicide", "homicide"}},
	{"manslaughter", []string{"second degree reckless homicide", "homicide by negligent operation"}},
	{"drug possession", []string{"possession of controlled substance", "controlled substance"}},
	{"car theft", []string{"operating vehicle without consent", "theft of motor vehicle"}},
	{"trespassing", []string{"criminal trespass", "trespass to land"}},
	{"domestic abuse", []string{"domestic violence", "domestic abuse"}},
	{"restraining order", []string{"temporary restraining order", "TRO", "injunction"}},
	{"bail", []string{"bond", "bail jumping", "conditions of release"}},
	{"jaywalking", []string{"pedestrian violation", "failure to yield"}},
	{"fleeing", []string{"fleeing or eluding an officer", "vehicle pursuit"}},
	{"terry stop", []string{"Terry stop", "investigatory stop", "investigative detention", "reasonable suspicion stop"}},
	{"stop and frisk", []string{"Terry frisk", "protective search", "pat down search"}},
	{"owi", []string{"operating while intoxicated", "OWI", "OMVWI", "drunk driving"}},
	{"field sobriety", []string{"standardized field sobriety test", "SFST", "field sobriety"}},
	{"pat down", []string{"Terry frisk", "protective search"}},
	{"miranda", []string{"Miranda warning", "custodial interrogation rights"}},
	{"search warrant", []string{"search warrant", "warrant execution"}},
	{"no knock", []string{"no-knock warrant", "forced entry warrant"}},
	{"use of force", []string{"use of force", "reasonable force", "deadly force"}},
	{"taser", []string{"electronic control device", "conducted energy weapon"}},
	{"pepper spray", []string{"oleoresin capsicum", "OC spray", "chemical agent"}},
	{"high speed chase", []string{"vehicle pursuit", "fleeing or eluding"}},
	{"dwi", []string{"operating while intoxicated", "OWI"}},
	{"dui", []string{"operating while intoxicated", "OWI"}},
}

// Topic keywords to Wisconsin statute chapter numbers.
var topicToChapters = []termMapping{
	{"traffic", []string{"346"}},
	{"criminal", []string{"939", "940", "941", "942", "943", "944", "945", "946", "947", "948"}},
	{"homicide", []string{"940"}},
	{"theft", []string{"943"}},
	{"drugs", []string{"961"}},
	{"alcohol", []string{"125", "346"}},
	{"weapons", []string{"941"}},
	{"domestic", []string{"813", "968"}},
	{"juvenile", []string{"938"}},
	{"police powers", []string{"175", "968"}},
	{"terry stop", []string{"968"}},
	{"stop and frisk", []string{"968"}},
	{"use of force", []string{"939"}},
	{"field sobriety", []string{"343", "346"}},
	{"owi", []string{"346"}},
	{"sexual", []string{"940", "944", "948"}},
	{"burglary", []string{"943"}},
	{"fraud", []string{"943"}},
}

// LegalSynonyms returns formal equivalents for informal phrases found in the
// query, deduplicated in discovery order.
func LegalSynonyms(query string) []string {
	return collect(colloquialToLegal, query)
}

// ChapterHints returns statute chapter numbers for topics mentioned in the
// query, deduplicated in discovery order.
func ChapterHints(query string) []string {
	return collect(topicToChapters, query)
}

func collect(table []termMapping, query string) []string {
	lower := strings.ToLower(query)
	var out []string
	seen := make(map[string]bool)
	for _, m := range table {
		if !strings.Contains(lower, m.phrase) {
			continue
		}
		for _, f := range m.formals {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}
