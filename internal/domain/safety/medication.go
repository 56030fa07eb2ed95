package safety

import (
	"regexp"
	"strings"
)

type drugClass struct {
	name     string
	drugs    []string
	severity string
	warning  Warning
}

// Fixed drug-class lists. Matching is case-insensitive substring match of the
// drug name inside the medication string, so "Warfarin 5mg" matches warfarin.
var drugClasses = []drugClass{
	{
		name: "anticoagulants",
		drugs: []string{
			"warfarin", "marevan", "eliquis", "xarelto", "pradaxa", "klexane",
			"fragmin", "aspirin", "albyl", "heparin", "plavix", "clopidogrel",
		},
		warning: Warning{
			Type:     "medication_anticoagulant",
			Severity: WarningHigh,
			Message:  "Pasienten bruker blodfortynnende: økt blødningsrisiko ved manuell behandling",
			Contraindications: []string{
				"HVLA",
				"aggressive soft-tissue techniques",
			},
			Recommendation: "Unngå HVLA og kraftig bløtvevsbehandling; vurder skånsomme teknikker",
		},
	},
	{
		name: "steroids",
		drugs: []string{
			"prednisolon", "kortison", "prednison", "dexamethason", "prednisolone",
		},
		warning: Warning{
			Type:           "medication_steroid",
			Severity:       WarningModerate,
			Message:        "Kortikosteroidbruk: redusert ben- og bløtvevskvalitet, tilpass behandlingstrykk",
			Recommendation: "Forsiktighet ved leddmobilisering og dyp bløtvevsbehandling",
		},
	},
	{
		name: "bisphosphonates",
		drugs: []string{
			"fosamax", "alendronate", "alendronat", "risedronate", "risedronat",
			"zoledronic", "zoledronsyre", "ibandronate", "ibandronat",
			"bonviva", "actonel",
		},
		warning: Warning{
			Type:     "medication_bisphosphonate",
			Severity: WarningModerate,
			Message:  "Bisfosfonatbruk indikerer osteoporose: HVLA og kraftige justeringer er kontraindisert",
			Contraindications: []string{
				"HVLA",
				"forceful adjustment",
			},
			Recommendation: "Bruk lavkraftsteknikker; vurder bentetthetsstatus",
		},
	},
}

// CheckMedications matches each medication string against the fixed drug-class
// lists. Each matched class produces at most one warning regardless of how
// many of its drugs are present.
func CheckMedications(medications []string) []Warning {
	var warnings []Warning
	for _, class := range drugClasses {
		matched := false
		for _, med := range medications {
			lower := strings.ToLower(med)
			for _, drug := range class.drugs {
				if strings.Contains(lower, drug) {
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
		if matched {
			warnings = append(warnings, class.warning)
		}
	}
	return warnings
}

var (
	firstEpisodePattern = regexp.MustCompile(`(?i)første episode|førstegangs|nyoppstått|first episode|new onset`)
	suddenOnsetPattern  = regexp.MustCompile(`(?i)plutselig|akutt|sudden|acute|nyoppstått|new onset`)
)

// CheckAgeRisks produces age-protocol warnings from structured age plus the
// presenting complaint. The checks are independent and non-exclusive: an
// older patient with sudden onset receives both the geriatric note and the
// screening note.
func CheckAgeRisks(age int, complaint string) []Warning {
	var warnings []Warning

	switch {
	case age < 18:
		warnings = append(warnings, Warning{
			Type:     "age_pediatric",
			Severity: WarningInfo,
			Message:  "Pasient under 18 år: bruk pediatrisk undersøkelses- og behandlingsprotokoll",
			Action:   "PEDIATRIC_PROTOCOL",
		})
	case age < 65:
		if age >= 50 && firstEpisodePattern.MatchString(complaint) {
			warnings = append(warnings, Warning{
				Type:     "age_first_episode",
				Severity: WarningModerate,
				Message:  "Førstegangs plage etter fylte 50: gjennomfør full rød flagg-screening",
				Action:   "RED_FLAG_SCREENING",
			})
		}
	default: // age >= 65
		warnings = append(warnings, Warning{
			Type:     "age_geriatric",
			Severity: WarningGeneral,
			Message:  "Pasient over 65 år: bruk geriatrisk protokoll og vurder bentetthet",
			Action:   "GERIATRIC_PROTOCOL",
		})
		if suddenOnsetPattern.MatchString(complaint) {
			warnings = append(warnings, Warning{
				Type:     "age_sudden_onset",
				Severity: WarningModerate,
				Message:  "Akutt debut hos eldre pasient: gjennomfør full rød flagg-screening",
				Action:   "RED_FLAG_SCREENING",
			})
		}
	}
	return warnings
}
