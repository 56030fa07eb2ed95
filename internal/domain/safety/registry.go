package safety

import (
	"fmt"
	"regexp"
)

// Registry is an immutable set of red-flag rules plus category metadata.
// Build one with NewRegistry (custom rule sets, mainly for tests) or use
// DefaultRegistry for the authoritative clinical table.
type Registry struct {
	rules      []Rule
	categories map[Category]CategoryInfo
}

// NewRegistry validates that every rule resolves to a known category and has
// at least one pattern, and returns an immutable registry.
func NewRegistry(rules []Rule, categories map[Category]CategoryInfo) (*Registry, error) {
	seen := make(map[string]bool, len(rules))
	for i := range rules {
		r := &rules[i]
		if r.ID == "" {
			return nil, fmt.Errorf("rule %d: id is required", i)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate rule id: %s", r.ID)
		}
		seen[r.ID] = true
		if len(r.Patterns) == 0 {
			return nil, fmt.Errorf("rule %s: at least one pattern is required", r.ID)
		}
		if _, ok := categories[r.Category]; !ok {
			return nil, fmt.Errorf("rule %s: unknown category %s", r.ID, r.Category)
		}
		if r.RiskMultiplier == 0 {
			r.RiskMultiplier = 1.0
		}
	}
	return &Registry{rules: rules, categories: categories}, nil
}

// Rules returns the rules in registry order.
func (r *Registry) Rules() []Rule { return r.rules }

// Category returns the metadata for a category code.
func (r *Registry) Category(c Category) (CategoryInfo, bool) {
	info, ok := r.categories[c]
	return info, ok
}

// CategoryOf returns the category metadata for a rule id.
func (r *Registry) CategoryOf(ruleID string) (CategoryInfo, bool) {
	for i := range r.rules {
		if r.rules[i].ID == ruleID {
			return r.categories[r.rules[i].Category], true
		}
	}
	return CategoryInfo{}, false
}

// DefaultRegistry returns the authoritative rule set. Rules are bilingual:
// Norwegian and English variants live as alternations inside one pattern or
// as sibling patterns on the same rule.
func DefaultRegistry() *Registry {
	reg, err := NewRegistry(defaultRules(), defaultCategories())
	if err != nil {
		// The static tables are validated by tests; a failure here is a
		// programming error in the table itself.
		panic(err)
	}
	return reg
}

func defaultCategories() map[Category]CategoryInfo {
	return map[Category]CategoryInfo{
		CategoryCaudaEquina: {
			Code:      CategoryCaudaEquina,
			NameNo:    "Cauda equina-syndrom",
			NameEn:    "Cauda equina syndrome",
			Severity:  SeverityCritical,
			Action:    ActionImmediateReferral,
			Timeframe: "immediate",
		},
		CategoryVascular: {
			Code:      CategoryVascular,
			NameNo:    "Vaskulær patologi",
			NameEn:    "Vascular pathology",
			Severity:  SeverityCritical,
			Action:    ActionEmergencyEvaluation,
			Timeframe: "immediate",
		},
		CategoryMalignancy: {
			Code:      CategoryMalignancy,
			NameNo:    "Mulig malignitet",
			NameEn:    "Possible malignancy",
			Severity:  SeverityHigh,
			Action:    ActionUrgentReferral,
			Timeframe: "24-48 hours",
		},
		CategoryInfection: {
			Code:      CategoryInfection,
			NameNo:    "Mulig spinal infeksjon",
			NameEn:    "Possible spinal infection",
			Severity:  SeverityHigh,
			Action:    ActionMedicalEvaluation,
			Timeframe: "24-48 hours",
		},
		CategoryFracture: {
			Code:      CategoryFracture,
			NameNo:    "Mulig fraktur",
			NameEn:    "Possible fracture",
			Severity:  SeverityHigh,
			Action:    ActionImagingRequired,
			Timeframe: "before manual treatment",
		},
		CategoryNeurological: {
			Code:      CategoryNeurological,
			NameNo:    "Nevrologiske utfall",
			NameEn:    "Neurological deficit",
			Severity:  SeverityHigh,
			Action:    ActionDetailedExam,
			Timeframe: "within 1 week",
		},
		CategoryInflammatory: {
			Code:      CategoryInflammatory,
			NameNo:    "Mulig inflammatorisk ryggsykdom",
			NameEn:    "Possible inflammatory spine disease",
			Severity:  SeverityModerate,
			Action:    ActionSpecialistReferral,
			Timeframe: "2-4 weeks",
		},
		CategorySystemic: {
			Code:      CategorySystemic,
			NameNo:    "Systemisk sykdomstegn",
			NameEn:    "Systemic illness",
			Severity:  SeverityModerate,
			Action:    ActionMedicalConsultation,
			Timeframe: "1-2 weeks",
		},
		CategoryMedication: {
			Code:      CategoryMedication,
			NameNo:    "Medikamentell risiko",
			NameEn:    "Medication-related risk",
			Severity:  SeverityModerate,
			Action:    ActionPrecaution,
			Timeframe: "before treatment",
		},
		CategoryAgeRelated: {
			Code:      CategoryAgeRelated,
			NameNo:    "Aldersrelatert risiko",
			NameEn:    "Age-related risk",
			Severity:  SeverityModerate,
			Action:    ActionModifiedTreatment,
			Timeframe: "at first consultation",
		},
	}
}

func intPtr(v int) *int { return &v }

func defaultRules() []Rule {
	return []Rule{
		// -- Cauda equina --
		{
			ID:       "ce_bladder",
			Category: CategoryCaudaEquina,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)blæreforstyrrels|urinretensjon|vannlatingsproblem|bladder (dysfunction|retention)|urinary retention`),
			},
			DescriptionNo: "Blære-/vannlatingsforstyrrelse",
			DescriptionEn: "Bladder dysfunction or urinary retention",
			ScreeningQuestions: []string{
				"Har du problemer med å late vannet eller kjenne at blæren er full?",
			},
		},
		{
			ID:       "ce_saddle",
			Category: CategoryCaudaEquina,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)nummenhet mellom be(i)?na|ridebukseanestesi|ridebukseområdet|saddle (anesthesia|numbness)|perineal numbness`),
			},
			DescriptionNo: "Nedsatt følelse i ridebukseområdet",
			DescriptionEn: "Saddle anesthesia",
			ScreeningQuestions: []string{
				"Har du nummenhet i skrittet eller mellom bena?",
			},
		},
		{
			ID:       "ce_bowel",
			Category: CategoryCaudaEquina,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)avføringsinkontinens|fekal inkontinens|mistet kontroll over avføring|bowel incontinence|f(a|e)ecal incontinence`),
			},
			DescriptionNo: "Avføringsinkontinens",
			DescriptionEn: "Bowel incontinence",
		},
		{
			ID:       "ce_bilateral",
			Category: CategoryCaudaEquina,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)bilateral isjias|isjias i begge be(i)?n|kraftsvikt i begge be(i)?n|bilateral (sciatica|leg weakness)`),
			},
			DescriptionNo: "Bilateral isjias eller kraftsvikt",
			DescriptionEn: "Bilateral sciatica or leg weakness",
		},

		// -- Vascular --
		{
			ID:       "va_aneurysm",
			Category: CategoryVascular,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)pulserende (oppfylling|masse)|aortaaneurisme|abdominal(t)? aneurisme|pulsat(ing|ile) mass|aortic aneurysm`),
			},
			DescriptionNo: "Mistanke om abdominalt aortaaneurisme",
			DescriptionEn: "Suspected abdominal aortic aneurysm",
			AgeThreshold:  intPtr(50),
		},
		{
			ID:       "va_tearing_pain",
			Category: CategoryVascular,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)rivende smerte|rift i brystet|tearing (chest |back )?pain`),
				regexp.MustCompile(`(?i)brystsmerter? med utstråling til rygg|chest pain radiating to (the )?back`),
			},
			DescriptionNo: "Rivende bryst-/ryggsmerte",
			DescriptionEn: "Tearing chest or back pain",
		},

		// -- Malignancy --
		{
			ID:       "ma_weight_loss",
			Category: CategoryMalignancy,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)uforklarlig vekttap|utilsiktet vekttap|ufrivillig vekttap|unexplained weight ?loss|unintentional weight ?loss`),
			},
			DescriptionNo: "Uforklarlig vekttap",
			DescriptionEn: "Unexplained weight loss",
			ScreeningQuestions: []string{
				"Har du gått ned i vekt uten å prøve de siste månedene?",
			},
		},
		{
			ID:       "ma_night_pain",
			Category: CategoryMalignancy,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)nattlige smerter|nattsmerter|smerter om natten|verst om natten|night pain|pain at night|wakes? (her|him|them|the patient) (up )?at night`),
				regexp.MustCompile(`(?i)vekker (henne|ham|pasienten) om natten|vekker (henne|ham|pasienten)`),
			},
			DescriptionNo: "Nattlige smerter som forstyrrer søvn",
			DescriptionEn: "Night pain disturbing sleep",
		},
		{
			ID:       "ma_cancer_history",
			Category: CategoryMalignancy,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)tidligere kreft|kjent kreftsykdom|malignitet i anamnesen|history of (cancer|malignancy)|previous cancer`),
			},
			DescriptionNo:  "Tidligere kreftsykdom",
			DescriptionEn:  "History of malignancy",
			RiskMultiplier: 1.5,
		},

		// -- Infection --
		{
			ID:       "in_fever",
			Category: CategoryInfection,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)feber|frysninger|frostanfall|fever|chills`),
			},
			DescriptionNo: "Feber eller frysninger sammen med ryggsmerter",
			DescriptionEn: "Fever or chills with spinal pain",
		},
		{
			ID:       "in_iv_drug",
			Category: CategoryInfection,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)intravenøst? (stoffbruk|rusmiddelbruk)|sprøytemisbruk|iv drug (use|abuse)|intravenous drug`),
			},
			DescriptionNo:  "Intravenøst rusmiddelbruk",
			DescriptionEn:  "Intravenous drug use",
			RiskMultiplier: 1.3,
		},
		{
			ID:       "in_recent_infection",
			Category: CategoryInfection,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)nylig infeksjon|pågående infeksjon|urinveisinfeksjon|recent infection|current infection|urinary tract infection`),
			},
			DescriptionNo: "Nylig eller pågående infeksjon",
			DescriptionEn: "Recent or ongoing infection",
		},

		// -- Fracture --
		{
			ID:       "fr_major_trauma",
			Category: CategoryFracture,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)alvorlig traume|fall fra høyde|trafikkulykke|major trauma|fall from height|car accident|motor vehicle accident`),
			},
			DescriptionNo: "Alvorlig traume",
			DescriptionEn: "Major trauma",
		},
		{
			ID:       "fr_minor_trauma_elderly",
			Category: CategoryFracture,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)mindre traume|lett fall|falt hjemme|minor (trauma|fall)|fell at home`),
			},
			DescriptionNo: "Mindre traume hos eldre pasient",
			DescriptionEn: "Minor trauma in an older patient",
			AgeThreshold:  intPtr(65),
		},
		{
			ID:       "fr_osteoporosis",
			Category: CategoryFracture,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)osteoporose|benskjørhet|osteoporosis|kompresjonsbrudd|compression fracture`),
			},
			DescriptionNo:  "Kjent osteoporose eller tidligere kompresjonsbrudd",
			DescriptionEn:  "Known osteoporosis or previous compression fracture",
			RiskMultiplier: 1.2,
		},

		// -- Neurological --
		{
			ID:       "ne_progressive_weakness",
			Category: CategoryNeurological,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)progredierende (parese|lammelse|svakhet)|tiltagende kraftsvikt|progressive (weakness|paresis|paralysis)`),
			},
			DescriptionNo:  "Progredierende parese",
			DescriptionEn:  "Progressive motor weakness",
			RiskMultiplier: 1.3,
		},
		{
			ID:       "ne_numbness",
			Category: CategoryNeurological,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)nummenhet|parestesi|prikking og stikking|numbness|paresthesia|pins and needles`),
			},
			DescriptionNo: "Nummenhet eller parestesier",
			DescriptionEn: "Numbness or paresthesia",
		},
		{
			ID:       "ne_gait",
			Category: CategoryNeurological,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)gangvansker|ustøhet|ataksi|gait disturbance|unsteady gait|ataxia`),
			},
			DescriptionNo: "Gangvansker eller ustøhet",
			DescriptionEn: "Gait disturbance",
		},

		// -- Inflammatory --
		{
			ID:       "if_morning_stiffness",
			Category: CategoryInflammatory,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)morgenstivhet|stiv om morgenen|morning stiffness`),
			},
			DescriptionNo: "Uttalt morgenstivhet",
			DescriptionEn: "Pronounced morning stiffness",
			AgeThreshold:  intPtr(45),
			AgeLessThan:   true,
		},
		{
			ID:       "if_insidious_onset",
			Category: CategoryInflammatory,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)snikende debut|gradvis innsettende|insidious onset|bedring ved aktivitet|improves with (exercise|activity)`),
			},
			DescriptionNo: "Snikende debut med bedring ved aktivitet",
			DescriptionEn: "Insidious onset improving with activity",
			AgeThreshold:  intPtr(45),
			AgeLessThan:   true,
		},

		// -- Systemic --
		{
			ID:       "sy_malaise",
			Category: CategorySystemic,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)generell sykdomsfølelse|nedsatt allmenntilstand|general malaise|generally unwell`),
			},
			DescriptionNo: "Generell sykdomsfølelse",
			DescriptionEn: "General malaise",
		},
		{
			ID:       "sy_night_sweats",
			Category: CategorySystemic,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)nattesvette|night sweats`),
			},
			DescriptionNo: "Nattesvette",
			DescriptionEn: "Night sweats",
		},
		{
			ID:       "sy_immunosuppression",
			Category: CategorySystemic,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)immunsupprimert|immunsuppresjon|immunosuppress(ed|ion)|\bhiv\b`),
			},
			DescriptionNo:  "Immunsuppresjon",
			DescriptionEn:  "Immunosuppression",
			RiskMultiplier: 1.2,
		},

		// -- Medication (free-text mentions; structured checks live in
		// CheckMedications) --
		{
			ID:       "me_anticoagulant",
			Category: CategoryMedication,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)antikoagulant|blodfortynnende|anticoagulant|blood thinner`),
				regexp.MustCompile(`(?i)warfarin|marevan|eliquis|xarelto|pradaxa`),
			},
			DescriptionNo: "Bruk av blodfortynnende",
			DescriptionEn: "Anticoagulant use",
		},
		{
			ID:       "me_longterm_steroid",
			Category: CategoryMedication,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)langvarig (bruk av )?kortison|kortisonbehandling|long.?term (cortico)?steroid|prednisolon|prednisone`),
			},
			DescriptionNo: "Langvarig kortisonbruk",
			DescriptionEn: "Long-term corticosteroid use",
		},

		// -- Age related --
		{
			ID:       "ag_first_episode_over_50",
			Category: CategoryAgeRelated,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)første episode|førstegangs|nyoppstått|first episode|new onset`),
			},
			DescriptionNo: "Førstegangs ryggsmerter etter fylte 50",
			DescriptionEn: "First episode of spinal pain after age 50",
			AgeThreshold:  intPtr(50),
		},
	}
}
