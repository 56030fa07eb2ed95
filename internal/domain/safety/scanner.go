package safety

import "sort"

// Scanner evaluates every registry rule against free-text clinical narrative.
// It is a pure function of its inputs and the injected registry, so a single
// Scanner is safe for concurrent use.
type Scanner struct {
	registry *Registry
}

func NewScanner(registry *Registry) *Scanner {
	return &Scanner{registry: registry}
}

// Scan tests each rule's patterns in order against text and returns the
// triggered flags sorted by severity (CRITICAL first; ties keep registry
// order). A rule contributes at most one flag even if several of its
// patterns match. Empty text returns no flags.
func (s *Scanner) Scan(text string, pctx *PatientContext) []DetectedFlag {
	if text == "" {
		return nil
	}

	var age *int
	if pctx != nil {
		age = pctx.Age
	}

	var flags []DetectedFlag
	for _, rule := range s.registry.Rules() {
		matched := ""
		for _, p := range rule.Patterns {
			if m := p.FindString(text); m != "" {
				matched = m
				break // first matching pattern wins
			}
		}
		if matched == "" {
			continue
		}
		if rule.AgeThreshold != nil && age != nil {
			if rule.AgeLessThan {
				if *age >= *rule.AgeThreshold {
					continue
				}
			} else if *age < *rule.AgeThreshold {
				continue
			}
		}
		info, ok := s.registry.Category(rule.Category)
		if !ok {
			continue
		}
		flags = append(flags, DetectedFlag{
			RuleID:         rule.ID,
			Category:       rule.Category,
			Severity:       info.Severity,
			Action:         info.Action,
			Timeframe:      info.Timeframe,
			DescriptionNo:  rule.DescriptionNo,
			DescriptionEn:  rule.DescriptionEn,
			Matched:        matched,
			RiskMultiplier: rule.RiskMultiplier,
		})
	}

	sort.SliceStable(flags, func(i, j int) bool {
		return flags[i].Severity.Rank() < flags[j].Severity.Rank()
	})
	return flags
}
