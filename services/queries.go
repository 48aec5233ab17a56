package services

import (
	"sort"
	"strings"
)

// Ad-hoc-Queries über den fertigen Mention-Graph. Beide Funktionen sind
// read-only und geben nie veränderbare Referenzen in den Graph heraus.

// JournalWithMostDistinctDrugs gibt das Journal zurück, das die meisten
// unterschiedlichen Medikamente erwähnt (Publikation oder Studie, beides
// zählt), zusammen mit der Anzahl. Bei Gleichstand gewinnt das
// lexikographisch kleinste Journal; bei leerem Graph kommt ("", 0) zurück.
func JournalWithMostDistinctDrugs(graph *MentionGraph) (string, int) {
	type journalCount struct {
		name  string
		drugs map[string]bool
	}
	counts := make(map[string]*journalCount)

	for _, drug := range graph.Drugs {
		for _, journal := range drug.Journals {
			key := strings.ToLower(journal.Journal)
			jc, ok := counts[key]
			if !ok {
				jc = &journalCount{name: journal.Journal, drugs: make(map[string]bool)}
				counts[key] = jc
			}
			jc.drugs[strings.ToLower(drug.Drug)] = true
		}
	}

	best, bestCount := "", 0
	for _, jc := range counts {
		n := len(jc.drugs)
		if n > bestCount || (n == bestCount && bestCount > 0 && jc.name < best) {
			best, bestCount = jc.name, n
		}
	}
	return best, bestCount
}

// RelatedDrugs gibt die Medikamente zurück, die mindestens ein Journal mit
// dem Ziel-Medikament teilen, eingeschränkt auf Erwähnungen des gegebenen
// Quelltyps. Das Ziel selbst ist ausgeschlossen. Ist das Ziel nicht im
// Graph, kommt ein *UnknownDrugError zurück. Das Ergebnis ist sortiert,
// damit Aufrufer eine stabile Menge sehen.
func RelatedDrugs(graph *MentionGraph, targetDrug string, source SourceType) ([]string, error) {
	target, ok := graph.Drug(targetDrug)
	if !ok {
		return nil, &UnknownDrugError{Drug: targetDrug}
	}

	targetJournals := make(map[string]bool)
	for _, journal := range target.Journals {
		if len(journal.ForSource(source)) > 0 {
			targetJournals[strings.ToLower(journal.Journal)] = true
		}
	}

	var related []string
	for _, drug := range graph.Drugs {
		if strings.EqualFold(drug.Drug, target.Drug) {
			continue
		}
		for _, journal := range drug.Journals {
			if targetJournals[strings.ToLower(journal.Journal)] && len(journal.ForSource(source)) > 0 {
				related = append(related, drug.Drug)
				break
			}
		}
	}
	sort.Strings(related)
	return related, nil
}
