package services

import (
	"strings"
	"unicode"
)

// SourceType klassifiziert die Herkunft einer Erwähnung. Die Werte sind
// zugleich die Keys im exportierten Graph-JSON.
type SourceType string

const (
	SourcePublication   SourceType = "PubMed"
	SourceClinicalTrial SourceType = "Clinical Trial"
)

// SourceTypes listet alle Quelltypen in fester Reihenfolge (Publikationen vor
// Studien, siehe Merge-Reihenfolge im Graph-Builder).
var SourceTypes = [2]SourceType{SourcePublication, SourceClinicalTrial}

// index gibt die Position des Quelltyps im Graph-Array zurück.
func (s SourceType) index() int {
	if s == SourceClinicalTrial {
		return 1
	}
	return 0
}

// MentionRecord ist ein bereinigter Datensatz einer Publikation oder
// klinischen Studie. Der Titel ist der Matching-Schlüssel.
type MentionRecord struct {
	ID      string     `json:"id,omitempty"`
	Title   string     `json:"title"`
	Date    Date       `json:"date"`
	Journal string     `json:"journal"`
	Source  SourceType `json:"source_type"`
}

// Vocabulary ist die deduplizierte, geordnete Menge der bekannten
// Medikamenten-Namen. Identität ist der case-gefaltete Name; die
// Anzeige-Form ist das erste Vorkommen in Ladereihenfolge.
type Vocabulary struct {
	names []string
	index map[string]int
}

// NewVocabulary baut ein Vokabular aus Namen in gegebener Reihenfolge auf.
// Doppelte Namen (case-insensitiv) werden verworfen, das erste Vorkommen bleibt.
func NewVocabulary(names ...string) *Vocabulary {
	v := &Vocabulary{index: make(map[string]int, len(names))}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, exists := v.index[key]; exists {
			continue
		}
		v.index[key] = len(v.names)
		v.names = append(v.names, name)
	}
	return v
}

// Names gibt die Namen in Vokabular-Reihenfolge zurück (Kopie).
func (v *Vocabulary) Names() []string {
	return append([]string(nil), v.names...)
}

// Len gibt die Anzahl der Einträge zurück.
func (v *Vocabulary) Len() int {
	return len(v.names)
}

// Contains prüft case-insensitiv, ob ein Name im Vokabular enthalten ist.
func (v *Vocabulary) Contains(name string) bool {
	_, ok := v.index[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Canonical gibt die kanonische Anzeige-Form eines Namens zurück.
func (v *Vocabulary) Canonical(name string) (string, bool) {
	i, ok := v.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false
	}
	return v.names[i], true
}

// capitalize hebt den ersten Buchstaben an und senkt den Rest
// ("ETHANOL" -> "Ethanol"), analog zur Normalisierung der Rohdaten.
func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
