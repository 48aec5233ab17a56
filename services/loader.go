package services

import (
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"drug-mentions/sources"
)

// fieldSynonyms bildet bekannte Synonym-Feldnamen auf das kanonische Schema
// ab (die Clinical-Trials-Quelle nennt die Titelspalte "scientific_title").
var fieldSynonyms = map[string]string{
	"scientific_title": "title",
	"journal_name":     "journal",
	"drug_name":        "drug",
	"atccode":          "id",
}

// mentionFields sind die Pflichtfelder eines Mention-Records nach Mapping.
var mentionFields = []string{"title", "date", "journal"}

// LoadStats enthält Kennzahlen eines Ladevorgangs.
type LoadStats struct {
	Rows       int `json:"rows"`
	Kept       int `json:"kept"`
	Duplicates int `json:"duplicates"`
	Dropped    int `json:"dropped"`
}

// Loader liest Roh-Batches ein, normalisiert das Schema und die Daten und
// dedupliziert Zeilen. Strict steuert, ob fehlerhafte Zeilen den gesamten
// Ladevorgang abbrechen oder mit Warnung verworfen werden.
type Loader struct {
	Logger *zap.Logger
	Strict bool
}

// NewLoader erstellt einen neuen Loader.
func NewLoader(logger *zap.Logger, strict bool) *Loader {
	return &Loader{Logger: logger, Strict: strict}
}

// LoadMentions bereinigt einen oder mehrere Batches desselben Quelltyps und
// führt sie in Lade-Reihenfolge zusammen (Batch-Reihenfolge, dann
// Zeilen-Reihenfolge). Zeilen mit bereits gesehenem Titel werden verworfen,
// das erste Vorkommen bleibt.
func (l *Loader) LoadMentions(sourceType SourceType, batches ...sources.Batch) ([]MentionRecord, LoadStats, error) {
	var (
		records []MentionRecord
		stats   LoadStats
	)
	seenTitles := make(map[string]bool)

	for _, batch := range batches {
		log := l.Logger.With(zap.String("source", batch.Source))
		for i, raw := range batch.Records {
			stats.Rows++
			rec, err := l.cleanMention(batch.Source, i, raw, sourceType)
			if err != nil {
				var schemaErr *SchemaError
				if errors.As(err, &schemaErr) {
					// Strukturfehler: die Quelle selbst ist kaputt, nicht nur die Zeile.
					return nil, stats, err
				}
				if l.Strict {
					return nil, stats, err
				}
				stats.Dropped++
				log.Warn("Zeile verworfen", zap.Int("row", i), zap.Error(err))
				continue
			}
			if seenTitles[rec.Title] {
				stats.Duplicates++
				log.Debug("Doppelter Titel verworfen", zap.Int("row", i), zap.String("title", rec.Title))
				continue
			}
			seenTitles[rec.Title] = true
			records = append(records, rec)
			stats.Kept++
		}
	}
	return records, stats, nil
}

// LoadDrugs baut das kanonische Medikamenten-Vokabular aus den Drug-Batches.
// Namen werden kapitalisiert und case-insensitiv dedupliziert.
func (l *Loader) LoadDrugs(batches ...sources.Batch) (*Vocabulary, LoadStats, error) {
	var (
		names []string
		stats LoadStats
	)
	for _, batch := range batches {
		for i, raw := range batch.Records {
			stats.Rows++
			mapped := mapFields(raw)
			name, ok := mapped["drug"]
			if !ok {
				return nil, stats, &SchemaError{Source: batch.Source, Field: "drug", Row: i}
			}
			name = strings.TrimSpace(name)
			if name == "" {
				if l.Strict {
					return nil, stats, &ValidationError{Source: batch.Source, Row: i, Reason: "empty drug name"}
				}
				stats.Dropped++
				continue
			}
			names = append(names, capitalize(name))
			stats.Kept++
		}
	}
	vocab := NewVocabulary(names...)
	stats.Duplicates = stats.Kept - vocab.Len()
	l.Logger.Info("Medikamenten-Vokabular geladen",
		zap.Int("drugs", vocab.Len()),
		zap.Int("duplicates", stats.Duplicates))
	return vocab, stats, nil
}

// cleanMention wendet Synonym-Mapping, Titel- und Datums-Normalisierung auf
// eine einzelne Zeile an. Eine Zeile wird entweder vollständig normalisiert
// oder komplett abgelehnt.
func (l *Loader) cleanMention(source string, row int, raw sources.Record, sourceType SourceType) (MentionRecord, error) {
	mapped := mapFields(raw)

	for _, field := range mentionFields {
		if _, ok := mapped[field]; !ok {
			return MentionRecord{}, &SchemaError{Source: source, Field: field, Row: row}
		}
	}

	title := normalizeTitle(mapped["title"])
	if title == "" {
		return MentionRecord{}, &ValidationError{Source: source, Row: row, Reason: "empty title"}
	}

	date, err := ParseDate(strings.TrimSpace(mapped["date"]))
	if err != nil {
		return MentionRecord{}, err
	}

	return MentionRecord{
		ID:      strings.TrimSpace(mapped["id"]),
		Title:   title,
		Date:    date,
		Journal: strings.TrimSpace(mapped["journal"]),
		Source:  sourceType,
	}, nil
}

// mapFields benennt Synonym-Felder auf die kanonischen Namen um. Unbekannte
// Felder bleiben unverändert erhalten.
func mapFields(raw sources.Record) map[string]string {
	mapped := make(map[string]string, len(raw))
	for field, val := range raw {
		key := strings.ToLower(strings.TrimSpace(field))
		if canonical, ok := fieldSynonyms[key]; ok {
			key = canonical
		}
		mapped[key] = val
	}
	return mapped
}

// titleReplacer ersetzt typografische Ligaturen, die aus den Roh-Exporten
// stammen, bevor NFC-normalisiert wird.
var titleReplacer = strings.NewReplacer(
	"ﬁ", "fi",
	"ﬂ", "fl",
	"ﬀ", "ff",
	"ﬃ", "ffi",
	"ﬄ", "ffl",
)

// normalizeTitle trimmt und NFC-normalisiert einen Titel. Die JSON-Quelle
// liefert teilweise escapte Unicode-Artefakte.
func normalizeTitle(s string) string {
	s = titleReplacer.Replace(strings.TrimSpace(s))
	normalized, _, err := transform.String(norm.NFC, s)
	if err != nil {
		return s
	}
	return normalized
}
