package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// GraphEntry ist ein Blatt im Mention-Graph: Titel und Datum einer
// Erwähnung. Journal und Quelltyp sind die Keys darüber.
type GraphEntry struct {
	Title string `json:"title"`
	Date  Date   `json:"date"`
}

// JournalMentions bündelt für ein (Medikament, Journal)-Paar die Erwähnungen
// beider Quelltypen. Beide Folgen sind nach dem Merge immer vorhanden,
// gegebenenfalls leer; "leer aber vorhanden" statt "fehlend" ist damit per
// Konstruktion entschieden.
type JournalMentions struct {
	Journal string
	Entries [2][]GraphEntry
}

// ForSource gibt die Erwähnungen eines Quelltyps zurück.
func (j *JournalMentions) ForSource(source SourceType) []GraphEntry {
	return j.Entries[source.index()]
}

// DrugMentions ist der Teilbaum eines Medikaments: seine Journals in
// Erst-Auftreten-Reihenfolge.
type DrugMentions struct {
	Drug     string
	Journals []*JournalMentions

	index map[string]int // lower-cased Journal -> Position
}

// Journal gibt den Eintrag für ein Journal zurück (case-insensitiv).
func (d *DrugMentions) Journal(name string) (*JournalMentions, bool) {
	i, ok := d.index[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return d.Journals[i], true
}

func (d *DrugMentions) journalOrCreate(name string) *JournalMentions {
	key := strings.ToLower(name)
	if i, ok := d.index[key]; ok {
		return d.Journals[i]
	}
	jm := &JournalMentions{Journal: name}
	d.index[key] = len(d.Journals)
	d.Journals = append(d.Journals, jm)
	return jm
}

// MentionGraph ist der fertige Graph: Medikamente in Vokabular-Reihenfolge,
// darunter Journals, darunter die Erwähnungen pro Quelltyp. Der Graph wird
// einmal gebaut und danach nur noch gelesen.
type MentionGraph struct {
	Drugs []*DrugMentions

	index map[string]int // lower-cased Drug -> Position
}

// Drug gibt den Teilbaum eines Medikaments zurück (case-insensitiv).
func (g *MentionGraph) Drug(name string) (*DrugMentions, bool) {
	i, ok := g.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return g.Drugs[i], true
}

// MarshalJSON serialisiert den Graph als verschachteltes Objekt
// drug -> journal -> source_type -> [{title, date}] und erhält dabei die
// deterministische Graph-Reihenfolge (kein map-Marshalling).
func (g *MentionGraph) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for di, drug := range g.Drugs {
		if di > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, drug.Drug); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for ji, journal := range drug.Journals {
			if ji > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, journal.Journal); err != nil {
				return nil, err
			}
			buf.WriteByte('{')
			for si, source := range SourceTypes {
				if si > 0 {
					buf.WriteByte(',')
				}
				if err := writeKey(&buf, string(source)); err != nil {
					return nil, err
				}
				entries := journal.Entries[si]
				if entries == nil {
					entries = []GraphEntry{}
				}
				b, err := json.Marshal(entries)
				if err != nil {
					return nil, err
				}
				buf.Write(b)
			}
			buf.WriteByte('}')
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON liest einen serialisierten Graph zurück und erhält dabei die
// Reihenfolge der Keys (Token-Stream statt map-Decoding).
func (g *MentionGraph) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	g.Drugs = nil
	g.index = make(map[string]int)

	for dec.More() {
		drugName, err := stringToken(dec)
		if err != nil {
			return err
		}
		drug := &DrugMentions{Drug: drugName, index: make(map[string]int)}
		if err := expectDelim(dec, '{'); err != nil {
			return err
		}
		for dec.More() {
			journalName, err := stringToken(dec)
			if err != nil {
				return err
			}
			journal := drug.journalOrCreate(journalName)
			if err := expectDelim(dec, '{'); err != nil {
				return err
			}
			for dec.More() {
				sourceName, err := stringToken(dec)
				if err != nil {
					return err
				}
				var entries []GraphEntry
				if err := dec.Decode(&entries); err != nil {
					return err
				}
				journal.Entries[SourceType(sourceName).index()] = entries
			}
			if err := expectDelim(dec, '}'); err != nil {
				return err
			}
		}
		if err := expectDelim(dec, '}'); err != nil {
			return err
		}
		g.index[strings.ToLower(drugName)] = len(g.Drugs)
		g.Drugs = append(g.Drugs, drug)
	}
	return expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	t, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := t.(json.Delim); !ok || d != want {
		return fmt.Errorf("unexpected token %v in graph JSON, want %q", t, want)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	t, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := t.(string)
	if !ok {
		return "", fmt.Errorf("unexpected token %v in graph JSON, want string key", t)
	}
	return s, nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	b, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(b)
	buf.WriteByte(':')
	return nil
}

// PartialGraph ist der Zwischenstand eines einzelnen Quelltyps:
// Medikament -> Journal -> geordnete Erwähnungen.
type PartialGraph struct {
	Source SourceType
	byDrug map[string]*DrugMentions
	order  []string // folded Drug-Namen in Erst-Auftreten-Reihenfolge
}

// Drug gibt den Teilbaum eines Medikaments im Teilgraph zurück.
func (p *PartialGraph) Drug(name string) (*DrugMentions, bool) {
	d, ok := p.byDrug[strings.ToLower(name)]
	return d, ok
}

// GraphBuilder faltet Match-Ergebnisse in Teilgraphen und merged diese zu
// einem Gesamtgraph. Alle Operationen sind pur: gleiche Eingabe ergibt
// byte-identisches Ergebnis.
type GraphBuilder struct {
	Logger *zap.Logger

	// KeepZeroMentionDrugs steuert, ob Medikamente ohne einzige Erwähnung im
	// Gesamtgraph erscheinen (mit leerer Journal-Liste). Default: true.
	KeepZeroMentionDrugs bool
}

// NewGraphBuilder erstellt einen neuen GraphBuilder.
func NewGraphBuilder(logger *zap.Logger, keepZeroMentionDrugs bool) *GraphBuilder {
	return &GraphBuilder{Logger: logger, KeepZeroMentionDrugs: keepZeroMentionDrugs}
}

// BuildPartial faltet die geordneten Treffer eines Quelltyps in einen
// Teilgraph. Journals erscheinen pro Medikament in Erst-Auftreten-Reihenfolge
// der Records; Journal-Gleichheit ist exakter Vergleich nach Lower-Casing.
func (b *GraphBuilder) BuildPartial(source SourceType, mentions []Mention) *PartialGraph {
	partial := &PartialGraph{
		Source: source,
		byDrug: make(map[string]*DrugMentions),
	}
	for _, mention := range mentions {
		key := strings.ToLower(mention.Drug)
		drug, ok := partial.byDrug[key]
		if !ok {
			drug = &DrugMentions{Drug: mention.Drug, index: make(map[string]int)}
			partial.byDrug[key] = drug
			partial.order = append(partial.order, key)
		}
		journal := drug.journalOrCreate(mention.Record.Journal)
		entry := GraphEntry{Title: mention.Record.Title, Date: mention.Record.Date}
		journal.Entries[source.index()] = append(journal.Entries[source.index()], entry)
	}
	b.Logger.Debug("Teilgraph gebaut",
		zap.String("source", string(source)),
		zap.Int("mentions", len(mentions)),
		zap.Int("drugs", len(partial.order)))
	return partial
}

// Merge führt den Publikations- und den Studien-Teilgraph zu einem
// Gesamtgraph zusammen. Merge-Key ist (Medikament, Journal); für jeden Key
// existieren danach beide Quell-Folgen, leere eingeschlossen. Medikamente
// stehen in Vokabular-Reihenfolge, Journals in Erst-Auftreten-Reihenfolge
// über beide Teilgraphen (Publikationen vor Studien).
func (b *GraphBuilder) Merge(vocab *Vocabulary, publications, trials *PartialGraph) *MentionGraph {
	graph := &MentionGraph{index: make(map[string]int, vocab.Len())}

	for _, name := range vocab.Names() {
		merged := &DrugMentions{Drug: name, index: make(map[string]int)}
		for _, partial := range []*PartialGraph{publications, trials} {
			if partial == nil {
				continue
			}
			src, ok := partial.Drug(name)
			if !ok {
				continue
			}
			for _, journal := range src.Journals {
				target := merged.journalOrCreate(journal.Journal)
				idx := partial.Source.index()
				target.Entries[idx] = append(target.Entries[idx], journal.Entries[idx]...)
			}
		}
		if len(merged.Journals) == 0 && !b.KeepZeroMentionDrugs {
			continue
		}
		graph.index[strings.ToLower(name)] = len(graph.Drugs)
		graph.Drugs = append(graph.Drugs, merged)
	}

	b.Logger.Info("Mention-Graph gemerged",
		zap.Int("drugs", len(graph.Drugs)),
		zap.Bool("keep_zero_mention_drugs", b.KeepZeroMentionDrugs))
	return graph
}
