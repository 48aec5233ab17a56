package services

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Matcher findet Vokabular-Namen als ganze Wörter in Titeln. Ganze Wörter
// heißt: links und rechts des Treffers steht kein Unicode-Wortzeichen
// (Buchstabe, Ziffer oder Unterstrich). "Iodine" matcht also nicht in
// "Iodinex". Der Match ist case-insensitiv.
//
// Go-Regexp-\b arbeitet nur auf ASCII-Wortgrenzen, deshalb wird der Scan
// hier von Hand gemacht. Die Schleife über Vokabular x Records ist für die
// gegebenen Datenmengen ausreichend; ein Multi-Pattern-Matcher ließe sich
// hinter derselben Signatur nachrüsten.
type Matcher struct {
	vocab  *Vocabulary
	folded []string
}

// NewMatcher erstellt einen Matcher für das gegebene Vokabular. Die
// gefalteten Suchmuster werden einmalig vorberechnet.
func NewMatcher(vocab *Vocabulary) *Matcher {
	names := vocab.Names()
	folded := make([]string, len(names))
	for i, name := range names {
		folded[i] = strings.ToLower(name)
	}
	return &Matcher{vocab: vocab, folded: folded}
}

// Mention ist ein einzelner Treffer: ein Medikament kommt als ganzes Wort im
// Titel eines Records vor.
type Mention struct {
	Drug   string
	Record MentionRecord
}

// FindDrugsInTitle gibt alle Vokabular-Namen zurück, die als ganzes Wort im
// Titel vorkommen, in Vokabular-Reihenfolge.
func (m *Matcher) FindDrugsInTitle(title string) []string {
	titleLower := strings.ToLower(title)
	var found []string
	for i, pattern := range m.folded {
		if containsWord(titleLower, pattern) {
			found = append(found, m.vocab.names[i])
		}
	}
	return found
}

// Match liefert alle Treffer für eine Record-Folge. Die Reihenfolge ist
// deterministisch: Records in Eingabe-Reihenfolge, pro Record die Treffer in
// Vokabular-Reihenfolge. Map-Iterationsreihenfolge spielt nie eine Rolle.
func (m *Matcher) Match(records []MentionRecord) []Mention {
	var mentions []Mention
	for _, rec := range records {
		for _, drug := range m.FindDrugsInTitle(rec.Title) {
			mentions = append(mentions, Mention{Drug: drug, Record: rec})
		}
	}
	return mentions
}

// containsWord prüft, ob needle als ganzes Wort in haystack vorkommt.
// Beide Strings müssen bereits case-gefaltet sein.
func containsWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	for offset := 0; ; {
		i := strings.Index(haystack[offset:], needle)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(needle)
		if !wordRuneBefore(haystack, start) && !wordRuneAt(haystack, end) {
			return true
		}
		offset = start + 1
	}
}

// wordRuneBefore prüft, ob direkt vor Position i ein Wortzeichen steht.
func wordRuneBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return isWordRune(r)
}

// wordRuneAt prüft, ob an Position i ein Wortzeichen beginnt.
func wordRuneAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
