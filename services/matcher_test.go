package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindDrugsInTitleWholeWordsOnly(t *testing.T) {
	matcher := NewMatcher(NewVocabulary("Iodine"))

	assert.Equal(t, []string{"Iodine"}, matcher.FindDrugsInTitle("Iodine deficiency in pregnancy"))
	assert.Equal(t, []string{"Iodine"}, matcher.FindDrugsInTitle("Adverse effects of iodine-based contrast"))
	assert.Equal(t, []string{"Iodine"}, matcher.FindDrugsInTitle("A study (iodine) in brackets"))
	assert.Empty(t, matcher.FindDrugsInTitle("Trials of Iodinex in adults"))
	assert.Empty(t, matcher.FindDrugsInTitle("Pseudoiodine analogues"))
	assert.Empty(t, matcher.FindDrugsInTitle("iodine_based formulations"))
}

func TestFindDrugsInTitleCaseInsensitive(t *testing.T) {
	matcher := NewMatcher(NewVocabulary("Ethanol"))

	assert.Equal(t, []string{"Ethanol"}, matcher.FindDrugsInTitle("ETHANOL exposure in rodents"))
	assert.Equal(t, []string{"Ethanol"}, matcher.FindDrugsInTitle("Effects of ethanol on memory"))
}

func TestFindDrugsInTitleVocabularyOrder(t *testing.T) {
	matcher := NewMatcher(NewVocabulary("Betamethasone", "Atropine"))

	found := matcher.FindDrugsInTitle("Atropine versus Betamethasone in ICU patients")
	assert.Equal(t, []string{"Betamethasone", "Atropine"}, found)
}

func TestFindDrugsInTitleAtStringEdges(t *testing.T) {
	matcher := NewMatcher(NewVocabulary("Atropine"))

	assert.Equal(t, []string{"Atropine"}, matcher.FindDrugsInTitle("Atropine"))
	assert.Equal(t, []string{"Atropine"}, matcher.FindDrugsInTitle("Rescue with atropine"))
}

func TestFindDrugsInTitleRetriesLaterOccurrence(t *testing.T) {
	// Das erste Vorkommen klebt an einem Wortzeichen, das zweite ist frei.
	matcher := NewMatcher(NewVocabulary("Ethanol"))

	assert.Equal(t, []string{"Ethanol"}, matcher.FindDrugsInTitle("Bioethanol and ethanol compared"))
}

func TestFindDrugsInTitleUnicodeBoundaries(t *testing.T) {
	matcher := NewMatcher(NewVocabulary("Ethanol"))

	// Ein angrenzender Nicht-ASCII-Buchstabe ist ein Wortzeichen, kein Trenner.
	assert.Empty(t, matcher.FindDrugsInTitle("Ethanolé levels"))
	assert.Equal(t, []string{"Ethanol"}, matcher.FindDrugsInTitle("Étude: ethanol après chirurgie"))
}

func TestMatchIsDeterministic(t *testing.T) {
	matcher := NewMatcher(NewVocabulary("Tetracycline", "Ethanol"))
	records := []MentionRecord{
		{ID: "1", Title: "Ethanol and Tetracycline interaction", Date: Date{2020, time.January, 1}, Journal: "A", Source: SourcePublication},
		{ID: "2", Title: "Tetracycline alone", Date: Date{2020, time.January, 2}, Journal: "B", Source: SourcePublication},
		{ID: "3", Title: "Nothing of interest", Date: Date{2020, time.January, 3}, Journal: "C", Source: SourcePublication},
	}

	mentions := matcher.Match(records)
	require.Len(t, mentions, 3)
	// Record-Reihenfolge außen, Vokabular-Reihenfolge innen.
	assert.Equal(t, "Tetracycline", mentions[0].Drug)
	assert.Equal(t, "1", mentions[0].Record.ID)
	assert.Equal(t, "Ethanol", mentions[1].Drug)
	assert.Equal(t, "1", mentions[1].Record.ID)
	assert.Equal(t, "Tetracycline", mentions[2].Drug)
	assert.Equal(t, "2", mentions[2].Record.ID)
}

func TestMatchEmptyInputs(t *testing.T) {
	matcher := NewMatcher(NewVocabulary())
	assert.Empty(t, matcher.Match([]MentionRecord{{Title: "Anything"}}))

	matcher = NewMatcher(NewVocabulary("Ethanol"))
	assert.Empty(t, matcher.Match(nil))
}
