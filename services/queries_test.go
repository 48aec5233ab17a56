package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func buildTestGraph(t *testing.T) *MentionGraph {
	t.Helper()
	builder := NewGraphBuilder(zap.NewNop(), true)
	vocab := NewVocabulary("Tetracycline", "Ethanol", "Atropine", "Betamethasone")
	jan1 := Date{2020, time.January, 1}

	pubs := builder.BuildPartial(SourcePublication, []Mention{
		mentionAt("Tetracycline", "Tetracycline in sepsis", "Journal one", jan1, SourcePublication),
		mentionAt("Ethanol", "Ethanol exposure", "Journal one", jan1, SourcePublication),
		mentionAt("Atropine", "Atropine overdose", "Journal two", jan1, SourcePublication),
	})
	trials := builder.BuildPartial(SourceClinicalTrial, []Mention{
		mentionAt("Betamethasone", "Betamethasone trial", "Journal three", jan1, SourceClinicalTrial),
		mentionAt("Tetracycline", "Tetracycline trial", "Journal three", jan1, SourceClinicalTrial),
	})
	return builder.Merge(vocab, pubs, trials)
}

func TestJournalWithMostDistinctDrugs(t *testing.T) {
	graph := buildTestGraph(t)

	journal, count := JournalWithMostDistinctDrugs(graph)
	// "Journal one" und "Journal three" erwähnen je zwei Medikamente; bei
	// Gleichstand gewinnt der lexikographisch kleinste Name.
	assert.Equal(t, "Journal one", journal)
	assert.Equal(t, 2, count)
}

func TestJournalWithMostDistinctDrugsCountsDrugsOnce(t *testing.T) {
	builder := NewGraphBuilder(zap.NewNop(), true)
	vocab := NewVocabulary("Tetracycline", "Ethanol")
	jan1 := Date{2020, time.January, 1}
	jan2 := Date{2020, time.January, 2}

	// Tetracycline erscheint dreimal in Journal one (beide Quelltypen),
	// zählt aber nur einmal. Journal two hat zwei verschiedene Medikamente.
	pubs := builder.BuildPartial(SourcePublication, []Mention{
		mentionAt("Tetracycline", "First paper", "Journal one", jan1, SourcePublication),
		mentionAt("Tetracycline", "Second paper", "Journal one", jan2, SourcePublication),
		mentionAt("Tetracycline", "Third paper", "Journal two", jan1, SourcePublication),
		mentionAt("Ethanol", "Ethanol paper", "Journal two", jan1, SourcePublication),
	})
	trials := builder.BuildPartial(SourceClinicalTrial, []Mention{
		mentionAt("Tetracycline", "A trial", "Journal one", jan2, SourceClinicalTrial),
	})
	graph := builder.Merge(vocab, pubs, trials)

	journal, count := JournalWithMostDistinctDrugs(graph)
	assert.Equal(t, "Journal two", journal)
	assert.Equal(t, 2, count)
}

func TestJournalWithMostDistinctDrugsEmptyGraph(t *testing.T) {
	builder := NewGraphBuilder(zap.NewNop(), true)
	graph := builder.Merge(NewVocabulary(), nil, nil)

	journal, count := JournalWithMostDistinctDrugs(graph)
	assert.Equal(t, "", journal)
	assert.Equal(t, 0, count)
}

func TestRelatedDrugsRestrictedToSourceType(t *testing.T) {
	graph := buildTestGraph(t)

	// Über Publikationen teilt Tetracycline das "Journal one" mit Ethanol;
	// Atropine sitzt in einem anderen Journal.
	related, err := RelatedDrugs(graph, "Tetracycline", SourcePublication)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ethanol"}, related)

	// Über Studien teilt Tetracycline das "Journal three" mit Betamethasone.
	related, err = RelatedDrugs(graph, "Tetracycline", SourceClinicalTrial)
	require.NoError(t, err)
	assert.Equal(t, []string{"Betamethasone"}, related)
}

func TestRelatedDrugsExcludesTarget(t *testing.T) {
	graph := buildTestGraph(t)

	related, err := RelatedDrugs(graph, "Ethanol", SourcePublication)
	require.NoError(t, err)
	assert.NotContains(t, related, "Ethanol")
	assert.Equal(t, []string{"Tetracycline"}, related)
}

func TestRelatedDrugsCaseInsensitiveLookup(t *testing.T) {
	graph := buildTestGraph(t)

	related, err := RelatedDrugs(graph, "tetracycline", SourcePublication)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ethanol"}, related)
}

func TestRelatedDrugsUnknownDrug(t *testing.T) {
	graph := buildTestGraph(t)

	_, err := RelatedDrugs(graph, "Unobtainium", SourcePublication)
	var unknownErr *UnknownDrugError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "Unobtainium", unknownErr.Drug)
}

func TestRelatedDrugsNoSharedJournals(t *testing.T) {
	graph := buildTestGraph(t)

	// Betamethasone taucht nur in Studien auf; über Publikationen gibt es
	// keine geteilten Journals.
	related, err := RelatedDrugs(graph, "Betamethasone", SourcePublication)
	require.NoError(t, err)
	assert.Empty(t, related)
}
