package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewVocabularyDeduplicatesCaseInsensitive(t *testing.T) {
	vocab := NewVocabulary("Ethanol", "ETHANOL", " Atropine ", "", "ethanol")

	assert.Equal(t, 2, vocab.Len())
	assert.Equal(t, []string{"Ethanol", "Atropine"}, vocab.Names())
}

func TestVocabularyLookup(t *testing.T) {
	vocab := NewVocabulary("Betamethasone")

	assert.True(t, vocab.Contains("betamethasone"))
	assert.True(t, vocab.Contains(" BETAMETHASONE "))
	assert.False(t, vocab.Contains("Betamethasonex"))

	canonical, ok := vocab.Canonical("BETAMETHASONE")
	assert.True(t, ok)
	assert.Equal(t, "Betamethasone", canonical)

	_, ok = vocab.Canonical("Unknown")
	assert.False(t, ok)
}

func TestVocabularyNamesReturnsCopy(t *testing.T) {
	vocab := NewVocabulary("Ethanol", "Atropine")

	names := vocab.Names()
	names[0] = "Mutated"
	assert.Equal(t, []string{"Ethanol", "Atropine"}, vocab.Names())
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Ethanol", capitalize("ETHANOL"))
	assert.Equal(t, "Ethanol", capitalize("ethanol"))
	assert.Equal(t, "Betamethasone", capitalize("betaMethasone"))
	assert.Equal(t, "", capitalize(""))
}
