package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestJSONSourceFetch(t *testing.T) {
	path := writeTempFile(t, "pubmed.json", `[
		{"id": 9, "title": "Gold nanoparticles synthesis", "date": "01/01/2020", "journal": "Journal of photochemistry"},
		{"id": "10", "title": "Clinical implications of umbilical artery", "date": "01/01/2020", "journal": "The journal of maternal-fetal medicine"}
	]`)

	batch, err := NewJSONSource(path, zap.NewNop()).Fetch()
	require.NoError(t, err)
	assert.Equal(t, "pubmed.json", batch.Source)
	require.Len(t, batch.Records, 2)
	// Numerische IDs kommen als String an, ohne Float-Rundung.
	assert.Equal(t, "9", batch.Records[0]["id"])
	assert.Equal(t, "10", batch.Records[1]["id"])
	assert.Equal(t, "Gold nanoparticles synthesis", batch.Records[0]["title"])
}

func TestJSONSourceToleratesTrailingComma(t *testing.T) {
	path := writeTempFile(t, "pubmed.json", `[
		{"id": "1", "title": "First", "date": "01/01/2020", "journal": "A"},
		{"id": "2", "title": "Second", "date": "01/01/2020", "journal": "B"},
	]`)

	batch, err := NewJSONSource(path, zap.NewNop()).Fetch()
	require.NoError(t, err)
	require.Len(t, batch.Records, 2)
	assert.Equal(t, "Second", batch.Records[1]["title"])
}

func TestJSONSourceCoercesScalars(t *testing.T) {
	path := writeTempFile(t, "mixed.json", `[
		{"id": 12.5, "title": "Mixed types", "flag": true, "missing": null}
	]`)

	batch, err := NewJSONSource(path, zap.NewNop()).Fetch()
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)
	assert.Equal(t, "12.5", batch.Records[0]["id"])
	assert.Equal(t, "true", batch.Records[0]["flag"])
	assert.Equal(t, "", batch.Records[0]["missing"])
}

func TestJSONSourceInvalidPayload(t *testing.T) {
	path := writeTempFile(t, "broken.json", `{"not": "an array"}`)

	_, err := NewJSONSource(path, zap.NewNop()).Fetch()
	assert.Error(t, err)
}
