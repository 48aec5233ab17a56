package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVSourceFetch(t *testing.T) {
	path := writeTempFile(t, "pubmed.csv", "id,title,date,journal\n"+
		"1,A 44-year-old man with erythema,01/01/2019,Journal of emergency nursing\n"+
		"2,An evaluation of benadryl,01/01/2019,Journal of emergency nursing\n")

	batch, err := NewCSVSource(path, zap.NewNop()).Fetch()
	require.NoError(t, err)
	assert.Equal(t, "pubmed.csv", batch.Source)
	require.Len(t, batch.Records, 2)
	assert.Equal(t, Record{
		"id":      "1",
		"title":   "A 44-year-old man with erythema",
		"date":    "01/01/2019",
		"journal": "Journal of emergency nursing",
	}, batch.Records[0])
}

func TestCSVSourceToleratesShortRows(t *testing.T) {
	path := writeTempFile(t, "drugs.csv", "atccode,drug\nA04AD,DIPHENHYDRAMINE\nR01AD\n")

	batch, err := NewCSVSource(path, zap.NewNop()).Fetch()
	require.NoError(t, err)
	require.Len(t, batch.Records, 2)
	assert.Equal(t, Record{"atccode": "A04AD", "drug": "DIPHENHYDRAMINE"}, batch.Records[0])
	// Fehlende Zellen bleiben schlicht weg; das Schema prüft der Loader.
	assert.Equal(t, Record{"atccode": "R01AD"}, batch.Records[1])
}

func TestCSVSourceQuotedFields(t *testing.T) {
	path := writeTempFile(t, "pubmed.csv", "id,title,date,journal\n"+
		`5,"Comparison of pressure, gel and ice",01/03/2020,"Hôpitaux Universitaires"`+"\n")

	batch, err := NewCSVSource(path, zap.NewNop()).Fetch()
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)
	assert.Equal(t, "Comparison of pressure, gel and ice", batch.Records[0]["title"])
	assert.Equal(t, "Hôpitaux Universitaires", batch.Records[0]["journal"])
}

func TestCSVSourceEmptyFile(t *testing.T) {
	path := writeTempFile(t, "empty.csv", "")

	batch, err := NewCSVSource(path, zap.NewNop()).Fetch()
	require.NoError(t, err)
	assert.Empty(t, batch.Records)
}

func TestCSVSourceMissingFile(t *testing.T) {
	_, err := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv"), zap.NewNop()).Fetch()
	assert.Error(t, err)
}
