package sources

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// CSVSource liest eine CSV-Datei mit Header-Zeile als Record-Batch.
type CSVSource struct {
	Path   string
	Logger *zap.Logger
}

// NewCSVSource erstellt eine neue CSV-Quelle für den gegebenen Pfad.
func NewCSVSource(path string, logger *zap.Logger) *CSVSource {
	return &CSVSource{Path: path, Logger: logger}
}

// Name gibt den Dateinamen der Quelle zurück.
func (s *CSVSource) Name() string {
	return filepath.Base(s.Path)
}

// Fetch liest alle Zeilen in Dateireihenfolge. Die erste Zeile liefert die
// Feldnamen; überzählige Zellen einer Zeile werden verworfen.
func (s *CSVSource) Fetch() (Batch, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return Batch{}, fmt.Errorf("open csv source: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // Zeilen mit abweichender Spaltenzahl tolerieren

	rows, err := reader.ReadAll()
	if err != nil {
		return Batch{}, fmt.Errorf("read csv source %s: %w", s.Name(), err)
	}
	if len(rows) == 0 {
		s.Logger.Warn("CSV-Quelle ist leer", zap.String("source", s.Name()))
		return Batch{Source: s.Name()}, nil
	}

	header := rows[0]
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(Record, len(header))
		for i, field := range header {
			if i < len(row) {
				rec[field] = row[i]
			}
		}
		records = append(records, rec)
	}

	s.Logger.Debug("CSV-Quelle geladen",
		zap.String("source", s.Name()),
		zap.Int("records", len(records)))
	return Batch{Source: s.Name(), Records: records}, nil
}
