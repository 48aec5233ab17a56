package sources

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
)

// JSONSource liest ein JSON-Array von Objekten als Record-Batch.
// Zahlen-Werte (z.B. numerische IDs) werden als String übernommen, damit
// alle Quellen dasselbe String-Schema liefern.
type JSONSource struct {
	Path   string
	Logger *zap.Logger
}

// NewJSONSource erstellt eine neue JSON-Quelle für den gegebenen Pfad.
func NewJSONSource(path string, logger *zap.Logger) *JSONSource {
	return &JSONSource{Path: path, Logger: logger}
}

// Name gibt den Dateinamen der Quelle zurück.
func (s *JSONSource) Name() string {
	return filepath.Base(s.Path)
}

// Fetch liest alle Objekte in Dateireihenfolge.
func (s *JSONSource) Fetch() (Batch, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Batch{}, fmt.Errorf("open json source: %w", err)
	}

	var raw []map[string]any
	dec := json.NewDecoder(newTrailingCommaReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return Batch{}, fmt.Errorf("decode json source %s: %w", s.Name(), err)
	}

	records := make([]Record, 0, len(raw))
	for _, obj := range raw {
		rec := make(Record, len(obj))
		for field, val := range obj {
			rec[field] = coerceString(val)
		}
		records = append(records, rec)
	}

	s.Logger.Debug("JSON-Quelle geladen",
		zap.String("source", s.Name()),
		zap.Int("records", len(records)))
	return Batch{Source: s.Name(), Records: records}, nil
}

// coerceString bildet JSON-Skalare auf Strings ab.
func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
