// Package sources enthält die Daten-Quellen, aus denen Rohdaten-Batches
// geladen werden (CSV- und JSON-Dateien).
package sources

// Record ist ein einzelner roher Datensatz mit benannten Feldern.
// Die Feldnamen sind noch NICHT auf das kanonische Schema abgebildet.
type Record map[string]string

// Batch ist eine geordnete Folge von Records aus einer Quelle.
type Batch struct {
	// Source identifiziert die Herkunft, z.B. "pubmed.csv".
	Source  string
	Records []Record
}

// Source ist das Interface, das jede Daten-Quelle implementieren muss.
type Source interface {
	// Fetch lädt alle Records der Quelle in Dateireihenfolge.
	Fetch() (Batch, error)

	// Name gibt den eindeutigen Namen der Quelle zurück (z.B. "pubmed.csv").
	Name() string
}
