package models

import (
	"time"
)

// GraphSnapshot speichert das Ergebnis eines Pipeline-Laufs: den kompletten
// Mention-Graph als JSON plus Kennzahlen. Snapshots sind append-only; die
// Query-Endpoints lesen immer den jüngsten.
type GraphSnapshot struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	// Kennzahlen des Laufs
	DrugCount    int `json:"drug_count"`
	JournalCount int `json:"journal_count"`
	MentionCount int `json:"mention_count"`
	DroppedRows  int `json:"dropped_rows"`

	// Der serialisierte Graph (drug -> journal -> source_type -> mentions)
	Payload []byte `json:"payload" gorm:"type:jsonb"`

	// Export-Ziel, falls der Snapshot nach S3 hochgeladen wurde
	S3Link string `json:"s3_link,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (GraphSnapshot) TableName() string {
	return "graph_snapshots"
}
