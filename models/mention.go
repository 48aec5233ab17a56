package models

import (
	"time"
)

// Mention ist ein bereinigter Publikations- oder Studien-Datensatz nach dem
// Ladevorgang. Titel plus Quelltyp sind eindeutig; erneute Pipeline-Läufe
// upserten auf diesen Schlüssel.
type Mention struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	RecordID   string    `json:"record_id,omitempty"`
	Title      string    `json:"title" gorm:"index:idx_mentions_title_source,unique;size:1024;not null"`
	SourceType string    `json:"source_type" gorm:"index:idx_mentions_title_source,unique;size:32;not null"`
	Date       time.Time `json:"date"`
	Journal    string    `json:"journal" gorm:"index"`
}

// TableName gibt explizit den Tabellennamen an.
func (Mention) TableName() string {
	return "mentions"
}
