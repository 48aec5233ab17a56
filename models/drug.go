package models

// Drug repräsentiert einen Eintrag des Medikamenten-Vokabulars.
type Drug struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null"` // z.B. "Tetracycline"
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Drug) TableName() string {
	return "drugs"
}
