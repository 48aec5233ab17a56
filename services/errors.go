package services

import (
	"fmt"
	"strings"
)

// DateFormatError wird zurückgegeben, wenn ein Datums-String keinem der
// bekannten Formate entspricht. Caller dürfen NICHT stillschweigend ein
// Sentinel-Datum einsetzen.
type DateFormatError struct {
	Value   string
	Layouts []string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("date format for %q not recognized (tried: %s)", e.Value, strings.Join(e.Layouts, ", "))
}

// SchemaError wird zurückgegeben, wenn nach dem Synonym-Mapping ein
// Pflichtfeld in einem Record fehlt.
type SchemaError struct {
	Source string
	Field  string
	Row    int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("source %s: required field %q missing in row %d", e.Source, e.Field, e.Row)
}

// UnknownDrugError wird von Queries zurückgegeben, wenn das Ziel-Medikament
// nicht im Vokabular enthalten ist.
type UnknownDrugError struct {
	Drug string
}

func (e *UnknownDrugError) Error() string {
	return fmt.Sprintf("drug %q not in vocabulary", e.Drug)
}

// ValidationError beschreibt einen allgemein fehlerhaften Record, z.B. einen
// leeren Titel.
type ValidationError struct {
	Source string
	Row    int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("source %s: invalid row %d: %s", e.Source, e.Row, e.Reason)
}
