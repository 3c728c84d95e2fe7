package geomentions

import "fmt"

// DataLoadError is returned when a gazetteer resource is missing, cannot be
// decompressed, or does not match the expected record shape. It is only ever
// produced while constructing a GeoMentions instance.
type DataLoadError struct {
	Source string // file path or embedded resource name
	Err    error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("loading gazetteer %s: %v", e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}
