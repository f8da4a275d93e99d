package api

import "fmt"

// NetworkError signals that a call never produced a usable response. Callers
// of SearchMaterials treat it as "no results".
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// DocumentAnalysisError carries the human-readable message a failed analysis
// must surface to the user.
type DocumentAnalysisError struct {
	Message string
}

func (e *DocumentAnalysisError) Error() string {
	return e.Message
}
