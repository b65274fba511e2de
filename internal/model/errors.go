package model

import "github.com/rotisserie/eris"

// Error kinds surfaced by the editor, catalog, and resolver. Callers test
// with errors.Is; call sites wrap these with context via eris.
var (
	// ErrValidation marks bad input to an edit operation: unknown part on an
	// add, empty description, negative factor.
	ErrValidation = eris.New("validation failed")

	// ErrNotFound marks a referenced id, code, or part that does not exist.
	ErrNotFound = eris.New("not found")

	// ErrDuplicateName marks a part name or catalog code collision.
	ErrDuplicateName = eris.New("duplicate name")

	// ErrStructure marks an import sheet with no discoverable header row.
	ErrStructure = eris.New("sheet structure not recognized")
)
