package extract

import "errors"

// ErrInvalidDocument indicates a structured document that cannot be read.
var ErrInvalidDocument = errors.New("invalid document")
