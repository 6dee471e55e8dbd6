package model

import "errors"

// Error kinds shared by every layer; wrap them with fmt.Errorf("...: %w")
// and match with errors.Is at the request boundary.
var (
	ErrValidation       = errors.New("missing or invalid input")
	ErrNotFound         = errors.New("participant not found")
	ErrAlreadyCheckedIn = errors.New("participant already checked in")
	ErrAuth             = errors.New("not authenticated")
	ErrImport           = errors.New("can't import roster")
	ErrExport           = errors.New("can't export attendance")
)
