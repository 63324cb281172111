package sentinel

import "errors"

// Sentinel errors describe facts about stored resources. Stores return them
// (optionally wrapped) and services translate them into domainerrors codes.
//
//   - ErrNotFound: no record under the key
//   - ErrAlreadyUsed: a unique attribute (e.g. email) is taken
//   - ErrConflict: a concurrent writer changed the record first
//   - ErrUnavailable: the backing store could not be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
