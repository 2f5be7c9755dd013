package store

import (
	"errors"
	"fmt"

	"github.com/noah-isme/proasset-api/internal/opname"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrWrongState        = errors.New("asset is not in the required deletion state")
	ErrParentNotFound    = errors.New("parent location not found")
	ErrLocationHasChild  = errors.New("location has child locations")
	ErrLocationInUse     = errors.New("location is referenced by assets")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrNoActiveSession   = opname.ErrNoActiveSession
	ErrAuditorRequired   = opname.ErrAuditorRequired
)

// PersistError reports a failed repository write. The in-memory change it belongs to was kept.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
