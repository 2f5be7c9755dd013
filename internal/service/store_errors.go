package service

import (
	"errors"

	"github.com/noah-isme/proasset-api/internal/permission"
	"github.com/noah-isme/proasset-api/internal/store"
	appErrors "github.com/noah-isme/proasset-api/pkg/errors"
)

// mapStoreError translates store sentinels into API errors. notFound overrides the 404 message.
func mapStoreError(err error, notFound string) error {
	if err == nil {
		return nil
	}
	var perr *store.PersistError
	switch {
	case errors.As(err, &perr):
		return appErrors.Internal(err, "failed to persist changes")
	case errors.Is(err, store.ErrNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	case errors.Is(err, store.ErrNoActiveSession):
		return appErrors.Clone(appErrors.ErrNotFound, "no active audit session")
	case errors.Is(err, store.ErrWrongState),
		errors.Is(err, store.ErrLocationHasChild),
		errors.Is(err, store.ErrLocationInUse),
		errors.Is(err, store.ErrDuplicateUsername):
		return appErrors.Clone(appErrors.ErrConflict, err.Error())
	case errors.Is(err, store.ErrParentNotFound),
		errors.Is(err, store.ErrAuditorRequired),
		errors.Is(err, permission.ErrUnknownRole),
		errors.Is(err, permission.ErrUnknownFeature):
		return appErrors.Validation(err, err.Error())
	default:
		return appErrors.Internal(err, appErrors.ErrInternal.Message)
	}
}
