package domain

import (
	"errors"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
)

// StorageError maps storage sentinels to domain errors. subject names the
// record in the internal message. Other errors pass through unchanged.
func StorageError(err error, subject string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.Wrap(apperrors.CodeNotFound, subject+" not found", err)
	case errors.Is(err, storage.ErrAlreadyExists):
		return apperrors.Wrap(apperrors.CodeAlreadyExists, subject+" already exists", err)
	case errors.Is(err, storage.ErrInvalidPageToken):
		return apperrors.Wrap(apperrors.CodeInvalidInput, "invalid page token", err)
	default:
		return err
	}
}
