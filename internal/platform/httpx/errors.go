package httpx

import (
	"net/http"

	"github.com/velora-salon/velora-salon/internal/shared"
)

// RespondError maps kinded domain errors to HTTP responses. Unknown errors
// collapse to a bare 500 without leaking internals.
func RespondError(w http.ResponseWriter, err error) {
	kind := shared.KindOf(err)
	switch kind {
	case shared.KindValidation, shared.KindInvalidServiceDuration,
		shared.KindMissingBranchSchedule, shared.KindServiceNotOffered:
		Problem(w, http.StatusBadRequest, "Validation Failed", shared.UserSafeMessage(err), string(kind))
	case shared.KindNotFound:
		Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(err), string(kind))
	case shared.KindForbidden:
		Problem(w, http.StatusForbidden, "Forbidden", shared.UserSafeMessage(err), string(kind))
	case shared.KindConflict, shared.KindOverlapConflict, shared.KindAlreadyCompleted,
		shared.KindAlreadyDebited, shared.KindCommissionExists, shared.KindInvalidTransition:
		Problem(w, http.StatusConflict, "Conflict", shared.UserSafeMessage(err), string(kind))
	case shared.KindPackageExpired, shared.KindPackageExhausted, shared.KindInsufficientSessions:
		Problem(w, http.StatusUnprocessableEntity, "Rejected", shared.UserSafeMessage(err), string(kind))
	case shared.KindStoreTimeout:
		Problem(w, http.StatusServiceUnavailable, "Store Timeout", shared.UserSafeMessage(err), string(kind))
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "", "")
	}
}
