package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/hrm/internal/auth"
	"github.com/gosuda/hrm/internal/domain"
)

// apiError maps service errors onto problem responses. Anything that is not
// a known domain error is logged and answered with a generic 500.
func apiError(ctx context.Context, err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		details := make([]error, len(verr.Fields))
		for i, f := range verr.Fields {
			details[i] = &huma.ErrorDetail{Location: "body." + f.Field, Message: f.Message}
		}
		return huma.Error422UnprocessableEntity("validation failed", details...)
	case errors.Is(err, auth.ErrAccountLocked):
		return huma.NewError(http.StatusLocked, "account temporarily locked, try again later")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return huma.Error401Unauthorized("invalid email or password")
	case errors.Is(err, domain.ErrUnauthorized):
		return huma.Error401Unauthorized("authentication required")
	case errors.Is(err, auth.ErrDeactivated):
		return huma.Error403Forbidden("account is deactivated")
	case errors.Is(err, domain.ErrForbidden):
		return huma.Error403Forbidden("insufficient permissions")
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(publicDetail(err, domain.ErrNotFound, "not found"))
	case errors.Is(err, domain.ErrInvalidTransition):
		return huma.Error409Conflict(publicDetail(err, domain.ErrInvalidTransition, "invalid status transition"))
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict(publicDetail(err, domain.ErrConflict, "conflict with current state"))
	default:
		log.Ctx(ctx).Error().Err(err).Msg("api: internal error")
		return huma.Error500InternalServerError("internal server error")
	}
}

// publicDetail turns a wrapped error chain into a client message: the
// sentinel suffix and leading "pkg.Func:" frames are dropped.
//
//	"hr.CompanyService.Create: company code already exists: domain: conflict"
//	-> "company code already exists"
func publicDetail(err, sentinel error, fallback string) string {
	msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
	if msg == sentinel.Error() {
		return fallback
	}
	parts := strings.Split(msg, ": ")
	for len(parts) > 0 && isFrame(parts[0]) {
		parts = parts[1:]
	}
	if out := strings.Join(parts, ": "); out != "" {
		return out
	}
	return fallback
}

func isFrame(s string) bool {
	return strings.Contains(s, ".") && !strings.ContainsAny(s, " %")
}
