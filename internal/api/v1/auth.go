package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/hrm/internal/domain"
	"github.com/gosuda/hrm/internal/server/middleware"
)

type LoginInput struct {
	Body struct {
		Email    string `json:"email" minLength:"3" maxLength:"255" doc:"User email"`
		Password string `json:"password" minLength:"1" maxLength:"128" doc:"Password"` //nolint:gosec // G117: login credential DTO
	}
}

type LoginOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		User      *domain.User `json:"user"`
		Token     string       `json:"token" doc:"Session token for bearer clients"` //nolint:gosec // G117: auth response DTO
		ExpiresAt time.Time    `json:"expires_at"`
	}
}

type LogoutOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
}

type MeOutput struct {
	Body struct {
		ID          int64       `json:"id"`
		Email       string      `json:"email"`
		Name        string      `json:"name"`
		Role        domain.Role `json:"role"`
		CompanyID   *int64      `json:"company_id"`
		CompanyName string      `json:"company_name,omitempty"`
	}
}

type ChangePasswordInput struct {
	Body struct {
		CurrentPassword string `json:"current_password" minLength:"1" maxLength:"128"`                     //nolint:gosec // G117: credential DTO
		NewPassword     string `json:"new_password" minLength:"8" maxLength:"128" doc:"At least 8 chars"` //nolint:gosec // G117: credential DTO
	}
}

// RegisterAuthRoutes wires login, logout, the current-principal endpoint and
// password changes. The session cookie lives as long as the session TTL.
func RegisterAuthRoutes(api huma.API, authSvc AuthService, companies CompanyService, cookie middleware.Cookie, sessionTTL time.Duration) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Login with email and password",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
		res, err := authSvc.Login(ctx, input.Body.Email, input.Body.Password)
		if err != nil {
			return nil, apiError(ctx, err)
		}

		out := &LoginOutput{SetCookie: *cookie.Issue(res.Session.Token, int(sessionTTL.Seconds()))}
		out.Body.User = res.User
		out.Body.Token = res.Session.Token
		out.Body.ExpiresAt = res.Session.CreatedAt.Add(sessionTTL)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/auth/logout",
		Summary:     "End the current session",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, _ *struct{}) (*LogoutOutput, error) {
		p := middleware.PrincipalFromContext(ctx)
		if err := authSvc.Logout(ctx, p, middleware.SessionTokenFromContext(ctx)); err != nil {
			return nil, apiError(ctx, err)
		}
		return &LogoutOutput{SetCookie: *cookie.Clear()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/auth/me",
		Summary:     "Current user",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, _ *struct{}) (*MeOutput, error) {
		p := middleware.PrincipalFromContext(ctx)
		if p == nil {
			return nil, apiError(ctx, domain.ErrUnauthorized)
		}

		out := &MeOutput{}
		out.Body.ID = p.UserID
		out.Body.Email = p.Email
		out.Body.Name = p.Name
		out.Body.Role = p.Role
		out.Body.CompanyID = p.CompanyID
		if p.CompanyID != nil {
			c, err := companies.Get(ctx, p, *p.CompanyID)
			switch {
			case err == nil:
				out.Body.CompanyName = c.Name
			case !errors.Is(err, domain.ErrNotFound):
				return nil, apiError(ctx, err)
			}
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "change-password",
		Method:        http.MethodPost,
		Path:          "/auth/change-password",
		Summary:       "Change own password",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *ChangePasswordInput) (*struct{}, error) {
		p := middleware.PrincipalFromContext(ctx)
		if err := authSvc.ChangePassword(ctx, p, input.Body.CurrentPassword, input.Body.NewPassword); err != nil {
			return nil, apiError(ctx, err)
		}
		return nil, nil
	})
}
