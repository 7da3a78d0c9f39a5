package server

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/hrm/internal/api/v1"
	"github.com/gosuda/hrm/internal/api/ws"
	"github.com/gosuda/hrm/internal/auth"
	"github.com/gosuda/hrm/internal/server/middleware"
)

func registerAuthRoutes(api huma.API, d Deps, cookie middleware.Cookie, sessionTTL time.Duration) {
	v1.RegisterAuthRoutes(api, d.Auth, d.Companies, cookie, sessionTTL)
}

func registerAPIRoutes(api huma.API, d Deps, maxUpload int64) {
	v1.RegisterCompanyRoutes(api, d.Companies)
	v1.RegisterUserRoutes(api, d.Users)
	v1.RegisterEmployeeRoutes(api, d.Employees)
	v1.RegisterDocumentRoutes(api, d.Documents, maxUpload)
	v1.RegisterLogRoutes(api, d.Logs)
	v1.RegisterDashboardRoutes(api, d.Dashboard)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.With(middleware.RequireRole(auth.WatchActivity)).Get("/activity", hub.ServeActivity)
}
