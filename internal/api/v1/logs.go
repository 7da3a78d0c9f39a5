package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/hrm/internal/domain"
	"github.com/gosuda/hrm/internal/hr"
	"github.com/gosuda/hrm/internal/server/middleware"
)

type ActivityLogInput struct {
	PageParams
	CompanyID  int64     `query:"company_id" minimum:"0"`
	Action     string    `query:"action" enum:"CREATE,UPDATE,DELETE,LOGIN,LOGOUT,VERIFY,UPLOAD,EXPORT,DOWNLOAD"`
	EntityType string    `query:"entity_type" maxLength:"32"`
	ActorID    int64     `query:"actor_id" minimum:"0"`
	From       time.Time `query:"from" doc:"Inclusive lower bound (RFC 3339)"`
	To         time.Time `query:"to" doc:"Inclusive upper bound (RFC 3339)"`
}

type HistoryInput struct {
	EntityType string `path:"entity_type" doc:"company, user, employee or document"`
	ID         int64  `path:"id" minimum:"1"`
}

type HistoryOutput struct {
	Body []*domain.AuditEntry
}

type LoginLogInput struct {
	PageParams
	CompanyID int64     `query:"company_id" minimum:"0"`
	Status    string    `query:"status" enum:"SUCCESS,FAILED,LOCKED"`
	Email     string    `query:"email" maxLength:"255"`
	From      time.Time `query:"from"`
	To        time.Time `query:"to"`
}

// RegisterLogRoutes wires the read-only audit views.
func RegisterLogRoutes(api huma.API, svc LogService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-activity",
		Method:      http.MethodGet,
		Path:        "/logs/activity",
		Summary:     "List audit activity",
		Tags:        []string{"Logs"},
	}, func(ctx context.Context, input *ActivityLogInput) (*ListOutput[*domain.AuditEntry], error) {
		page, err := svc.Activity(ctx, middleware.PrincipalFromContext(ctx), hr.ActivityQuery{
			CompanyID:  optionalID(input.CompanyID),
			Action:     domain.AuditAction(input.Action),
			EntityType: input.EntityType,
			ActorID:    optionalID(input.ActorID),
			From:       optionalTime(input.From),
			To:         optionalTime(input.To),
			Page:       input.page(),
		})
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return listOutput(page), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-entity-history",
		Method:      http.MethodGet,
		Path:        "/logs/history/{entity_type}/{id}",
		Summary:     "Audit history of one record",
		Tags:        []string{"Logs"},
	}, func(ctx context.Context, input *HistoryInput) (*HistoryOutput, error) {
		entries, err := svc.History(ctx, middleware.PrincipalFromContext(ctx), input.EntityType, input.ID)
		if err != nil {
			return nil, apiError(ctx, err)
		}
		if entries == nil {
			entries = []*domain.AuditEntry{}
		}
		return &HistoryOutput{Body: entries}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-logins",
		Method:      http.MethodGet,
		Path:        "/logs/logins",
		Summary:     "List login attempts",
		Tags:        []string{"Logs"},
	}, func(ctx context.Context, input *LoginLogInput) (*ListOutput[*domain.LoginEvent], error) {
		page, err := svc.Logins(ctx, middleware.PrincipalFromContext(ctx), hr.LoginQuery{
			CompanyID: optionalID(input.CompanyID),
			Status:    domain.LoginStatus(input.Status),
			Email:     input.Email,
			From:      optionalTime(input.From),
			To:        optionalTime(input.To),
			Page:      input.page(),
		})
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return listOutput(page), nil
	})
}
