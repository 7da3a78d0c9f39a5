package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/hrm/internal/domain"
	"github.com/gosuda/hrm/internal/hr"
	"github.com/gosuda/hrm/internal/server/middleware"
)

type ListUsersInput struct {
	PageParams
	CompanyID int64       `query:"company_id" minimum:"0" doc:"Filter by company (global role only)"`
	Role      domain.Role `query:"role" enum:"SUPER_ADMIN,COMPANY_ADMIN,HR,VIEWER,AUDITOR"`
	Search    string      `query:"search" maxLength:"100"`
}

type UserIDInput struct {
	ID int64 `path:"id" minimum:"1" doc:"User ID"`
}

type UserOutput struct {
	Body *domain.User
}

type CreateUserInput struct {
	Body struct {
		Email     string      `json:"email" minLength:"3" maxLength:"255"`
		Password  string      `json:"password" minLength:"8" maxLength:"128"` //nolint:gosec // G117: credential DTO
		Name      string      `json:"name" minLength:"1" maxLength:"255"`
		Phone     string      `json:"phone,omitempty" maxLength:"32"`
		Role      domain.Role `json:"role" enum:"SUPER_ADMIN,COMPANY_ADMIN,HR,VIEWER,AUDITOR"`
		CompanyID *int64      `json:"company_id,omitempty" doc:"Defaults to the caller's company"`
	}
}

type UpdateUserInput struct {
	ID   int64 `path:"id" minimum:"1" doc:"User ID"`
	Body struct {
		Name         *string      `json:"name,omitempty" maxLength:"255"`
		Phone        *string      `json:"phone,omitempty" maxLength:"32"`
		Email        *string      `json:"email,omitempty" maxLength:"255"`
		Role         *domain.Role `json:"role,omitempty" enum:"SUPER_ADMIN,COMPANY_ADMIN,HR,VIEWER,AUDITOR"`
		CompanyID    *int64       `json:"company_id,omitempty"`
		ClearCompany bool         `json:"clear_company,omitempty" doc:"Detach from any company"`
		Active       *bool        `json:"active,omitempty"`
	}
}

type ResetPasswordInput struct {
	ID   int64 `path:"id" minimum:"1" doc:"User ID"`
	Body struct {
		NewPassword string `json:"new_password" minLength:"8" maxLength:"128"` //nolint:gosec // G117: credential DTO
	}
}

func RegisterUserRoutes(api huma.API, svc UserService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *ListUsersInput) (*ListOutput[*domain.User], error) {
		page, err := svc.List(ctx, middleware.PrincipalFromContext(ctx), hr.UserQuery{
			CompanyID: optionalID(input.CompanyID),
			Role:      input.Role,
			Search:    input.Search,
			Page:      input.page(),
		})
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return listOutput(page), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/users/{id}",
		Summary:     "Get a user",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *UserIDInput) (*UserOutput, error) {
		u, err := svc.Get(ctx, middleware.PrincipalFromContext(ctx), input.ID)
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &UserOutput{Body: u}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-user",
		Method:        http.MethodPost,
		Path:          "/users",
		Summary:       "Create a user",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateUserInput) (*UserOutput, error) {
		u, err := svc.Create(ctx, middleware.PrincipalFromContext(ctx), hr.UserInput{
			Email:     input.Body.Email,
			Password:  input.Body.Password,
			Name:      input.Body.Name,
			Phone:     input.Body.Phone,
			Role:      input.Body.Role,
			CompanyID: input.Body.CompanyID,
		})
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &UserOutput{Body: u}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-user",
		Method:      http.MethodPatch,
		Path:        "/users/{id}",
		Summary:     "Update a user",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *UpdateUserInput) (*UserOutput, error) {
		u, err := svc.Update(ctx, middleware.PrincipalFromContext(ctx), input.ID, hr.UserUpdate{
			Name:         input.Body.Name,
			Phone:        input.Body.Phone,
			Email:        input.Body.Email,
			Role:         input.Body.Role,
			CompanyID:    input.Body.CompanyID,
			ClearCompany: input.Body.ClearCompany,
			Active:       input.Body.Active,
		})
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &UserOutput{Body: u}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "reset-user-password",
		Method:        http.MethodPost,
		Path:          "/users/{id}/reset-password",
		Summary:       "Set a new password for a user",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *ResetPasswordInput) (*struct{}, error) {
		if err := svc.ResetPassword(ctx, middleware.PrincipalFromContext(ctx), input.ID, input.Body.NewPassword); err != nil {
			return nil, apiError(ctx, err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-user",
		Method:        http.MethodDelete,
		Path:          "/users/{id}",
		Summary:       "Delete a user",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *UserIDInput) (*struct{}, error) {
		if err := svc.Delete(ctx, middleware.PrincipalFromContext(ctx), input.ID); err != nil {
			return nil, apiError(ctx, err)
		}
		return nil, nil
	})
}
