package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/hrm/internal/domain"
	"github.com/gosuda/hrm/internal/hr"
	"github.com/gosuda/hrm/internal/server/middleware"
)

type ListCompaniesInput struct {
	PageParams
	Search string `query:"search" maxLength:"100" doc:"Name or code contains"`
}

type CompanyIDInput struct {
	ID int64 `path:"id" minimum:"1" doc:"Company ID"`
}

type CompanyOutput struct {
	Body *domain.Company
}

type CreateCompanyInput struct {
	Body struct {
		Name    string `json:"name" minLength:"1" maxLength:"255"`
		Code    string `json:"code" minLength:"3" maxLength:"20" doc:"Unique company code; the first three letters prefix employee codes"`
		Address string `json:"address,omitempty" maxLength:"1000"`
		Phone   string `json:"phone,omitempty" maxLength:"32"`
		Email   string `json:"email,omitempty" maxLength:"255"`
	}
}

type UpdateCompanyInput struct {
	ID   int64 `path:"id" minimum:"1" doc:"Company ID"`
	Body struct {
		Name    *string `json:"name,omitempty" maxLength:"255"`
		Code    *string `json:"code,omitempty" maxLength:"20"`
		Address *string `json:"address,omitempty" maxLength:"1000"`
		Phone   *string `json:"phone,omitempty" maxLength:"32"`
		Email   *string `json:"email,omitempty" maxLength:"255"`
		Active  *bool   `json:"active,omitempty"`
	}
}

func RegisterCompanyRoutes(api huma.API, svc CompanyService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-companies",
		Method:      http.MethodGet,
		Path:        "/companies",
		Summary:     "List companies visible to the caller",
		Tags:        []string{"Companies"},
	}, func(ctx context.Context, input *ListCompaniesInput) (*ListOutput[*domain.Company], error) {
		page, err := svc.List(ctx, middleware.PrincipalFromContext(ctx), hr.CompanyQuery{
			Search: input.Search,
			Page:   input.page(),
		})
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return listOutput(page), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-company",
		Method:      http.MethodGet,
		Path:        "/companies/{id}",
		Summary:     "Get a company",
		Tags:        []string{"Companies"},
	}, func(ctx context.Context, input *CompanyIDInput) (*CompanyOutput, error) {
		c, err := svc.Get(ctx, middleware.PrincipalFromContext(ctx), input.ID)
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &CompanyOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-company",
		Method:        http.MethodPost,
		Path:          "/companies",
		Summary:       "Create a company",
		Tags:          []string{"Companies"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateCompanyInput) (*CompanyOutput, error) {
		c, err := svc.Create(ctx, middleware.PrincipalFromContext(ctx), hr.CompanyInput{
			Name:    input.Body.Name,
			Code:    input.Body.Code,
			Address: input.Body.Address,
			Phone:   input.Body.Phone,
			Email:   input.Body.Email,
		})
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &CompanyOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-company",
		Method:      http.MethodPatch,
		Path:        "/companies/{id}",
		Summary:     "Update a company",
		Tags:        []string{"Companies"},
	}, func(ctx context.Context, input *UpdateCompanyInput) (*CompanyOutput, error) {
		c, err := svc.Update(ctx, middleware.PrincipalFromContext(ctx), input.ID, hr.CompanyUpdate{
			Name:    input.Body.Name,
			Code:    input.Body.Code,
			Address: input.Body.Address,
			Phone:   input.Body.Phone,
			Email:   input.Body.Email,
			Active:  input.Body.Active,
		})
		if err != nil {
			return nil, apiError(ctx, err)
		}
		return &CompanyOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-company",
		Method:        http.MethodDelete,
		Path:          "/companies/{id}",
		Summary:       "Delete a company without employees",
		Tags:          []string{"Companies"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *CompanyIDInput) (*struct{}, error) {
		if err := svc.Delete(ctx, middleware.PrincipalFromContext(ctx), input.ID); err != nil {
			return nil, apiError(ctx, err)
		}
		return nil, nil
	})
}
