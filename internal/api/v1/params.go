package v1

import (
	"time"

	"github.com/gosuda/hrm/internal/domain"
	"github.com/gosuda/hrm/internal/hr"
)

// PageParams are the shared paging query parameters.
type PageParams struct {
	Page  int `query:"page" minimum:"1" default:"1" doc:"1-based page number"`
	Limit int `query:"limit" minimum:"1" maximum:"100" default:"10" doc:"Page size"`
}

func (p PageParams) page() domain.Page { return domain.NewPage(p.Page, p.Limit) }

// ListOutput is a page of items with its pagination block.
type ListOutput[T any] struct {
	Body struct {
		Items      []T             `json:"items"`
		Pagination domain.PageInfo `json:"pagination"`
	}
}

func listOutput[T any](p *hr.Page[T]) *ListOutput[T] {
	out := &ListOutput[T]{}
	out.Body.Items = p.Items
	if out.Body.Items == nil {
		out.Body.Items = []T{}
	}
	out.Body.Pagination = p.Info
	return out
}

// Zero query values mean "not given".

func optionalID(v int64) *int64 {
	if v <= 0 {
		return nil
	}
	return &v
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// nonNil keeps empty aggregates as [] rather than null on the wire.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
