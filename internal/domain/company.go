package domain

import (
	"context"
	"strings"
	"time"
)

type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"` // unique, prefix of generated employee codes
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Active    bool      `json:"active"`
	Version   int64     `json:"version"` // bumped by every audited change
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmployeeCodePrefix returns the three-letter prefix used for employee codes.
func (c *Company) EmployeeCodePrefix() string {
	code := strings.ToUpper(strings.TrimSpace(c.Code))
	if len(code) > 3 {
		code = code[:3]
	}
	return code
}

type CompanyFilter struct {
	Search string
	// OnlyID restricts the listing to a single company (non-global callers).
	OnlyID *int64
	Page   Page
}

type CompanyRepository interface {
	Create(ctx context.Context, c *Company) error
	GetByID(ctx context.Context, id int64) (*Company, error)
	Update(ctx context.Context, c *Company) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f CompanyFilter) ([]*Company, int64, error)
	CountEmployees(ctx context.Context, id int64) (int64, error)
}
