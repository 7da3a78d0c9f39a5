package hr

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/gosuda/hrm/internal/audit"
	"github.com/gosuda/hrm/internal/auth"
	"github.com/gosuda/hrm/internal/domain"
)

var companyCodeRe = regexp.MustCompile(`^[A-Z0-9]{3,20}$`)

type CompanyService struct {
	d Deps
}

type CompanyQuery struct {
	Search string
	Page   domain.Page
}

// List returns every company to the global role and only the caller's own
// company to a company admin.
func (s *CompanyService) List(ctx context.Context, p *domain.Principal, q CompanyQuery) (*Page[*domain.Company], error) {
	if err := auth.Authorize(p, auth.ListCompanies); err != nil {
		return nil, err
	}

	f := domain.CompanyFilter{Search: q.Search, Page: q.Page}
	if !auth.IsGlobal(p) {
		f.OnlyID = auth.CompanyFilter(p, nil)
	}

	items, total, err := s.d.Companies.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("hr.CompanyService.List: %w", err)
	}
	return &Page[*domain.Company]{Items: items, Info: q.Page.Info(total)}, nil
}

func (s *CompanyService) Get(ctx context.Context, p *domain.Principal, id int64) (*domain.Company, error) {
	if err := auth.Authorize(p, auth.ViewCompanies); err != nil {
		return nil, err
	}
	return s.load(ctx, p, id)
}

func (s *CompanyService) load(ctx context.Context, p *domain.Principal, id int64) (*domain.Company, error) {
	c, err := s.d.Companies.GetByID(ctx, id)
	if err != nil {
		return nil, hide(err, "company")
	}
	if err := auth.EnforceScope(p, &c.ID); err != nil {
		return nil, hide(err, "company")
	}
	return c, nil
}

type CompanyInput struct {
	Name    string
	Code    string
	Address string
	Phone   string
	Email   string
}

func (in *CompanyInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Email = normalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
}

func validateCompany(c *domain.Company) error {
	verr := &domain.ValidationError{}
	if c.Name == "" {
		verr.Add("name", "is required")
	}
	if !companyCodeRe.MatchString(c.Code) {
		verr.Add("code", "must be 3-20 letters or digits")
	}
	if c.Email != "" && !validEmail(c.Email) {
		verr.Add("email", "is not a valid email address")
	}
	return verr.OrNil()
}

func (s *CompanyService) Create(ctx context.Context, p *domain.Principal, in CompanyInput) (*domain.Company, error) {
	if err := auth.Authorize(p, auth.CreateCompany); err != nil {
		return nil, err
	}

	in.normalize()
	c := &domain.Company{
		Name:    in.Name,
		Code:    in.Code,
		Address: in.Address,
		Phone:   in.Phone,
		Email:   in.Email,
		Active:  true,
	}
	if err := validateCompany(c); err != nil {
		return nil, err
	}

	if err := s.d.Companies.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("hr.CompanyService.Create: %w", err)
	}

	e := entry(p, domain.ActionCreate, domain.EntityCompany, c.ID, &c.ID, "Company created: "+c.Name)
	e.EntityVersion = c.Version
	e.NewValues = audit.Snapshot(c)
	s.d.Recorder.Record(ctx, e)

	return c, nil
}

// CompanyUpdate carries optional changes. Code and Active are reserved to
// the global role.
type CompanyUpdate struct {
	Name    *string
	Code    *string
	Address *string
	Phone   *string
	Email   *string
	Active  *bool
}

func (s *CompanyService) Update(ctx context.Context, p *domain.Principal, id int64, in CompanyUpdate) (*domain.Company, error) {
	if err := auth.Authorize(p, auth.UpdateCompany); err != nil {
		return nil, err
	}
	c, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !auth.IsGlobal(p) && (in.Code != nil || in.Active != nil) {
		return nil, fmt.Errorf("hr.CompanyService.Update: code and active flag: %w", domain.ErrForbidden)
	}

	before := audit.Snapshot(c)
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Code != nil {
		c.Code = strings.ToUpper(strings.TrimSpace(*in.Code))
	}
	if in.Address != nil {
		c.Address = strings.TrimSpace(*in.Address)
	}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Email != nil {
		c.Email = normalizeEmail(*in.Email)
	}
	if in.Active != nil {
		c.Active = *in.Active
	}
	if err := validateCompany(c); err != nil {
		return nil, err
	}

	if err := s.d.Companies.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("hr.CompanyService.Update: %w", err)
	}

	e := entry(p, domain.ActionUpdate, domain.EntityCompany, c.ID, &c.ID, "Company updated: "+c.Name)
	e.EntityVersion = c.Version
	e.OldValues = before
	e.NewValues = audit.Snapshot(c)
	s.d.Recorder.Record(ctx, e)

	return c, nil
}

// Delete removes a company that no longer has employees.
func (s *CompanyService) Delete(ctx context.Context, p *domain.Principal, id int64) error {
	if err := auth.Authorize(p, auth.DeleteCompany); err != nil {
		return err
	}
	c, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}

	n, err := s.d.Companies.CountEmployees(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("hr.CompanyService.Delete: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("company has %d employees: %w", n, domain.ErrConflict)
	}

	if err := s.d.Companies.Delete(ctx, c.ID); err != nil {
		return fmt.Errorf("hr.CompanyService.Delete: %w", err)
	}

	e := entry(p, domain.ActionDelete, domain.EntityCompany, c.ID, &c.ID, "Company deleted: "+c.Name)
	e.EntityVersion = c.Version + 1
	e.OldValues = audit.Snapshot(c)
	s.d.Recorder.Record(ctx, e)

	return nil
}
