package hr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gosuda/hrm/internal/audit"
	"github.com/gosuda/hrm/internal/auth"
	"github.com/gosuda/hrm/internal/domain"
)

type UserService struct {
	d Deps
}

type UserQuery struct {
	CompanyID *int64
	Role      domain.Role
	Search    string
	Page      domain.Page
}

// List returns the global directory to the global role and the caller's
// company users to company admins.
func (s *UserService) List(ctx context.Context, p *domain.Principal, q UserQuery) (*Page[*domain.User], error) {
	if err := auth.Authorize(p, auth.ListCompanyUser); err != nil {
		return nil, err
	}

	f := domain.UserFilter{
		CompanyID: auth.CompanyFilter(p, q.CompanyID),
		Role:      q.Role,
		Search:    q.Search,
		Page:      q.Page,
	}
	items, total, err := s.d.Users.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("hr.UserService.List: %w", err)
	}
	return &Page[*domain.User]{Items: items, Info: q.Page.Info(total)}, nil
}

// Get returns the caller's own record, any record to the global role, and
// same-company records to company admins.
func (s *UserService) Get(ctx context.Context, p *domain.Principal, id int64) (*domain.User, error) {
	if err := auth.Authorize(p, auth.AnyRole); err != nil {
		return nil, err
	}
	if !auth.IsSelf(p, id) {
		if err := auth.Authorize(p, auth.ListCompanyUser); err != nil {
			return nil, hide(err, "user")
		}
	}
	return s.load(ctx, p, id)
}

func (s *UserService) load(ctx context.Context, p *domain.Principal, id int64) (*domain.User, error) {
	u, err := s.d.Users.GetByID(ctx, id)
	if err != nil {
		return nil, hide(err, "user")
	}
	if auth.IsSelf(p, u.ID) {
		return u, nil
	}
	if err := auth.EnforceScope(p, u.CompanyID); err != nil {
		return nil, hide(err, "user")
	}
	return u, nil
}

type UserInput struct {
	Email     string
	Password  string
	Name      string
	Phone     string
	Role      domain.Role
	CompanyID *int64
}

func (s *UserService) Create(ctx context.Context, p *domain.Principal, in UserInput) (*domain.User, error) {
	if err := auth.Authorize(p, auth.CreateUser); err != nil {
		return nil, err
	}

	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.CompanyID == nil && !auth.IsGlobal(p) {
		in.CompanyID = p.CompanyID
	}

	verr := &domain.ValidationError{}
	if !validEmail(in.Email) {
		verr.Add("email", "is not a valid email address")
	}
	if len(in.Password) < auth.MinPasswordLen {
		verr.Add("password", fmt.Sprintf("must be at least %d characters", auth.MinPasswordLen))
	}
	if in.Name == "" {
		verr.Add("name", "is required")
	}
	validateRoleCompany(verr, in.Role, in.CompanyID)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := auth.CanAssign(p, in.Role, in.CompanyID); err != nil {
		return nil, err
	}
	if err := s.companyExists(ctx, in.CompanyID); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hr.UserService.Create: %w", err)
	}

	u := &domain.User{
		CompanyID:    in.CompanyID,
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Phone:        in.Phone,
		Role:         in.Role,
		Active:       true,
	}
	if err := s.d.Users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("hr.UserService.Create: %w", err)
	}

	e := entry(p, domain.ActionCreate, domain.EntityUser, u.ID, u.CompanyID, "User created: "+u.Email)
	e.EntityVersion = u.Version
	e.NewValues = audit.Snapshot(u)
	s.d.Recorder.Record(ctx, e)

	return u, nil
}

// UserUpdate carries optional changes. Users may change their own name and
// phone; everything else needs the global role.
type UserUpdate struct {
	Name      *string
	Phone     *string
	Email     *string
	Role      *domain.Role
	CompanyID *int64
	// ClearCompany detaches the user from any company (global role only).
	ClearCompany bool
	Active       *bool
}

func (in UserUpdate) privileged() bool {
	return in.Email != nil || in.Role != nil || in.CompanyID != nil || in.ClearCompany || in.Active != nil
}

func (s *UserService) Update(ctx context.Context, p *domain.Principal, id int64, in UserUpdate) (*domain.User, error) {
	if err := auth.Authorize(p, auth.AnyRole); err != nil {
		return nil, err
	}
	if !auth.IsSelf(p, id) || in.privileged() {
		if err := auth.Authorize(p, auth.AdministerUsers); err != nil {
			return nil, err
		}
	}

	u, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	before := audit.Snapshot(u)

	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Email != nil {
		u.Email = normalizeEmail(*in.Email)
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.ClearCompany {
		u.CompanyID = nil
	} else if in.CompanyID != nil {
		u.CompanyID = in.CompanyID
	}
	if in.Active != nil {
		u.Active = *in.Active
	}

	verr := &domain.ValidationError{}
	if u.Name == "" {
		verr.Add("name", "is required")
	}
	if !validEmail(u.Email) {
		verr.Add("email", "is not a valid email address")
	}
	validateRoleCompany(verr, u.Role, u.CompanyID)
	if auth.IsSelf(p, u.ID) && !u.Active {
		verr.Add("active", "cannot deactivate your own account")
	}
	if auth.IsSelf(p, u.ID) && u.Role != p.Role {
		verr.Add("role", "cannot change your own role")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if in.CompanyID != nil {
		if err := s.companyExists(ctx, u.CompanyID); err != nil {
			return nil, err
		}
	}

	if err := s.d.Users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("hr.UserService.Update: %w", err)
	}

	e := entry(p, domain.ActionUpdate, domain.EntityUser, u.ID, u.CompanyID, "User updated: "+u.Email)
	e.EntityVersion = u.Version
	e.OldValues = before
	e.NewValues = audit.Snapshot(u)
	s.d.Recorder.Record(ctx, e)

	return u, nil
}

// ResetPassword sets a new password for another user. Stored passwords are
// never readable.
func (s *UserService) ResetPassword(ctx context.Context, p *domain.Principal, id int64, password string) error {
	if err := auth.Authorize(p, auth.AdministerUsers); err != nil {
		return err
	}
	if len(password) < auth.MinPasswordLen {
		return domain.NewValidationError("new_password", fmt.Sprintf("must be at least %d characters", auth.MinPasswordLen))
	}
	u, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hr.UserService.ResetPassword: %w", err)
	}
	version, err := s.d.Users.UpdatePassword(ctx, u.ID, hash)
	if err != nil {
		return fmt.Errorf("hr.UserService.ResetPassword: %w", err)
	}

	e := entry(p, domain.ActionUpdate, domain.EntityUser, u.ID, u.CompanyID, "Password reset: "+u.Email)
	e.EntityVersion = version
	s.d.Recorder.Record(ctx, e)
	return nil
}

func (s *UserService) Delete(ctx context.Context, p *domain.Principal, id int64) error {
	if err := auth.Authorize(p, auth.AdministerUsers); err != nil {
		return err
	}
	if auth.IsSelf(p, id) {
		return domain.NewValidationError("id", "cannot delete your own account")
	}
	u, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}

	if err := s.d.Users.Delete(ctx, u.ID); err != nil {
		return fmt.Errorf("hr.UserService.Delete: %w", err)
	}

	e := entry(p, domain.ActionDelete, domain.EntityUser, u.ID, u.CompanyID, "User deleted: "+u.Email)
	e.EntityVersion = u.Version + 1
	e.OldValues = audit.Snapshot(u)
	s.d.Recorder.Record(ctx, e)

	return nil
}

func (s *UserService) companyExists(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	_, err := s.d.Companies.GetByID(ctx, *id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewValidationError("company_id", "company does not exist")
	}
	if err != nil {
		return fmt.Errorf("hr.UserService: company lookup: %w", err)
	}
	return nil
}

func validateRoleCompany(verr *domain.ValidationError, role domain.Role, companyID *int64) {
	switch {
	case !role.Valid():
		verr.Add("role", "is not a valid role")
	case role.Global() && companyID != nil:
		verr.Add("company_id", "must be empty for "+string(role))
	case !role.Global() && companyID == nil:
		verr.Add("company_id", "is required for "+string(role))
	}
}
