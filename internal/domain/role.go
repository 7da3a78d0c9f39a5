package domain

// Role is the access level attached to a user account.
type Role string

const (
	RoleSuperAdmin   Role = "SUPER_ADMIN"
	RoleCompanyAdmin Role = "COMPANY_ADMIN"
	RoleHR           Role = "HR"
	RoleViewer       Role = "VIEWER"
	RoleAuditor      Role = "AUDITOR"
)

// AllRoles lists every known role, highest privilege first.
func AllRoles() []Role {
	return []Role{RoleSuperAdmin, RoleCompanyAdmin, RoleHR, RoleViewer, RoleAuditor}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleCompanyAdmin, RoleHR, RoleViewer, RoleAuditor:
		return true
	}
	return false
}

// Global reports whether the role sees every company. Only SUPER_ADMIN does,
// and it is the only role allowed to exist without a company.
func (r Role) Global() bool {
	return r == RoleSuperAdmin
}

// Principal is the resolved identity of a caller for one request.
type Principal struct {
	UserID    int64
	Email     string
	Name      string
	Role      Role
	CompanyID *int64 // nil only for the global role
	Active    bool
}

// PrincipalFromUser projects a stored user onto a request principal.
func PrincipalFromUser(u *User) *Principal {
	return &Principal{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CompanyID: u.CompanyID,
		Active:    u.Active,
	}
}
