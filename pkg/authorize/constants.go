package authorize

import (
	"fmt"
	"regexp"
	"strings"
)

type Action string
type Resource string
type Role string
type Domain string

// ----------------------------
// Actions
// ----------------------------

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"

	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionDelete: {},
}

// ----------------------------
// Resources
// ----------------------------

const (
	WildcardResource Resource = "*"

	ResourceOrganization    Resource = "organization"
	ResourceUser            Resource = "user"
	ResourceFacility        Resource = "facility"
	ResourcePatient         Resource = "patient"
	ResourceEvent           Resource = "event"
	ResourcePatientSummary  Resource = "patient_summary"
	ResourcePatientDocument Resource = "patient_document"
	ResourceReminder        Resource = "reminder"
	ResourceReminderSetting Resource = "reminder_setting"
	ResourceIcsToken        Resource = "ics_token"
	ResourceExport          Resource = "export"
	ResourceSystem          Resource = "system"
)

var KnownResources = map[Resource]struct{}{
	ResourceOrganization: {}, ResourceUser: {}, ResourceFacility: {}, ResourcePatient: {},
	ResourceEvent: {}, ResourcePatientSummary: {}, ResourcePatientDocument: {},
	ResourceReminder: {}, ResourceReminderSetting: {}, ResourceIcsToken: {},
	ResourceExport: {}, ResourceSystem: {},
}

// ----------------------------
// Roles
// ----------------------------
//
// Policy subjects assigned to users through grouping policies.

const (
	WildcardRole Role = "*"

	// domain = sys
	RoleSysSuperAdmin Role = "role:sys:superadmin"

	// domain = org:<uuid>
	RoleOrgAdmin  Role = "role:org:admin"
	RoleOrgStaff  Role = "role:org:staff"
	RoleOrgViewer Role = "role:org:viewer"
)

var KnownRoles = map[Role]struct{}{
	RoleSysSuperAdmin: {},
	RoleOrgAdmin:      {},
	RoleOrgStaff:      {},
	RoleOrgViewer:     {},
}

// UserRoleToRBACRole maps users.role column values to casbin roles.
var UserRoleToRBACRole = map[string]Role{
	"super_admin": RoleSysSuperAdmin,
	"admin":       RoleOrgAdmin,
	"staff":       RoleOrgStaff,
	"viewer":      RoleOrgViewer,
}

// ----------------------------
// Domains
// ----------------------------

const (
	DomainSys      Domain = "sys"
	WildcardDomain Domain = "*"

	DomainPrefixOrg Domain = "org:"
)

var reUUID = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

func OrgDomain(orgID string) Domain {
	return Domain(fmt.Sprintf("%s%s", DomainPrefixOrg, orgID))
}

// IsValidDomain checks whether d is a recognised domain string.
func IsValidDomain(d Domain) bool {
	if d == DomainSys || d == WildcardDomain {
		return true
	}
	rest, ok := strings.CutPrefix(string(d), string(DomainPrefixOrg))
	return ok && reUUID.MatchString(rest)
}

// ----------------------------
// Casbin tuple helpers
// ----------------------------

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// GroupSubject is the g.sub in Casbin: a concrete user id.
type GroupSubject string

// Grouping rows: g, user_id, role, domain
type GroupingPolicy struct {
	Subject GroupSubject
	Role    Role
	Domain  Domain
}

// Permission rows: p, role, domain, resource, action, eft
type PermissionPolicy struct {
	Subject Role
	Domain  Domain
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}
