package authorize

import (
	"context"
	"log/slog"
)

// DefaultPolicies is the role matrix shared by every organization.
// Super admins are not listed: they bypass evaluation in the sys domain.
func DefaultPolicies() []PermissionPolicy {
	var out []PermissionPolicy
	add := func(role Role, res Resource, acts ...Action) {
		for _, act := range acts {
			out = append(out, PermissionPolicy{role, WildcardDomain, res, act, EffectAllow})
		}
	}

	crud := []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}

	// admin: everything inside the organization except creating or deleting it
	add(RoleOrgAdmin, ResourceOrganization, ActionRead, ActionUpdate)
	for _, r := range []Resource{
		ResourceUser, ResourceFacility, ResourcePatient, ResourceEvent,
		ResourcePatientSummary, ResourcePatientDocument, ResourceReminder,
		ResourceReminderSetting, ResourceIcsToken,
	} {
		add(RoleOrgAdmin, r, crud...)
	}
	add(RoleOrgAdmin, ResourceExport, ActionRead)

	// staff: day-to-day scheduling and care records
	add(RoleOrgStaff, ResourceOrganization, ActionRead)
	add(RoleOrgStaff, ResourceUser, ActionRead)
	add(RoleOrgStaff, ResourceFacility, ActionCreate, ActionRead, ActionUpdate)
	add(RoleOrgStaff, ResourcePatient, ActionCreate, ActionRead, ActionUpdate)
	add(RoleOrgStaff, ResourceEvent, crud...)
	add(RoleOrgStaff, ResourcePatientSummary, ActionRead, ActionUpdate)
	add(RoleOrgStaff, ResourcePatientDocument, ActionCreate, ActionRead)
	add(RoleOrgStaff, ResourceReminder, crud...)
	add(RoleOrgStaff, ResourceReminderSetting, ActionRead)
	add(RoleOrgStaff, ResourceIcsToken, crud...)
	add(RoleOrgStaff, ResourceExport, ActionRead)

	// viewer: read-only, may subscribe to their own calendar feed
	for _, r := range []Resource{
		ResourceOrganization, ResourceUser, ResourceFacility, ResourcePatient,
		ResourceEvent, ResourcePatientSummary, ResourcePatientDocument,
		ResourceReminder, ResourceReminderSetting, ResourceExport,
	} {
		add(RoleOrgViewer, r, ActionRead)
	}
	add(RoleOrgViewer, ResourceIcsToken, ActionCreate, ActionRead, ActionDelete)

	return out
}

// SeedDefaultPolicies writes DefaultPolicies. Existing rows are left alone.
func SeedDefaultPolicies(ctx context.Context, auth IAuthorization) error {
	logger := slog.Default()
	policies := DefaultPolicies()

	for _, p := range policies {
		added, err := auth.AddPermission(ctx, p.Subject, p.Domain, p.Object, p.Action, p.Effect)
		if err != nil {
			logger.Error("failed to add policy", "policy", p, "error", err)
			return err
		}
		if added {
			logger.Debug("added policy", "role", p.Subject, "resource", p.Object, "action", p.Action)
		}
	}

	logger.Info("seeded default RBAC policies", "count", len(policies))
	return nil
}

// AssignUserRole mirrors a users.role value into casbin grouping policies.
// Super admins are granted in the sys domain; others in their organization's domain.
func AssignUserRole(ctx context.Context, auth IAuthorization, userID, orgID, role string) error {
	rbacRole, ok := UserRoleToRBACRole[role]
	if !ok {
		return ErrInvalidArgs
	}

	subject := GroupSubject(userID)
	if rbacRole == RoleSysSuperAdmin {
		return auth.ReplaceRoleInDomain(ctx, subject, rbacRole, DomainSys)
	}
	if orgID == "" {
		return ErrInvalidArgs
	}
	return auth.ReplaceRoleInDomain(ctx, subject, rbacRole, OrgDomain(orgID))
}

// RevokeUserRoles removes every grouping the user holds in the organization.
func RevokeUserRoles(ctx context.Context, auth IAuthorization, userID, orgID string) error {
	return auth.ReplaceRoleInDomain(ctx, GroupSubject(userID), "", OrgDomain(orgID))
}
