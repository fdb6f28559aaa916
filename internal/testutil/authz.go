package testutil

import (
	"context"
	"sync"

	"github.com/Alijeyrad/carevisit_backend/pkg/authorize"
)

// RoleGrant records one ReplaceRoleInDomain call.
type RoleGrant struct {
	Subject authorize.GroupSubject
	Role    authorize.Role
	Domain  authorize.Domain
}

// FakeAuthz allows everything unless Deny is set and records role changes.
type FakeAuthz struct {
	mu     sync.Mutex
	Deny   bool
	Grants []RoleGrant
}

var _ authorize.IAuthorization = (*FakeAuthz)(nil)

func (f *FakeAuthz) Enforce(context.Context, authorize.GroupSubject, authorize.Domain, authorize.Resource, authorize.Action) (bool, error) {
	return !f.Deny, nil
}

func (f *FakeAuthz) MustEnforce(ctx context.Context, s authorize.GroupSubject, d authorize.Domain, o authorize.Resource, a authorize.Action) error {
	if ok, _ := f.Enforce(ctx, s, d, o, a); !ok {
		return authorize.ErrForbidden
	}
	return nil
}

func (f *FakeAuthz) AddRoleForUserInDomain(context.Context, authorize.GroupSubject, authorize.Role, authorize.Domain) (bool, error) {
	return true, nil
}

func (f *FakeAuthz) RemoveRoleForUserInDomain(context.Context, authorize.GroupSubject, authorize.Role, authorize.Domain) (bool, error) {
	return true, nil
}

func (f *FakeAuthz) GetRolesForUserInDomain(context.Context, authorize.GroupSubject, authorize.Domain) ([]authorize.Role, error) {
	return nil, nil
}

func (f *FakeAuthz) ReplaceRoleInDomain(_ context.Context, s authorize.GroupSubject, r authorize.Role, d authorize.Domain) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Grants = append(f.Grants, RoleGrant{Subject: s, Role: r, Domain: d})
	return nil
}

func (f *FakeAuthz) AddPermission(context.Context, authorize.Role, authorize.Domain, authorize.Resource, authorize.Action, authorize.PolicyEffect) (bool, error) {
	return true, nil
}

func (f *FakeAuthz) RemovePermission(context.Context, authorize.Role, authorize.Domain, authorize.Resource, authorize.Action, authorize.PolicyEffect) (bool, error) {
	return true, nil
}
