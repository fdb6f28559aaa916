package tenant_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/carevisit_backend/internal/schema"
	. "github.com/Alijeyrad/carevisit_backend/internal/tenant"
	"github.com/Alijeyrad/carevisit_backend/internal/testutil"
	"github.com/Alijeyrad/carevisit_backend/pkg/reqctx"
)

func staff(org uuid.UUID) *reqctx.Principal {
	return &reqctx.Principal{UserID: uuid.New(), OrganizationID: &org, Role: "staff"}
}

func superAdmin() *reqctx.Principal {
	return &reqctx.Principal{UserID: uuid.New(), Role: "super_admin"}
}

func TestCurrentOrganization(t *testing.T) {
	orgA, orgB := uuid.New(), uuid.New()

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := CurrentOrganization(nil, nil)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("member gets own organization", func(t *testing.T) {
		got, err := CurrentOrganization(staff(orgA), nil)
		require.NoError(t, err)
		assert.Equal(t, orgA, *got)
	})

	t.Run("member may name own organization", func(t *testing.T) {
		got, err := CurrentOrganization(staff(orgA), &orgA)
		require.NoError(t, err)
		assert.Equal(t, orgA, *got)
	})

	t.Run("member cannot select another organization", func(t *testing.T) {
		_, err := CurrentOrganization(staff(orgA), &orgB)
		assert.ErrorIs(t, err, ErrForeignOrganization)
	})

	t.Run("member without organization", func(t *testing.T) {
		_, err := CurrentOrganization(&reqctx.Principal{Role: "admin"}, nil)
		assert.ErrorIs(t, err, ErrOrganizationRequired)
	})

	t.Run("super admin without selection", func(t *testing.T) {
		got, err := CurrentOrganization(superAdmin(), nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("super admin selects any organization", func(t *testing.T) {
		got, err := CurrentOrganization(superAdmin(), &orgB)
		require.NoError(t, err)
		assert.Equal(t, orgB, *got)
	})
}

func TestRequireOrganization(t *testing.T) {
	s, err := Resolve(superAdmin(), nil)
	require.NoError(t, err)
	_, err = s.RequireOrganization()
	assert.ErrorIs(t, err, ErrOrganizationRequired)
	assert.True(t, s.Unrestricted())

	org := uuid.New()
	s, err = Resolve(staff(org), nil)
	require.NoError(t, err)
	got, err := s.RequireOrganization()
	require.NoError(t, err)
	assert.Equal(t, org, got)
	assert.False(t, s.Unrestricted())
}

func TestAllows(t *testing.T) {
	orgA, orgB := uuid.New(), uuid.New()
	member, _ := Resolve(staff(orgA), nil)
	assert.True(t, member.Allows(orgA))
	assert.False(t, member.Allows(orgB))

	root, _ := Resolve(superAdmin(), nil)
	assert.True(t, root.Allows(orgB))

	pinned, _ := Resolve(superAdmin(), &orgA)
	assert.False(t, pinned.Allows(orgB))
}

func TestApplyAddsOrganizationFilter(t *testing.T) {
	org := uuid.New()
	member, _ := Resolve(staff(org), nil)

	stmt := testutil.DryRun(t).Scopes(member.Filter("")).Find(&[]schema.Patient{}).Statement
	assert.Contains(t, stmt.SQL.String(), "organization_id = $1")
	require.Len(t, stmt.Vars, 1)
	assert.Equal(t, org, stmt.Vars[0])

	stmt = testutil.DryRun(t).Scopes(member.Filter("events.organization_id")).Find(&[]schema.Event{}).Statement
	assert.Contains(t, stmt.SQL.String(), "events.organization_id = $1")
}

func TestApplySuperAdminIsUnfiltered(t *testing.T) {
	root, _ := Resolve(superAdmin(), nil)
	stmt := testutil.DryRun(t).Scopes(root.Filter("")).Find(&[]schema.Patient{}).Statement
	assert.NotContains(t, stmt.SQL.String(), "organization_id")
}

func TestContextRoundTrip(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	s, _ := Resolve(superAdmin(), nil)
	got, err := FromContext(WithScope(context.Background(), s))
	require.NoError(t, err)
	assert.Equal(t, s.Principal, got.Principal)
}
