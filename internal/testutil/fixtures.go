package testutil

import (
	"github.com/google/uuid"

	"github.com/Alijeyrad/carevisit_backend/internal/tenant"
	"github.com/Alijeyrad/carevisit_backend/pkg/reqctx"
	"github.com/Alijeyrad/carevisit_backend/pkg/util/password"
)

// FastHasher uses minimal argon2 parameters.
func FastHasher() *password.Hasher {
	return password.NewHasher(password.Config{
		MemoryKiB:   8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
		MinLength:   password.DefaultMinLength,
	})
}

// MemberScope is a resolved scope for a non-super-admin user of org.
func MemberScope(org uuid.UUID, role string) tenant.Scope {
	return tenant.Scope{
		Principal:      &reqctx.Principal{UserID: uuid.New(), OrganizationID: &org, Role: role},
		OrganizationID: &org,
	}
}

// SuperAdminScope is an unrestricted scope.
func SuperAdminScope() tenant.Scope {
	return tenant.Scope{Principal: &reqctx.Principal{UserID: uuid.New(), Role: "super_admin"}}
}
