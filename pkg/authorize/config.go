package authorize

import "github.com/Alijeyrad/carevisit_backend/config"

// Config holds configuration for the authorization system
type Config struct {
	CasbinModelPath string

	// EnableAudit logs every authorization decision
	EnableAudit bool

	// SuperadminBypass lets sys super admins skip policy evaluation
	SuperadminBypass bool

	// PolicySyncEnabled subscribes to postgres NOTIFY for cross-instance policy reloads
	PolicySyncEnabled bool
}

func DefaultConfig() Config {
	return Config{
		CasbinModelPath:  "casbin_model.conf",
		EnableAudit:      true,
		SuperadminBypass: true,
	}
}

// FromCentralConfig converts central config.AuthorizationConfig to package Config
func FromCentralConfig(c config.AuthorizationConfig) Config {
	out := Config{
		CasbinModelPath:   c.CasbinModelPath,
		EnableAudit:       c.EnableAudit,
		SuperadminBypass:  c.SuperadminBypass,
		PolicySyncEnabled: c.PolicySyncEnabled,
	}
	if out.CasbinModelPath == "" {
		out.CasbinModelPath = DefaultConfig().CasbinModelPath
	}
	return out
}
