package system

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/carevisit_backend/config"
	"github.com/Alijeyrad/carevisit_backend/internal/service/user"
	"github.com/Alijeyrad/carevisit_backend/pkg/authorize"
	"github.com/Alijeyrad/carevisit_backend/pkg/database"
	"github.com/Alijeyrad/carevisit_backend/pkg/email"
	"github.com/Alijeyrad/carevisit_backend/pkg/util/password"
)

func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations, seed casbin policies and sync user roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout(cfg))
			defer cancel()

			// client db
			fmt.Println("Running Migrations For Client DB.")
			db, err := database.NewGormDB(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close(db)

			if err := database.Migrate(ctx, db); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			// casbin db
			fmt.Println("Running Migrations For Casbin DB.")
			auth, cleanup, err := openAuthorization(cfg)
			if err != nil {
				return err
			}
			defer cleanup(context.Background())

			slog.Info("Seeding Casbin policies...")
			if err := authorize.SeedDefaultPolicies(ctx, auth); err != nil {
				return fmt.Errorf("failed to seed policies: %w", err)
			}

			mailer, err := email.NewFromCentral(cfg.Email)
			if err != nil {
				return fmt.Errorf("failed to create email client: %w", err)
			}
			users := user.New(db, auth, password.NewHasher(password.FromCentralConfig(cfg.Password)), mailer, cfg)
			n, err := users.SyncRoles(ctx)
			if err != nil {
				return fmt.Errorf("failed to sync user roles: %w", err)
			}
			slog.Info("user roles synced", "users", n)

			fmt.Println("Migrations executed successfully.")
			return nil
		},
	}

	return cmd
}

func readConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return cfg, nil
}

func commandTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.TimeoutSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(cfg.Server.TimeoutSeconds) * time.Second
}

// openAuthorization builds the casbin enforcer without audit logging.
func openAuthorization(cfg *config.Config) (authorize.IAuthorization, authorize.CleanupFunc, error) {
	acfg := authorize.FromCentralConfig(cfg.Authorization)
	// Policy changes made here reach running servers through the watcher, not
	// the other way round.
	acfg.PolicySyncEnabled = false
	enforcer, cleanup, err := authorize.NewEnforcer(acfg, database.NewDSN(cfg.CasbinDatabase))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create enforcer: %w", err)
	}
	auth, err := authorize.NewAuthorization(enforcer, acfg.SuperadminBypass)
	if err != nil {
		cleanup(context.Background())
		return nil, nil, fmt.Errorf("failed to create authorization: %w", err)
	}
	return auth, cleanup, nil
}
