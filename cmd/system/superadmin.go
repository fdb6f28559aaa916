package system

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Alijeyrad/carevisit_backend/internal/schema"
	"github.com/Alijeyrad/carevisit_backend/internal/service/user"
	"github.com/Alijeyrad/carevisit_backend/internal/tenant"
	"github.com/Alijeyrad/carevisit_backend/pkg/database"
	"github.com/Alijeyrad/carevisit_backend/pkg/email"
	"github.com/Alijeyrad/carevisit_backend/pkg/reqctx"
	"github.com/Alijeyrad/carevisit_backend/pkg/util/password"
)

// NewCreateSuperAdminCommand bootstraps the first platform operator. The
// password is read from CAREVISIT_SUPERADMIN_PASSWORD when --password is empty.
func NewCreateSuperAdminCommand() *cobra.Command {
	var name, mail, pass string

	cmd := &cobra.Command{
		Use:   "create-superadmin",
		Short: "Create a super admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pass == "" {
				pass = os.Getenv("CAREVISIT_SUPERADMIN_PASSWORD")
			}
			if mail == "" || pass == "" {
				return errors.New("--email and a password are required")
			}

			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout(cfg))
			defer cancel()

			db, err := database.NewGormDB(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close(db)

			auth, cleanup, err := openAuthorization(cfg)
			if err != nil {
				return err
			}
			defer cleanup(context.Background())

			mailer, err := email.NewFromCentral(cfg.Email)
			if err != nil {
				return fmt.Errorf("failed to create email client: %w", err)
			}
			users := user.New(db, auth, password.NewHasher(password.FromCentralConfig(cfg.Password)), mailer, cfg)

			// The CLI acts as a synthetic super admin.
			scope := tenant.Scope{Principal: &reqctx.Principal{
				UserID: uuid.Nil,
				Role:   string(schema.RoleSuperAdmin),
				Name:   "cli",
			}}
			u, err := users.Create(ctx, scope, user.CreateRequest{
				Name:     name,
				Email:    mail,
				Password: pass,
				Role:     string(schema.RoleSuperAdmin),
			})
			if err != nil {
				return fmt.Errorf("failed to create super admin: %w", err)
			}

			fmt.Printf("Super admin %s created (id %s).\n", u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "Administrator", "Display name")
	cmd.Flags().StringVar(&mail, "email", "", "Login email")
	cmd.Flags().StringVar(&pass, "password", "", "Initial password")

	return cmd
}
