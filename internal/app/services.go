package app

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/Alijeyrad/carevisit_backend/config"
	"github.com/Alijeyrad/carevisit_backend/internal/service/auth"
	"github.com/Alijeyrad/carevisit_backend/internal/service/document"
	"github.com/Alijeyrad/carevisit_backend/internal/service/event"
	"github.com/Alijeyrad/carevisit_backend/internal/service/export"
	"github.com/Alijeyrad/carevisit_backend/internal/service/facility"
	"github.com/Alijeyrad/carevisit_backend/internal/service/icsfeed"
	"github.com/Alijeyrad/carevisit_backend/internal/service/organization"
	"github.com/Alijeyrad/carevisit_backend/internal/service/patient"
	"github.com/Alijeyrad/carevisit_backend/internal/service/reminder"
	"github.com/Alijeyrad/carevisit_backend/internal/service/summary"
	"github.com/Alijeyrad/carevisit_backend/internal/service/user"
	"github.com/Alijeyrad/carevisit_backend/pkg/authorize"
	"github.com/Alijeyrad/carevisit_backend/pkg/crypto"
	"github.com/Alijeyrad/carevisit_backend/pkg/email"
	pasetotoken "github.com/Alijeyrad/carevisit_backend/pkg/paseto"
	"github.com/Alijeyrad/carevisit_backend/pkg/pdf"
	"github.com/Alijeyrad/carevisit_backend/pkg/phone"
	s3pkg "github.com/Alijeyrad/carevisit_backend/pkg/s3"
	"github.com/Alijeyrad/carevisit_backend/pkg/util/password"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvidePasetoManager,
		ProvideHasher,
		ProvidePhoneNormalizer,
		ProvideFieldCipher,
		ProvidePDFRenderer,
		ProvideAuthService,
		ProvideOrganizationService,
		ProvideUserService,
		ProvideFacilityService,
		ProvidePatientService,
		ProvideEventService,
		ProvideSummaryService,
		ProvideDocumentService,
		ProvideReminderService,
		ProvideIcsService,
		ProvideExportService,
	),
)

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}

func ProvideHasher(cfg *config.Config) *password.Hasher {
	return password.NewHasher(password.FromCentralConfig(cfg.Password))
}

func ProvidePhoneNormalizer(cfg *config.Config) *phone.Normalizer {
	return phone.FromCentralConfig(cfg.Phone)
}

func ProvideFieldCipher(cfg *config.Config) (*crypto.FieldCipher, error) {
	return crypto.NewFieldCipher(cfg.Authentication.EncryptionKey)
}

func ProvidePDFRenderer(cfg *config.Config) *pdf.Renderer {
	return pdf.FromCentralConfig(cfg)
}

func ProvideAuthService(
	db *gorm.DB,
	rdb *redis.Client,
	mailer email.Sender,
	paseto *pasetotoken.Manager,
	hasher *password.Hasher,
	cfg *config.Config,
) auth.Service {
	return auth.New(db, rdb, mailer, paseto, hasher, cfg)
}

func ProvideOrganizationService(db *gorm.DB, authz authorize.IAuthorization, hasher *password.Hasher, phones *phone.Normalizer) organization.Service {
	return organization.New(db, authz, hasher, phones)
}

func ProvideUserService(db *gorm.DB, authz authorize.IAuthorization, hasher *password.Hasher, mailer email.Sender, cfg *config.Config) user.Service {
	return user.New(db, authz, hasher, mailer, cfg)
}

func ProvideFacilityService(db *gorm.DB, phones *phone.Normalizer) facility.Service {
	return facility.New(db, phones)
}

func ProvidePatientService(db *gorm.DB, cipher *crypto.FieldCipher, phones *phone.Normalizer) patient.Service {
	return patient.New(db, cipher, phones)
}

func ProvideEventService(db *gorm.DB, cfg *config.Config) event.Service {
	return event.New(db, cfg.Scheduling)
}

func ProvideSummaryService(db *gorm.DB) summary.Service {
	return summary.New(db)
}

func ProvideDocumentService(db *gorm.DB, storage s3pkg.Storage, cfg *config.Config) document.Service {
	return document.New(db, storage, cfg.Documents)
}

func ProvideReminderService(db *gorm.DB) reminder.Service {
	return reminder.New(db)
}

func ProvideIcsService(db *gorm.DB, rdb *redis.Client, cfg *config.Config) icsfeed.Service {
	return icsfeed.New(db, rdb, cfg)
}

func ProvideExportService(
	events event.Service,
	patients patient.Service,
	summaries summary.Service,
	orgs organization.Service,
	renderer *pdf.Renderer,
) export.Service {
	return export.New(events, patients, summaries, orgs, renderer)
}
