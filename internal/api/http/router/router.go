package router

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/Alijeyrad/carevisit_backend/config"
	"github.com/Alijeyrad/carevisit_backend/internal/api/http/handler"
	"github.com/Alijeyrad/carevisit_backend/internal/api/http/middleware"
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
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg             *config.Config
	Redis           *redis.Client
	Auth            authorize.IAuthorization
	DB              *gorm.DB
	AuthSvc         auth.Service
	OrganizationSvc organization.Service
	UserSvc         user.Service
	FacilitySvc     facility.Service
	PatientSvc      patient.Service
	EventSvc        event.Service
	SummarySvc      summary.Service
	DocumentSvc     document.Service
	ReminderSvc     reminder.Service
	IcsSvc          icsfeed.Service
	ExportSvc       export.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

// permFunc builds a casbin check for one resource and action.
type permFunc func(authorize.Resource, authorize.Action) fiber.Handler

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Middlewares
	authRequired := middleware.AuthRequired(r.p.AuthSvc)
	tenantCtx := middleware.Tenant()
	superAdmin := middleware.RequireSuperAdmin()
	authLimiter := middleware.NewAuthLimiter(r.p.Redis)

	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	// 3. Handlers
	loc := r.p.Cfg.Scheduling.Location()
	authH := handler.NewAuthHandler(r.p.AuthSvc)
	orgH := handler.NewOrganizationHandler(r.p.OrganizationSvc)
	userH := handler.NewUserHandler(r.p.UserSvc)
	facilityH := handler.NewFacilityHandler(r.p.FacilitySvc)
	patientH := handler.NewPatientHandler(r.p.PatientSvc, loc)
	summaryH := handler.NewSummaryHandler(r.p.SummarySvc)
	documentH := handler.NewDocumentHandler(r.p.DocumentSvc)
	eventH := handler.NewEventHandler(r.p.EventSvc, loc)
	reminderH := handler.NewReminderHandler(r.p.ReminderSvc, loc)
	icsH := handler.NewIcsHandler(r.p.IcsSvc)
	exportH := handler.NewExportHandler(r.p.ExportSvc, loc)

	api := app.Group("/api/v1")
	scoped := func(prefix string) fiber.Router {
		return api.Group(prefix, authRequired, tenantCtx)
	}

	// 4. Delegate to sub-files
	r.registerAuthRoutes(api, authH, authRequired, authLimiter)
	r.registerOrganizationRoutes(api, orgH, authRequired, tenantCtx, superAdmin, requirePerm)
	r.registerUserRoutes(scoped("/users"), userH, requirePerm)
	r.registerFacilityRoutes(scoped("/facilities"), facilityH, requirePerm)
	r.registerPatientRoutes(scoped("/patients"), patientH, summaryH, documentH, requirePerm)
	r.registerEventRoutes(scoped("/events"), eventH, requirePerm)
	r.registerReminderRoutes(api, reminderH, authRequired, tenantCtx, requirePerm)
	r.registerIcsRoutes(app, scoped("/ics-tokens"), icsH, requirePerm)
	r.registerExportRoutes(app.Group("/api/exports", authRequired, tenantCtx), exportH, requirePerm)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	readiness := healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool { return r.ready(c.Context()) },
	})
	app.Get("/health/live", healthcheck.New())
	app.Get("/health/ready", readiness)
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, readiness)

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}

// ready reports whether the database, Redis and the casbin policy are usable.
func (r *Router) ready(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if !authorize.IsPolicyHealthy() {
		return false
	}
	if r.p.DB != nil {
		sqlDB, err := r.p.DB.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			return false
		}
	}
	if r.p.Redis != nil && r.p.Redis.Ping(ctx).Err() != nil {
		return false
	}
	return true
}
