// Package icsfeed issues calendar subscription tokens and renders the
// organization-wide and personal ICS feeds they unlock.
package icsfeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Alijeyrad/carevisit_backend/config"
	"github.com/Alijeyrad/carevisit_backend/internal/schema"
	"github.com/Alijeyrad/carevisit_backend/internal/service/event"
	"github.com/Alijeyrad/carevisit_backend/internal/tenant"
	"github.com/Alijeyrad/carevisit_backend/pkg/crypto"
	"github.com/Alijeyrad/carevisit_backend/pkg/ical"
	"github.com/Alijeyrad/carevisit_backend/pkg/util/codes"
)

const (
	maxLabelLength = 100
	cachePrefix    = "ics:feed:"
)

type CreateRequest struct {
	Kind  schema.IcsTokenKind
	Label string
}

// Created carries the plain token. It is returned once and never stored.
type Created struct {
	schema.IcsToken
	Token string `json:"token"`
}

type Service interface {
	Create(ctx context.Context, scope tenant.Scope, req CreateRequest) (*Created, error)
	List(ctx context.Context, scope tenant.Scope) ([]schema.IcsToken, error)
	Revoke(ctx context.Context, scope tenant.Scope, id uuid.UUID) error

	// Feed renders the calendar unlocked by token. The body is cached per token.
	Feed(ctx context.Context, kind schema.IcsTokenKind, token string) (string, error)
}

type feedService struct {
	db       *gorm.DB
	rdb      redis.UniversalClient
	codes    codes.Config
	ics      config.ICSConfig
	domain   string
	loc      *time.Location
	cacheTTL time.Duration
	now      func() time.Time
}

// New builds the service. rdb may be nil, which disables feed caching.
func New(db *gorm.DB, rdb redis.UniversalClient, cfg *config.Config) Service {
	return newService(db, rdb, cfg)
}

func newService(db *gorm.DB, rdb redis.UniversalClient, cfg *config.Config) *feedService {
	ics := cfg.ICS
	if ics.PastDays <= 0 {
		ics.PastDays = 30
	}
	if ics.FutureDays <= 0 {
		ics.FutureDays = 180
	}
	ttl := time.Duration(ics.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &feedService{
		db:       db,
		rdb:      rdb,
		codes:    codes.FromCentralConfig(cfg.Codes),
		ics:      ics,
		domain:   cfg.Server.Domain,
		loc:      cfg.Scheduling.Location(),
		cacheTTL: ttl,
		now:      time.Now,
	}
}

// ---------------------------------------------------------------------------
// Tokens
// ---------------------------------------------------------------------------

// Create issues a token. Personal tokens are bound to the caller; organization
// tokens need an admin.
func (s *feedService) Create(ctx context.Context, scope tenant.Scope, req CreateRequest) (*Created, error) {
	orgID, err := scope.RequireOrganization()
	if err != nil {
		return nil, err
	}
	if !req.Kind.IsValid() {
		return nil, ErrInvalidKind
	}
	label := strings.TrimSpace(req.Label)
	if utf8.RuneCountInString(label) > maxLabelLength {
		return nil, ErrLabelTooLong
	}

	tok := &schema.IcsToken{Kind: req.Kind, Label: label}
	tok.OrganizationID = orgID
	tok.IsActive = true
	switch req.Kind {
	case schema.IcsTokenOrganization:
		if !isAdmin(scope) {
			return nil, ErrForbidden
		}
	case schema.IcsTokenPersonal:
		if scope.Principal == nil {
			return nil, ErrForbidden
		}
		uid := scope.Principal.UserID
		tok.UserID = &uid
	}

	plain, err := codes.GenerateFeedToken(s.codes)
	if err != nil {
		return nil, fmt.Errorf("generate feed token: %w", err)
	}
	tok.TokenHash = crypto.Hash(plain)
	tok.TokenHint = codes.Hint(plain)

	if err := s.db.WithContext(ctx).Create(tok).Error; err != nil {
		return nil, fmt.Errorf("create feed token: %w", err)
	}
	return &Created{IcsToken: *tok, Token: plain}, nil
}

// List returns active tokens. Admins see the whole organization, everyone else
// only their own personal tokens.
func (s *feedService) List(ctx context.Context, scope tenant.Scope) ([]schema.IcsToken, error) {
	q := scope.Apply(s.db.WithContext(ctx), "").Where("is_active = ?", true)
	if !isAdmin(scope) {
		q = q.Where("user_id = ?", scope.Principal.UserID)
	}
	var toks []schema.IcsToken
	if err := q.Order("created_at DESC").Find(&toks).Error; err != nil {
		return nil, fmt.Errorf("list feed tokens: %w", err)
	}
	return toks, nil
}

func (s *feedService) Revoke(ctx context.Context, scope tenant.Scope, id uuid.UUID) error {
	var tok schema.IcsToken
	err := scope.Apply(s.db.WithContext(ctx), "").
		Where("id = ? AND is_active = ?", id, true).
		Take(&tok).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTokenNotFound
	}
	if err != nil {
		return fmt.Errorf("get feed token: %w", err)
	}
	if !isAdmin(scope) && (tok.UserID == nil || *tok.UserID != scope.Principal.UserID) {
		return ErrTokenNotFound
	}

	if err := s.db.WithContext(ctx).Model(&tok).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("revoke feed token: %w", err)
	}
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, feedCacheKey(tok.Kind, tok.TokenHash)).Err(); err != nil {
			slog.Warn("icsfeed: drop cached feed failed", "token_id", tok.ID, "err", err)
		}
	}
	return nil
}

// feedCacheKey includes the kind so a token never answers on the other
// feed path from cache.
func feedCacheKey(kind schema.IcsTokenKind, hash string) string {
	return cachePrefix + string(kind) + ":" + hash
}

func isAdmin(scope tenant.Scope) bool {
	p := scope.Principal
	return p != nil && (p.IsSuperAdmin() || p.Role == string(schema.RoleAdmin))
}

// ---------------------------------------------------------------------------
// Feeds
// ---------------------------------------------------------------------------

func (s *feedService) Feed(ctx context.Context, kind schema.IcsTokenKind, token string) (string, error) {
	if !kind.IsValid() || token == "" {
		return "", ErrFeedNotFound
	}
	hash := crypto.Hash(token)
	key := feedCacheKey(kind, hash)

	if s.rdb != nil {
		body, err := s.rdb.Get(ctx, key).Result()
		if err == nil {
			return body, nil
		}
		if !errors.Is(err, redis.Nil) {
			slog.Warn("icsfeed: cache read failed", "err", err)
		}
	}

	var tok schema.IcsToken
	err := s.db.WithContext(ctx).
		Where("token_hash = ? AND kind = ? AND is_active = ?", hash, kind, true).
		Take(&tok).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrFeedNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get feed token: %w", err)
	}

	body, err := s.render(ctx, &tok)
	if err != nil {
		return "", err
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, key, body, s.cacheTTL).Err(); err != nil {
			slog.Warn("icsfeed: cache write failed", "err", err)
		}
	}
	err = s.db.WithContext(ctx).Model(&schema.IcsToken{}).
		Where("id = ?", tok.ID).
		UpdateColumn("last_used_at", s.now()).Error
	if err != nil {
		slog.Warn("icsfeed: touch token failed", "token_id", tok.ID, "err", err)
	}
	return body, nil
}

// window is the range of events a feed covers: today minus PastDays through
// the end of today plus FutureDays, in the scheduling time zone.
func (s *feedService) window(now time.Time) (time.Time, time.Time) {
	y, m, d := now.In(s.loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	return today.AddDate(0, 0, -s.ics.PastDays), today.AddDate(0, 0, s.ics.FutureDays+1)
}

func (s *feedService) render(ctx context.Context, tok *schema.IcsToken) (string, error) {
	var org schema.Organization
	err := s.db.WithContext(ctx).Select("id", "name", "is_active").Take(&org, "id = ?", tok.OrganizationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !org.IsActive) {
		return "", ErrFeedNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get organization: %w", err)
	}

	name := s.ics.CalendarName
	if org.Name != "" {
		name = strings.TrimSpace(name + " " + org.Name)
	}

	now := s.now()
	from, to := s.window(now)
	q := s.db.WithContext(ctx).
		Preload("Patient.Facility").Preload("Facility").
		Where("organization_id = ? AND is_active = ?", tok.OrganizationID, true).
		Where("start_at < ? AND end_at >= ?", to, from)

	if tok.Kind == schema.IcsTokenPersonal {
		if tok.UserID == nil {
			return "", ErrFeedNotFound
		}
		var u schema.User
		err := s.db.WithContext(ctx).Select("id", "name", "is_active").Take(&u, "id = ?", *tok.UserID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !u.IsActive) {
			return "", ErrFeedNotFound
		}
		if err != nil {
			return "", fmt.Errorf("get user: %w", err)
		}
		q = q.Where("assignee_id = ?", u.ID)
		name = strings.TrimSpace(name + " (" + u.Name + ")")
	}

	var events []schema.Event
	if err := q.Order("start_at ASC, id ASC").Find(&events).Error; err != nil {
		return "", fmt.Errorf("list feed events: %w", err)
	}

	feed := ical.Feed{
		Name:            name,
		Domain:          s.domain,
		Location:        s.loc,
		RefreshInterval: s.cacheTTL,
		Entries:         make([]ical.Entry, 0, len(events)),
	}
	for i := range events {
		feed.Entries = append(feed.Entries, entry(&events[i]))
	}
	return ical.Encode(feed, now), nil
}

func entry(ev *schema.Event) ical.Entry {
	e := ical.Entry{
		ID:         ev.ID.String(),
		Summary:    event.TypeLabel(ev.Type) + ": " + event.DisplayName(ev),
		Start:      ev.StartAt,
		End:        ev.EndAt,
		AllDay:     ev.AllDay,
		Updated:    ev.UpdatedAt,
		Categories: []string{string(ev.Type)},
	}

	var desc []string
	if ev.Title != "" && ev.Title != event.DisplayName(ev) {
		desc = append(desc, ev.Title)
	}
	if ev.Notes != "" {
		desc = append(desc, ev.Notes)
	}
	e.Description = strings.Join(desc, "\n")

	if f := ev.FacilityRef(); f != nil && f.Address != "" {
		e.Location = f.Address
	} else if ev.Patient != nil {
		e.Location = ev.Patient.Address
	}
	return e
}
