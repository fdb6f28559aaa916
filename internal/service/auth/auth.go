package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Alijeyrad/carevisit_backend/config"
	"github.com/Alijeyrad/carevisit_backend/internal/schema"
	"github.com/Alijeyrad/carevisit_backend/pkg/email"
	pasetotoken "github.com/Alijeyrad/carevisit_backend/pkg/paseto"
	"github.com/Alijeyrad/carevisit_backend/pkg/reqctx"
	"github.com/Alijeyrad/carevisit_backend/pkg/util/otp"
	"github.com/Alijeyrad/carevisit_backend/pkg/util/password"
)

const (
	maxOTPAttempts          = 5
	defaultMaxLoginAttempts = 5
	defaultLockout          = 15 * time.Minute
	defaultOTPTTL           = 10 * time.Minute
)

// redisKeySession returns the Redis key for a session.
func redisKeySession(sessionID string) string { return "session:" + sessionID }

// redisKeyLoginFail counts consecutive failed logins for an email.
func redisKeyLoginFail(email string) string { return "login:fail:" + email }

// redisKeyReset holds the password reset code hash.
func redisKeyReset(email string) string { return "pwreset:" + email }

func redisKeyResetAttempts(email string) string { return "pwreset:attempts:" + email }

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type LoginRequest struct {
	Email    string
	Password string
}

type ResetPasswordRequest struct {
	Email       string
	Code        string
	NewPassword string
}

type AuthTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds until access token expires
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	// Authenticate turns an access token into the request principal. The
	// session must still exist and the user and organization must be active.
	Authenticate(ctx context.Context, accessToken string) (*reqctx.Principal, *pasetotoken.Claims, error)
	Me(ctx context.Context, userID uuid.UUID) (*schema.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type authService struct {
	db     *gorm.DB
	rdb    redis.UniversalClient
	mailer email.Sender
	paseto *pasetotoken.Manager
	hasher *password.Hasher
	cfg    *config.Config
}

func New(
	db *gorm.DB,
	rdb redis.UniversalClient,
	mailer email.Sender,
	paseto *pasetotoken.Manager,
	hasher *password.Hasher,
	cfg *config.Config,
) Service {
	return &authService{
		db:     db,
		rdb:    rdb,
		mailer: mailer,
		paseto: paseto,
		hasher: hasher,
		cfg:    cfg,
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthTokens, error) {
	addr := schema.NormalizeEmail(req.Email)
	if addr == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	// Check lockout
	failKey := redisKeyLoginFail(addr)
	fails, err := s.rdb.Get(ctx, failKey).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis get login failures: %w", err)
	}
	if fails >= s.maxLoginAttempts() {
		return nil, ErrAccountLocked
	}

	var u schema.User
	err = s.db.WithContext(ctx).Preload("Organization").Where("email = ?", addr).Take(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.recordFailedLogin(ctx, addr)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := s.hasher.Verify(u.PasswordHash, req.Password); err != nil {
		s.recordFailedLogin(ctx, addr)
		return nil, ErrInvalidCredentials
	}
	if err := checkActive(&u); err != nil {
		return nil, err
	}

	// Reset failure counter
	s.rdb.Del(ctx, failKey)

	updates := map[string]any{"last_login_at": time.Now()}
	if s.hasher.NeedsRehash(u.PasswordHash) {
		if h, err := s.hasher.Hash(req.Password); err == nil {
			updates["password_hash"] = h
		}
	}
	if err := s.db.WithContext(ctx).Model(&schema.User{}).Where("id = ?", u.ID).Updates(updates).Error; err != nil {
		slog.Warn("failed to record login", "user_id", u.ID, "error", err)
	}

	return s.createSession(ctx, &u)
}

// ---------------------------------------------------------------------------
// RefreshTokens
// ---------------------------------------------------------------------------

func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.paseto.Verify(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Type != pasetotoken.TokenTypeRefresh || claims.SessionID == nil {
		return nil, ErrInvalidToken
	}

	sessionKey := redisKeySession(claims.SessionID.String())

	// Check session exists
	if err := s.rdb.Get(ctx, sessionKey).Err(); errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	} else if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	// a user deactivated since login must not keep refreshing
	if _, err := s.activeUser(ctx, claims.UserID); err != nil {
		s.rdb.Del(ctx, sessionKey)
		return nil, err
	}

	// Extend session TTL and rotate the pair so the refresh token expires with it
	if err := s.rdb.Expire(ctx, sessionKey, s.refreshTTL()).Err(); err != nil {
		return nil, fmt.Errorf("extend session: %w", err)
	}

	accessToken, err := s.paseto.IssueAccess(claims.UserID, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	newRefresh, err := s.paseto.IssueRefresh(claims.UserID, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresIn:    int64(s.accessTTL().Seconds()),
	}, nil
}

// ---------------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------------

func (s *authService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	deleted, err := s.rdb.Del(ctx, redisKeySession(sessionID.String())).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if deleted == 0 {
		// Session already expired, not an error from the client's perspective
		slog.Debug("logout: session not found in Redis (already expired)", "session_id", sessionID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Authenticate / Me
// ---------------------------------------------------------------------------

func (s *authService) Authenticate(ctx context.Context, accessToken string) (*reqctx.Principal, *pasetotoken.Claims, error) {
	claims, err := s.paseto.Verify(accessToken)
	if err != nil || claims.Type != pasetotoken.TokenTypeAccess || claims.SessionID == nil {
		return nil, nil, ErrInvalidToken
	}

	if err := s.rdb.Get(ctx, redisKeySession(claims.SessionID.String())).Err(); errors.Is(err, redis.Nil) {
		return nil, nil, ErrSessionNotFound
	} else if err != nil {
		return nil, nil, fmt.Errorf("redis get session: %w", err)
	}

	u, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	return &reqctx.Principal{
		UserID:         u.ID,
		OrganizationID: u.OrganizationID,
		Role:           string(u.Role),
		Email:          u.Email,
		Name:           u.Name,
	}, claims, nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*schema.User, error) {
	return s.activeUser(ctx, userID)
}

// ---------------------------------------------------------------------------
// Passwords
// ---------------------------------------------------------------------------

func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	u, err := s.activeUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.hasher.Verify(u.PasswordHash, oldPassword); err != nil {
		return ErrWrongPassword
	}
	return s.setPassword(ctx, u, newPassword)
}

// ForgotPassword emails a one-time code. Unknown or inactive accounts get the
// same nil result so the endpoint does not reveal which emails exist.
func (s *authService) ForgotPassword(ctx context.Context, addr string) error {
	addr = schema.NormalizeEmail(addr)
	var u schema.User
	err := s.db.WithContext(ctx).Where("email = ? AND is_active = ?", addr, true).Take(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}

	code, hash, err := otp.New(otp.FromCentralConfig(s.cfg.OTP))
	if err != nil {
		return fmt.Errorf("generate OTP: %w", err)
	}
	ttl := s.otpTTL()

	// Store hash
	if err := s.rdb.Set(ctx, redisKeyReset(addr), hash, ttl).Err(); err != nil {
		return fmt.Errorf("store OTP: %w", err)
	}
	// Reset attempts
	s.rdb.Set(ctx, redisKeyResetAttempts(addr), "0", ttl)

	msg := email.BuildPasswordResetEmail(email.PasswordResetData{
		Email:         u.Email,
		Name:          u.Name,
		Code:          code,
		ExpiryMinutes: int(ttl.Minutes()),
		AppName:       s.cfg.Email.AppName,
	})
	if err := s.mailer.Send(ctx, msg); err != nil {
		// Log but don't fail; the caller must not learn whether the address exists
		slog.Warn("failed to send password reset email", "user_id", u.ID, "error", err)
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	addr := schema.NormalizeEmail(req.Email)
	key := redisKeyReset(addr)
	attemptsKey := redisKeyResetAttempts(addr)

	hash, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrOTPExpired
	} else if err != nil {
		return fmt.Errorf("redis get OTP: %w", err)
	}

	attempts, err := s.rdb.Incr(ctx, attemptsKey).Result()
	if err != nil {
		return fmt.Errorf("redis incr OTP attempts: %w", err)
	}
	if attempts > maxOTPAttempts {
		s.rdb.Del(ctx, key, attemptsKey)
		return ErrOTPMaxAttempts
	}
	if err := otp.Verify(hash, req.Code); err != nil {
		return ErrOTPInvalid
	}

	// validate before burning the code so a short password can be retried
	if err := s.hasher.Validate(req.NewPassword); err != nil {
		return fmt.Errorf("%w: minimum %d characters", ErrPasswordTooShort, s.hasher.MinLength())
	}

	var u schema.User
	if err := s.db.WithContext(ctx).Where("email = ? AND is_active = ?", addr, true).Take(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOTPExpired
		}
		return fmt.Errorf("find user: %w", err)
	}
	if err := s.setPassword(ctx, &u, req.NewPassword); err != nil {
		return err
	}

	s.rdb.Del(ctx, key, attemptsKey, redisKeyLoginFail(addr))
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *authService) createSession(ctx context.Context, u *schema.User) (*AuthTokens, error) {
	sessionID := uuid.Must(uuid.NewV7())

	// Store in Redis
	sessionKey := redisKeySession(sessionID.String())
	if err := s.rdb.Set(ctx, sessionKey, u.ID.String(), s.refreshTTL()).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	// Issue tokens
	access, err := s.paseto.IssueAccess(u.ID, &sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.paseto.IssueRefresh(u.ID, &sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL().Seconds()),
	}, nil
}

func (s *authService) recordFailedLogin(ctx context.Context, addr string) {
	key := redisKeyLoginFail(addr)
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		slog.Warn("failed to record login failure", "error", err)
		return
	}
	if n == 1 || n >= int64(s.maxLoginAttempts()) {
		// the lock window starts at the first failure and restarts when the lock engages
		s.rdb.Expire(ctx, key, s.lockout())
	}
	if n == int64(s.maxLoginAttempts()) {
		slog.Warn("account locked after repeated login failures", "email", addr)
	}
}

func (s *authService) activeUser(ctx context.Context, id uuid.UUID) (*schema.User, error) {
	var u schema.User
	if err := s.db.WithContext(ctx).Preload("Organization").Take(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := checkActive(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *authService) setPassword(ctx context.Context, u *schema.User, pw string) error {
	hash, err := s.hasher.Hash(pw)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return fmt.Errorf("%w: minimum %d characters", ErrPasswordTooShort, s.hasher.MinLength())
		}
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&schema.User{}).Where("id = ?", u.ID).Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func checkActive(u *schema.User) error {
	if !u.IsActive {
		return ErrAccountDisabled
	}
	if u.Role != schema.RoleSuperAdmin && (u.Organization == nil || !u.Organization.IsActive) {
		return ErrOrganizationInactive
	}
	return nil
}

func (s *authService) maxLoginAttempts() int {
	if n := s.cfg.Authentication.MaxLoginAttempts; n > 0 {
		return n
	}
	return defaultMaxLoginAttempts
}

func (s *authService) lockout() time.Duration {
	if d := s.cfg.Authentication.Lockout(); d > 0 {
		return d
	}
	return defaultLockout
}

func (s *authService) otpTTL() time.Duration {
	if d := s.cfg.Authentication.OTPTTL(); d > 0 {
		return d
	}
	return defaultOTPTTL
}

func (s *authService) accessTTL() time.Duration {
	return time.Duration(s.cfg.Authentication.Paseto.AccessTTLMinutes) * time.Minute
}

func (s *authService) refreshTTL() time.Duration {
	return time.Duration(s.cfg.Authentication.Paseto.RefreshTTLDays) * 24 * time.Hour
}
