package auth

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/carevisit_backend/config"
	"github.com/Alijeyrad/carevisit_backend/internal/schema"
	"github.com/Alijeyrad/carevisit_backend/internal/testutil"
	pasetotoken "github.com/Alijeyrad/carevisit_backend/pkg/paseto"
)

type fixture struct {
	svc    Service
	mock   sqlmock.Sqlmock
	mailer *testutil.FakeMailer
	tokens *pasetotoken.Manager
	hash   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	rdb := testutil.Redis(t)
	db, mock := testutil.NewGormMock(t)
	keys := pasetotoken.NewLocalKeys()
	pm, err := pasetotoken.New(pasetotoken.Config{
		Mode: keys.Mode, Issuer: "carevisit", Audience: "carevisit-api",
		AccessTTL: time.Minute, RefreshTTL: time.Hour,
	}, keys)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Authentication.MaxLoginAttempts = 3
	cfg.Authentication.LockoutMinutes = 15
	cfg.Authentication.Paseto.AccessTTLMinutes = 1
	cfg.Authentication.Paseto.RefreshTTLDays = 1
	cfg.OTP.DefaultLength = 6

	hasher := testutil.FastHasher()
	hash, err := hasher.Hash("secret1")
	require.NoError(t, err)

	mailer := &testutil.FakeMailer{}
	return fixture{
		svc:    New(db, rdb, mailer, pm, hasher, cfg),
		mock:   mock,
		mailer: mailer,
		tokens: pm,
		hash:   hash,
	}
}

func (f fixture) expectUser(id, org uuid.UUID, active, orgActive bool) {
	f.mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "email", "name", "password_hash", "role", "is_active"}).
			AddRow(id.String(), org.String(), "nurse@sakura.test", "Nurse", f.hash, "staff", active))
	f.mock.ExpectQuery(`SELECT \* FROM "organizations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "is_active"}).AddRow(org.String(), "Sakura", orgActive))
}

func TestLoginIssuesSessionUsableForAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, org := uuid.New(), uuid.New()

	f.expectUser(id, org, true, true)
	f.mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 1))

	tokens, err := f.svc.Login(ctx, LoginRequest{Email: " Nurse@Sakura.test ", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEqual(t, tokens.AccessToken, tokens.RefreshToken)
	assert.EqualValues(t, 60, tokens.ExpiresIn)

	f.expectUser(id, org, true, true)
	p, claims, err := f.svc.Authenticate(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, p.UserID)
	assert.Equal(t, "staff", p.Role)
	require.NotNil(t, p.OrganizationID)
	assert.Equal(t, org, *p.OrganizationID)

	// refresh tokens are not access tokens
	_, _, err = f.svc.Authenticate(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, f.svc.Logout(ctx, *claims.SessionID))
	_, _, err = f.svc.Authenticate(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, org := uuid.New(), uuid.New()

	for i := 0; i < 3; i++ {
		f.expectUser(id, org, true, true)
		_, err := f.svc.Login(ctx, LoginRequest{Email: "nurse@sakura.test", Password: "wrong-pass"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// locked before touching the database, even with the right password
	_, err := f.svc.Login(ctx, LoginRequest{Email: "nurse@sakura.test", Password: "secret1"})
	assert.ErrorIs(t, err, ErrAccountLocked)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestLoginRejectsInactiveOrganization(t *testing.T) {
	f := newFixture(t)
	f.expectUser(uuid.New(), uuid.New(), true, false)

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "nurse@sakura.test", Password: "secret1"})
	assert.ErrorIs(t, err, ErrOrganizationInactive)
}

func TestRefreshTokensRotatesPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, org := uuid.New(), uuid.New()

	f.expectUser(id, org, true, true)
	f.mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	first, err := f.svc.Login(ctx, LoginRequest{Email: "nurse@sakura.test", Password: "secret1"})
	require.NoError(t, err)
	before, err := f.tokens.Verify(first.RefreshToken)
	require.NoError(t, err)

	// access tokens cannot refresh
	_, err = f.svc.RefreshTokens(ctx, first.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	f.expectUser(id, org, true, true)
	next, err := f.svc.RefreshTokens(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, next.RefreshToken)
	assert.NotEqual(t, first.AccessToken, next.AccessToken)

	after, err := f.tokens.Verify(next.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, pasetotoken.TokenTypeRefresh, after.Type)
	assert.Equal(t, *before.SessionID, *after.SessionID)
	assert.NotEqual(t, before.TokenID, after.TokenID)
	assert.False(t, after.ExpiresAt.Before(before.ExpiresAt))

	f.expectUser(id, org, true, true)
	p, _, err := f.svc.Authenticate(ctx, next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, p.UserID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRefreshTokensDropsSessionOfDisabledUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, org := uuid.New(), uuid.New()

	f.expectUser(id, org, true, true)
	f.mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	tokens, err := f.svc.Login(ctx, LoginRequest{Email: "nurse@sakura.test", Password: "secret1"})
	require.NoError(t, err)

	f.expectUser(id, org, false, true)
	_, err = f.svc.RefreshTokens(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrAccountDisabled)

	_, err = f.svc.RefreshTokens(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, org := uuid.New(), uuid.New()

	f.expectUser(id, org, true, true)
	err := f.svc.ChangePassword(ctx, id, "not-it", "another1")
	assert.ErrorIs(t, err, ErrWrongPassword)

	f.expectUser(id, org, true, true)
	err = f.svc.ChangePassword(ctx, id, "secret1", "short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	f.expectUser(id, org, true, true)
	f.mock.ExpectExec(`UPDATE "users" SET "password_hash"`).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, f.svc.ChangePassword(ctx, id, "secret1", "another1"))

	f.expectUser(id, org, false, true)
	err = f.svc.ChangePassword(ctx, id, "secret1", "another1")
	assert.ErrorIs(t, err, ErrAccountDisabled)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

var reCode = regexp.MustCompile(`\b\d{6}\b`)

func TestForgotAndResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, org := uuid.New(), uuid.New()

	f.mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "email", "name", "is_active"}).
			AddRow(id.String(), org.String(), "nurse@sakura.test", "Nurse", true))
	require.NoError(t, f.svc.ForgotPassword(ctx, "nurse@sakura.test"))

	msgs := f.mailer.Messages()
	require.Len(t, msgs, 1)
	code := reCode.FindString(msgs[0].TextBody)
	require.NotEmpty(t, code)

	err := f.svc.ResetPassword(ctx, ResetPasswordRequest{Email: "nurse@sakura.test", Code: "000000x", NewPassword: "another1"})
	assert.ErrorIs(t, err, ErrOTPInvalid)

	err = f.svc.ResetPassword(ctx, ResetPasswordRequest{Email: "nurse@sakura.test", Code: code, NewPassword: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	f.mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "is_active"}).AddRow(id.String(), "nurse@sakura.test", true))
	f.mock.ExpectExec(`UPDATE "users" SET "password_hash"`).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, f.svc.ResetPassword(ctx, ResetPasswordRequest{Email: "nurse@sakura.test", Code: code, NewPassword: "another1"}))

	// the code is single use
	err = f.svc.ResetPassword(ctx, ResetPasswordRequest{Email: "nurse@sakura.test", Code: code, NewPassword: "another1"})
	assert.ErrorIs(t, err, ErrOTPExpired)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	require.NoError(t, f.svc.ForgotPassword(context.Background(), "ghost@sakura.test"))
	assert.Empty(t, f.mailer.Messages())
}

func TestCheckActive(t *testing.T) {
	org := &schema.Organization{}
	org.IsActive = true

	tests := []struct {
		name string
		user schema.User
		want error
	}{
		{"active member", schema.User{Role: schema.RoleStaff, Organization: org, SoftDelete: schema.SoftDelete{IsActive: true}}, nil},
		{"disabled", schema.User{Role: schema.RoleStaff, Organization: org}, ErrAccountDisabled},
		{"no organization", schema.User{Role: schema.RoleAdmin, SoftDelete: schema.SoftDelete{IsActive: true}}, ErrOrganizationInactive},
		{"super admin", schema.User{Role: schema.RoleSuperAdmin, SoftDelete: schema.SoftDelete{IsActive: true}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, checkActive(&tt.user), tt.want)
		})
	}
}
