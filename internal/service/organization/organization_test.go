package organization

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/carevisit_backend/internal/testutil"
	"github.com/Alijeyrad/carevisit_backend/pkg/authorize"
	"github.com/Alijeyrad/carevisit_backend/pkg/phone"
)

func newTestService(t *testing.T) (Service, sqlmock.Sqlmock, *testutil.FakeAuthz) {
	t.Helper()
	db, mock := testutil.NewGormMock(t)
	authz := &testutil.FakeAuthz{}
	return New(db, authz, testutil.FastHasher(), phone.New("JP")), mock, authz
}

func validCreate() CreateRequest {
	return CreateRequest{
		Name:  "Sakura Home Care",
		Code:  "sakura",
		Phone: "03-1234-5678",
		Admin: AdminRequest{Name: "Admin", Email: "Admin@Sakura.test", Password: "secret1"},
	}
}

func countRows(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestCreateCommitsAllRowsThenAssignsRole(t *testing.T) {
	svc, mock, authz := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "organizations"`).WillReturnRows(countRows(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).WillReturnRows(countRows(0))
	mock.ExpectExec(`INSERT INTO "organizations"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "users"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "reminder_settings"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "+81312345678", res.Organization.Phone)
	assert.True(t, res.Organization.IsActive)
	assert.Equal(t, "admin@sakura.test", res.Admin.Email)
	require.NotNil(t, res.Admin.OrganizationID)
	assert.Equal(t, res.Organization.ID, *res.Admin.OrganizationID)
	assert.NotEqual(t, "secret1", res.Admin.PasswordHash)

	require.Len(t, authz.Grants, 1)
	assert.Equal(t, authorize.RoleOrgAdmin, authz.Grants[0].Role)
	assert.Equal(t, authorize.OrgDomain(res.Organization.ID.String()), authz.Grants[0].Domain)
}

func TestCreateRollsBackWhenAdminInsertFails(t *testing.T) {
	svc, mock, authz := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "organizations"`).WillReturnRows(countRows(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).WillReturnRows(countRows(0))
	mock.ExpectExec(`INSERT INTO "organizations"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "users"`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), validCreate())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create admin")
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, authz.Grants, "no role may be granted for a rolled back organization")
}

func TestCreateRejectsDuplicates(t *testing.T) {
	t.Run("code", func(t *testing.T) {
		svc, mock, _ := newTestService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT count\(\*\) FROM "organizations"`).WillReturnRows(countRows(1))
		mock.ExpectRollback()

		_, err := svc.Create(context.Background(), validCreate())
		assert.ErrorIs(t, err, ErrCodeExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("admin email", func(t *testing.T) {
		svc, mock, _ := newTestService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT count\(\*\) FROM "organizations"`).WillReturnRows(countRows(0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).WillReturnRows(countRows(1))
		mock.ExpectRollback()

		_, err := svc.Create(context.Background(), validCreate())
		assert.ErrorIs(t, err, ErrEmailExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateValidation(t *testing.T) {
	svc, mock, _ := newTestService(t)

	tests := []struct {
		name   string
		mutate func(*CreateRequest)
		want   error
	}{
		{"missing name", func(r *CreateRequest) { r.Name = " " }, ErrNameRequired},
		{"bad code", func(r *CreateRequest) { r.Code = "Bad Code!" }, ErrInvalidCode},
		{"bad phone", func(r *CreateRequest) { r.Phone = "12" }, ErrInvalidPhone},
		{"missing admin", func(r *CreateRequest) { r.Admin = AdminRequest{} }, ErrAdminRequired},
		{"bad admin email", func(r *CreateRequest) { r.Admin.Email = "nope" }, ErrInvalidEmail},
		{"short password", func(r *CreateRequest) { r.Admin.Password = "12345" }, ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate()
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet(), "validation must fail before touching the database")
}

func TestGetIsScoped(t *testing.T) {
	svc, mock, _ := newTestService(t)
	own, other := uuid.New(), uuid.New()

	_, err := svc.Get(context.Background(), testutil.MemberScope(own, "admin"), other)
	assert.ErrorIs(t, err, ErrOrganizationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCodeRequiresSuperAdmin(t *testing.T) {
	svc, mock, _ := newTestService(t)
	org := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "organizations" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code"}).AddRow(org.String(), "Sakura", "sakura"))

	code := "new-code"
	_, err := svc.Update(context.Background(), testutil.MemberScope(org, "admin"), org, UpdateRequest{Code: &code})
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.NoError(t, mock.ExpectationsWereMet())
}
