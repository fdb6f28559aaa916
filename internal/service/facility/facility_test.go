package facility

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/carevisit_backend/internal/tenant"
	"github.com/Alijeyrad/carevisit_backend/internal/testutil"
	"github.com/Alijeyrad/carevisit_backend/pkg/phone"
)

func newTestService(t *testing.T) (Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := testutil.NewGormMock(t)
	return New(db, phone.New("JP")), mock
}

func TestCreateNormalizesPhone(t *testing.T) {
	svc, mock := newTestService(t)
	org := uuid.New()
	mock.ExpectExec(`INSERT INTO "facilities"`).WillReturnResult(sqlmock.NewResult(0, 1))

	f, err := svc.Create(context.Background(), testutil.MemberScope(org, "staff"), CreateRequest{
		Name: " Green Hills ", Phone: "090-1234-5678",
	})
	require.NoError(t, err)
	assert.Equal(t, "Green Hills", f.Name)
	assert.Equal(t, "+819012345678", f.Phone)
	assert.Equal(t, org, f.OrganizationID)
	assert.True(t, f.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateValidation(t *testing.T) {
	svc, mock := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, testutil.MemberScope(uuid.New(), "admin"), CreateRequest{Name: "  "})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.Create(ctx, testutil.MemberScope(uuid.New(), "admin"), CreateRequest{Name: "A", Phone: "1"})
	assert.ErrorIs(t, err, ErrInvalidPhone)

	_, err = svc.Create(ctx, testutil.SuperAdminScope(), CreateRequest{Name: "A"})
	assert.ErrorIs(t, err, tenant.ErrOrganizationRequired)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAppliesScopeAndActiveFilter(t *testing.T) {
	svc, mock := newTestService(t)
	org := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "facilities" WHERE organization_id = \$1 AND is_active = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "facilities" WHERE organization_id = \$1 AND is_active = \$2 ORDER BY name ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "name", "is_active"}).
			AddRow(uuid.New().String(), org.String(), "Green Hills", true))

	res, err := svc.List(context.Background(), testutil.MemberScope(org, "viewer"), ListRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "Green Hills", res.Data[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingRow(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectExec(`UPDATE "facilities" SET "is_active"=\$1`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.Delete(context.Background(), testutil.MemberScope(uuid.New(), "admin"), uuid.New())
	assert.ErrorIs(t, err, ErrFacilityNotFound)
}
