package patient

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/carevisit_backend/internal/testutil"
	"github.com/Alijeyrad/carevisit_backend/pkg/crypto"
	"github.com/Alijeyrad/carevisit_backend/pkg/phone"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestService(t *testing.T) (*patientService, sqlmock.Sqlmock, *crypto.FieldCipher) {
	t.Helper()
	db, mock := testutil.NewGormMock(t)
	cipher, err := crypto.NewFieldCipher(testKey)
	require.NoError(t, err)
	svc := New(db, cipher, phone.New("JP")).(*patientService)
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }
	return svc, mock, cipher
}

func TestCreateEncryptsInsuranceNumber(t *testing.T) {
	svc, mock, cipher := newTestService(t)
	org := uuid.New()
	fac := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "facilities"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`INSERT INTO "patients"`).WillReturnResult(sqlmock.NewResult(0, 1))

	p, err := svc.Create(context.Background(), testutil.MemberScope(org, "staff"), CreateRequest{
		FacilityID:      &fac,
		Name:            "Yamada Taro",
		NameKana:        "ヤマダ タロウ",
		InsuranceNumber: " 12345678 ",
		Phone:           "03-1234-5678",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "12345678", p.InsuranceNumber)
	assert.NotEmpty(t, p.InsuranceNumberEnc)
	assert.NotContains(t, p.InsuranceNumberEnc, "12345678")
	plain, err := cipher.Open(p.InsuranceNumberEnc)
	require.NoError(t, err)
	assert.Equal(t, "12345678", plain)

	assert.Equal(t, "unknown", string(p.Gender))
	assert.Equal(t, "+81312345678", p.Phone)
}

func TestCreateRejectsForeignFacility(t *testing.T) {
	svc, mock, _ := newTestService(t)
	fac := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "facilities"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := svc.Create(context.Background(), testutil.MemberScope(uuid.New(), "admin"), CreateRequest{
		FacilityID: &fac, Name: "Suzuki",
	})
	assert.ErrorIs(t, err, ErrFacilityNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	scope := testutil.MemberScope(uuid.New(), "admin")
	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"name", CreateRequest{Name: " "}, ErrNameRequired},
		{"gender", CreateRequest{Name: "A", Gender: "robot"}, ErrInvalidGender},
		{"birth date", CreateRequest{Name: "A", BirthDate: &future}, ErrInvalidBirthDate},
		{"phone", CreateRequest{Name: "A", Phone: "12"}, ErrInvalidPhone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), scope, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetDecrypts(t *testing.T) {
	svc, mock, cipher := newTestService(t)
	org := uuid.New()
	id := uuid.New()
	enc, err := cipher.Seal("987654")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "patients" WHERE patients.organization_id = \$1 AND patients.id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "name", "gender", "insurance_number_enc", "is_active"}).
			AddRow(id.String(), org.String(), "Sato", "female", enc, true))

	p, err := svc.Get(context.Background(), testutil.MemberScope(org, "viewer"), id)
	require.NoError(t, err)
	assert.Equal(t, "987654", p.InsuranceNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAttachesFacilities(t *testing.T) {
	svc, mock, _ := newTestService(t)
	org := uuid.New()
	fac := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "patients"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT \* FROM "patients" .*ORDER BY patients.name_kana ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "facility_id", "name"}).
			AddRow(uuid.New().String(), org.String(), fac.String(), "Ito").
			AddRow(uuid.New().String(), org.String(), nil, "Kato"))
	mock.ExpectQuery(`SELECT \* FROM "facilities" WHERE id IN`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "name"}).
			AddRow(fac.String(), org.String(), "Green Hills"))

	res, err := svc.List(context.Background(), testutil.MemberScope(org, "staff"), ListRequest{Search: "to"})
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	require.NotNil(t, res.Data[0].Facility)
	assert.Equal(t, "Green Hills", res.Data[0].Facility.Name)
	assert.Nil(t, res.Data[1].Facility)
	assert.NoError(t, mock.ExpectationsWereMet())
}
