package summary

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/carevisit_backend/internal/service/page"
	"github.com/Alijeyrad/carevisit_backend/internal/testutil"
)

func patientRow(id, org uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "organization_id"}).AddRow(id.String(), org.String())
}

func TestUpsertArchivesPreviousContent(t *testing.T) {
	db, mock := testutil.NewGormMock(t)
	svc := New(db)
	org, patient, sum, prevEditor := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	scope := testutil.MemberScope(org, "staff")

	mock.ExpectQuery(`SELECT "id","organization_id" FROM "patients"`).WillReturnRows(patientRow(patient, org))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "patient_summaries" WHERE patient_id = \$1 LIMIT \$2 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "patient_id", "content", "updated_by_id"}).
			AddRow(sum.String(), org.String(), patient.String(), "old note", prevEditor.String()))
	mock.ExpectExec(`INSERT INTO "patient_summary_histories"`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), org.String(), sum.String(), patient.String(), "old note", prevEditor.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "patient_summaries" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	out, err := svc.Upsert(context.Background(), scope, patient, "new note")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, "new note", out.Content)
	require.NotNil(t, out.UpdatedByID)
	assert.Equal(t, scope.Principal.UserID, *out.UpdatedByID)
}

func TestUpsertCreatesFirstSummary(t *testing.T) {
	db, mock := testutil.NewGormMock(t)
	svc := New(db)
	org, patient := uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM "patients"`).WillReturnRows(patientRow(patient, org))
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM "patient_summaries"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`INSERT INTO "patient_summaries"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	out, err := svc.Upsert(context.Background(), testutil.MemberScope(org, "admin"), patient, "first")
	require.NoError(t, err)
	assert.Equal(t, org, out.OrganizationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRollsBackWhenArchiveFails(t *testing.T) {
	db, mock := testutil.NewGormMock(t)
	svc := New(db)
	org, patient := uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM "patients"`).WillReturnRows(patientRow(patient, org))
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM "patient_summaries"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "patient_id", "content"}).
			AddRow(uuid.New().String(), org.String(), patient.String(), "old"))
	mock.ExpectExec(`INSERT INTO "patient_summary_histories"`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := svc.Upsert(context.Background(), testutil.MemberScope(org, "admin"), patient, "new")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive summary")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertUnchangedContentWritesNothing(t *testing.T) {
	db, mock := testutil.NewGormMock(t)
	svc := New(db)
	org, patient := uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM "patients"`).WillReturnRows(patientRow(patient, org))
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM "patient_summaries"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "patient_id", "content"}).
			AddRow(uuid.New().String(), org.String(), patient.String(), "same"))
	mock.ExpectCommit()

	_, err := svc.Upsert(context.Background(), testutil.MemberScope(org, "admin"), patient, "same")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForeignPatientIsNotFound(t *testing.T) {
	db, mock := testutil.NewGormMock(t)
	svc := New(db)
	mock.ExpectQuery(`FROM "patients" WHERE organization_id = \$1`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.Get(context.Background(), testutil.MemberScope(uuid.New(), "viewer"), uuid.New())
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestGetWithoutSummaryReturnsEmpty(t *testing.T) {
	db, mock := testutil.NewGormMock(t)
	svc := New(db)
	org, patient := uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM "patients"`).WillReturnRows(patientRow(patient, org))
	mock.ExpectQuery(`FROM "patient_summaries"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	out, err := svc.Get(context.Background(), testutil.MemberScope(org, "viewer"), patient)
	require.NoError(t, err)
	assert.Empty(t, out.Content)
	assert.Equal(t, patient, out.PatientID)
}

func TestHistoryNewestFirst(t *testing.T) {
	db, mock := testutil.NewGormMock(t)
	svc := New(db)
	org, patient, editor := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM "patients"`).WillReturnRows(patientRow(patient, org))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "patient_summary_histories"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "patient_summary_histories" WHERE patient_id = \$1 ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "edited_by_id"}).AddRow(uuid.New().String(), "v1", editor.String()))
	mock.ExpectQuery(`SELECT "id","name","email" FROM "users" WHERE id IN \(\$1\)`).
		WithArgs(editor.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).AddRow(editor.String(), "Nurse Ito", "ito@example.com"))

	res, err := svc.History(context.Background(), testutil.MemberScope(org, "viewer"), patient, page.Request{})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "v1", res.Data[0].Content)
	require.NotNil(t, res.Data[0].EditedBy)
	assert.Equal(t, "Nurse Ito", res.Data[0].EditedBy.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
