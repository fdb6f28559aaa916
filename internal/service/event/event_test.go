package event

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/carevisit_backend/config"
	"github.com/Alijeyrad/carevisit_backend/internal/schema"
	"github.com/Alijeyrad/carevisit_backend/internal/tenant"
	"github.com/Alijeyrad/carevisit_backend/internal/testutil"
)

func newTestService(t *testing.T) (*eventService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := testutil.NewGormMock(t)
	return newService(db, config.SchedulingConfig{Timezone: "UTC", MaxOccurrences: 366, DefaultEventMinutes: 60}), mock
}

func countRows(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestCreateWithRecurrenceSharesGroup(t *testing.T) {
	svc, mock := newTestService(t)
	org := uuid.New()
	patient := uuid.New()
	start := time.Date(2026, 7, 6, 9, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "patients"`).WillReturnRows(countRows(1))
	mock.ExpectExec(`INSERT INTO "events"`).WillReturnResult(sqlmock.NewResult(0, 4))

	events, err := svc.Create(context.Background(), testutil.MemberScope(org, "staff"), CreateRequest{
		PatientID:  &patient,
		Type:       "visit",
		StartAt:    start,
		EndAt:      &end,
		Recurrence: &Recurrence{Unit: UnitWeeks, Interval: 1, Count: 3},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	require.Len(t, events, 4)

	group := events[0].RecurrenceGroupID
	require.NotNil(t, group)
	for i, e := range events {
		assert.True(t, e.IsRecurring)
		assert.Equal(t, *group, *e.RecurrenceGroupID)
		assert.Equal(t, start.AddDate(0, 0, 7*i), e.StartAt.UTC())
		assert.Equal(t, 30*time.Minute, e.EndAt.Sub(e.StartAt))
		assert.Equal(t, org, e.OrganizationID)
		assert.True(t, e.IsActive)
	}
	assert.NotEqual(t, events[0].ID, events[1].ID)
}

func TestCreateDefaultsEndTime(t *testing.T) {
	svc, mock := newTestService(t)
	facility := uuid.New()
	start := time.Date(2026, 7, 6, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "facilities"`).WillReturnRows(countRows(1))
	mock.ExpectExec(`INSERT INTO "events"`).WillReturnResult(sqlmock.NewResult(0, 1))

	events, err := svc.Create(context.Background(), testutil.MemberScope(uuid.New(), "staff"), CreateRequest{
		FacilityID: &facility, Type: "prescription", StartAt: start,
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, start.Add(time.Hour), events[0].EndAt)
	assert.False(t, events[0].IsRecurring)
	assert.Nil(t, events[0].RecurrenceGroupID)
}

func TestCreateValidation(t *testing.T) {
	org := uuid.New()
	patient := uuid.New()
	start := time.Date(2026, 7, 6, 9, 0, 0, 0, time.UTC)
	before := start.Add(-time.Minute)

	tests := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"no patient or facility", CreateRequest{Type: "visit", StartAt: start}, ErrTargetRequired},
		{"bad type", CreateRequest{PatientID: &patient, Type: "call", StartAt: start}, ErrInvalidType},
		{"no start", CreateRequest{PatientID: &patient, Type: "visit"}, ErrStartRequired},
		{"end before start", CreateRequest{PatientID: &patient, Type: "visit", StartAt: start, EndAt: &before}, ErrInvalidTimeRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := newTestService(t)
			_, err := svc.Create(context.Background(), testutil.MemberScope(org, "staff"), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("super admin without organization", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Create(context.Background(), testutil.SuperAdminScope(), CreateRequest{PatientID: &patient, Type: "visit", StartAt: start})
		assert.ErrorIs(t, err, tenant.ErrOrganizationRequired)
	})
}

func TestCreateRejectsForeignPatient(t *testing.T) {
	svc, mock := newTestService(t)
	patient := uuid.New()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "patients"`).WillReturnRows(countRows(0))

	_, err := svc.Create(context.Background(), testutil.MemberScope(uuid.New(), "staff"), CreateRequest{
		PatientID: &patient, Type: "visit", StartAt: time.Now(),
	})
	assert.ErrorIs(t, err, ErrPatientNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAllDayNormalizesToMidnight(t *testing.T) {
	svc, mock := newTestService(t)
	facility := uuid.New()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "facilities"`).WillReturnRows(countRows(1))
	mock.ExpectExec(`INSERT INTO "events"`).WillReturnResult(sqlmock.NewResult(0, 3))

	events, err := svc.Create(context.Background(), testutil.MemberScope(uuid.New(), "staff"), CreateRequest{
		FacilityID: &facility,
		Type:       "both",
		AllDay:     true,
		StartAt:    time.Date(2026, 7, 6, 15, 20, 0, 0, time.UTC),
		Recurrence: &Recurrence{Unit: UnitOffsets, Offsets: []int{1, 2}},
	})
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, e := range events {
		want := time.Date(2026, 7, 6+i, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, want, e.StartAt)
		assert.Equal(t, want, e.EndAt)
	}
}

func eventRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "organization_id", "type", "start_at", "end_at", "is_active", "is_recurring", "recurrence_group_id"})
}

func TestDeleteSeries(t *testing.T) {
	svc, mock := newTestService(t)
	org := uuid.New()
	id := uuid.New()
	group := uuid.New()
	start := time.Date(2026, 7, 13, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "events"`).
		WillReturnRows(eventRows().AddRow(id.String(), org.String(), "visit", start, start.Add(time.Hour), true, true, group.String()))
	mock.ExpectExec(`UPDATE "events" SET .* WHERE organization_id = \$3 AND \(recurrence_group_id = \$4 AND start_at >= \$5 AND is_active = \$6\)`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := svc.Delete(context.Background(), testutil.MemberScope(org, "staff"), id, true)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSingleOccurrence(t *testing.T) {
	svc, mock := newTestService(t)
	org := uuid.New()
	id := uuid.New()
	start := time.Date(2026, 7, 13, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "events"`).
		WillReturnRows(eventRows().AddRow(id.String(), org.String(), "visit", start, start.Add(time.Hour), true, true, uuid.New().String()))
	mock.ExpectExec(`UPDATE "events" SET .* WHERE organization_id = \$3 AND id = \$4`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := svc.Delete(context.Background(), testutil.MemberScope(org, "staff"), id, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestBulkCopyKeepsTimeOfDayAndDuration(t *testing.T) {
	svc, mock := newTestService(t)
	org := uuid.New()
	a, b := uuid.New(), uuid.New()
	startA := time.Date(2026, 8, 3, 9, 15, 0, 0, time.UTC)
	startB := time.Date(2026, 8, 4, 14, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "events" WHERE id IN`).
		WillReturnRows(eventRows().
			AddRow(b.String(), org.String(), "prescription", startB, startB.Add(2*time.Hour), true, false, nil).
			AddRow(a.String(), org.String(), "visit", startA, startA.Add(45*time.Minute), true, false, nil))
	mock.ExpectExec(`INSERT INTO "events"`).WillReturnResult(sqlmock.NewResult(0, 4))

	copies, err := svc.BulkCopy(context.Background(), testutil.MemberScope(org, "staff"), BulkCopyRequest{
		EventIDs:   []uuid.UUID{a, b, a},
		Recurrence: Recurrence{Unit: UnitDays, Interval: 7, Count: 2},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	require.Len(t, copies, 4)

	// generation order follows the request order, not the query order
	assert.Equal(t, startA.AddDate(0, 0, 7), copies[0].StartAt.UTC())
	assert.Equal(t, startA.AddDate(0, 0, 14), copies[1].StartAt.UTC())
	assert.Equal(t, startB.AddDate(0, 0, 7), copies[2].StartAt.UTC())
	assert.Equal(t, 45*time.Minute, copies[0].EndAt.Sub(copies[0].StartAt))
	assert.Equal(t, 2*time.Hour, copies[3].EndAt.Sub(copies[3].StartAt))
	for _, c := range copies {
		assert.NotEqual(t, a, c.ID)
		assert.NotEqual(t, b, c.ID)
		assert.False(t, c.IsRecurring)
	}
}

func TestBulkCopyMissingSource(t *testing.T) {
	svc, mock := newTestService(t)
	org := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "events" WHERE id IN`).WillReturnRows(eventRows())

	_, err := svc.BulkCopy(context.Background(), testutil.MemberScope(org, "staff"), BulkCopyRequest{
		EventIDs:   []uuid.UUID{uuid.New()},
		Recurrence: Recurrence{Unit: UnitDays, Interval: 1, Count: 1},
	})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestListRejectsBadRange(t *testing.T) {
	svc, _ := newTestService(t)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.List(context.Background(), testutil.MemberScope(uuid.New(), "viewer"), ListRequest{From: from, To: from})
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = svc.List(context.Background(), testutil.MemberScope(uuid.New(), "viewer"), ListRequest{From: from, To: from.AddDate(2, 0, 0)})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestMergeMovingStartKeepsDuration(t *testing.T) {
	svc, _ := newTestService(t)
	start := time.Date(2026, 7, 13, 9, 0, 0, 0, time.UTC)
	ev := schema.Event{Type: schema.EventTypeVisit, StartAt: start, EndAt: start.Add(90 * time.Minute)}

	moved := start.Add(26 * time.Hour)
	got, err := svc.merge(ev, UpdateRequest{StartAt: &moved})
	require.NoError(t, err)
	assert.Equal(t, moved, got.StartAt)
	assert.Equal(t, moved.Add(90*time.Minute), got.EndAt)

	// an explicit end wins over the kept duration
	end := moved.Add(30 * time.Minute)
	got, err = svc.merge(ev, UpdateRequest{StartAt: &moved, EndAt: &end})
	require.NoError(t, err)
	assert.Equal(t, end, got.EndAt)
}

func TestMergeRejectsEndBeforeStart(t *testing.T) {
	svc, _ := newTestService(t)
	start := time.Date(2026, 7, 13, 9, 0, 0, 0, time.UTC)
	ev := schema.Event{Type: schema.EventTypeVisit, StartAt: start, EndAt: start.Add(time.Hour)}

	end := start.Add(-time.Minute)
	_, err := svc.merge(ev, UpdateRequest{EndAt: &end})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestMergeClearFlagsWinOverIDs(t *testing.T) {
	svc, _ := newTestService(t)
	start := time.Date(2026, 7, 13, 9, 0, 0, 0, time.UTC)
	patient, facility, assignee := uuid.New(), uuid.New(), uuid.New()
	ev := schema.Event{
		PatientID:  &patient,
		FacilityID: &facility,
		AssigneeID: &assignee,
		Type:       schema.EventTypeVisit,
		StartAt:    start,
		EndAt:      start.Add(time.Hour),
	}

	other := uuid.New()
	got, err := svc.merge(ev, UpdateRequest{
		PatientID:     &other,
		ClearPatient:  true,
		AssigneeID:    &other,
		ClearAssignee: true,
		FacilityID:    &other,
	})
	require.NoError(t, err)
	assert.Nil(t, got.PatientID)
	assert.Nil(t, got.AssigneeID)
	require.NotNil(t, got.FacilityID)
	assert.Equal(t, other, *got.FacilityID)
	assert.Equal(t, ev.StartAt, got.StartAt)
	assert.Equal(t, ev.EndAt, got.EndAt)
}

func facilityEventRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "organization_id", "facility_id", "type", "start_at", "end_at", "is_active"})
}

func TestUpdateRequiresPatientOrFacility(t *testing.T) {
	svc, mock := newTestService(t)
	org, id, facility := uuid.New(), uuid.New(), uuid.New()
	start := time.Date(2026, 7, 13, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "events"`).
		WillReturnRows(facilityEventRows().AddRow(id.String(), org.String(), facility.String(), "visit", start, start.Add(time.Hour), true))
	mock.ExpectQuery(`SELECT \* FROM "facilities"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "name"}).AddRow(facility.String(), org.String(), "Hinata"))

	_, err := svc.Update(context.Background(), testutil.MemberScope(org, "staff"), id, UpdateRequest{ClearFacility: true})
	assert.ErrorIs(t, err, ErrTargetRequired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePersistsMovedOccurrence(t *testing.T) {
	svc, mock := newTestService(t)
	org, id, facility := uuid.New(), uuid.New(), uuid.New()
	start := time.Date(2026, 7, 13, 9, 0, 0, 0, time.UTC)
	moved := start.Add(2 * time.Hour)

	expectGet := func(at time.Time) {
		mock.ExpectQuery(`SELECT \* FROM "events"`).
			WillReturnRows(facilityEventRows().AddRow(id.String(), org.String(), facility.String(), "visit", at, at.Add(time.Hour), true))
		mock.ExpectQuery(`SELECT \* FROM "facilities"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "name"}).AddRow(facility.String(), org.String(), "Hinata"))
	}

	expectGet(start)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "facilities"`).WillReturnRows(countRows(1))
	mock.ExpectExec(`UPDATE "events" SET .*"end_at".*"start_at"`).WillReturnResult(sqlmock.NewResult(0, 1))
	expectGet(moved)

	ev, err := svc.Update(context.Background(), testutil.MemberScope(org, "staff"), id, UpdateRequest{StartAt: &moved})
	require.NoError(t, err)
	assert.Equal(t, moved, ev.StartAt.UTC())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUnknownEvent(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectQuery(`SELECT \* FROM "events"`).WillReturnRows(eventRows())

	_, err := svc.Update(context.Background(), testutil.MemberScope(uuid.New(), "staff"), uuid.New(), UpdateRequest{})
	assert.ErrorIs(t, err, ErrEventNotFound)
}
