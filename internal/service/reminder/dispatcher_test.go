package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/carevisit_backend/config"
	"github.com/Alijeyrad/carevisit_backend/internal/schema"
	"github.com/Alijeyrad/carevisit_backend/internal/testutil"
	redispkg "github.com/Alijeyrad/carevisit_backend/pkg/redis"
)

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	err  error
	msgs []published
}

func (p *fakePublisher) Publish(subj string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{subj, data})
	return nil
}

func TestPublishDue(t *testing.T) {
	db, mock := testutil.NewGormMock(t)
	pub := &fakePublisher{}
	d := NewDispatcher(db, nil, pub, config.RemindersConfig{})
	org := uuid.New()
	r1, r2 := uuid.New(), uuid.New()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT "id","organization_id" FROM "reminders" WHERE \(remind_at <= \$1 AND is_sent = \$2 AND is_active = \$3\) ORDER BY remind_at ASC LIMIT`).
		WithArgs(now, false, true, 200).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id"}).
			AddRow(r1.String(), org.String()).
			AddRow(r2.String(), org.String()))

	n, err := d.PublishDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, pub.msgs, 2)
	assert.Equal(t, "carevisit.reminder.due."+org.String(), pub.msgs[0].subject)

	var m DueMessage
	require.NoError(t, json.Unmarshal(pub.msgs[1].data, &m))
	assert.Equal(t, r2, m.ReminderID)
	assert.Equal(t, org, m.OrganizationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishDueStopsOnPublishError(t *testing.T) {
	db, mock := testutil.NewGormMock(t)
	d := NewDispatcher(db, nil, &fakePublisher{err: errors.New("nats down")}, config.RemindersConfig{})

	mock.ExpectQuery(`FROM "reminders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id"}).AddRow(uuid.NewString(), uuid.NewString()))

	n, err := d.PublishDue(context.Background(), time.Now())
	assert.Error(t, err)
	assert.Zero(t, n)
}

func TestGenerateAuto(t *testing.T) {
	db, mock := testutil.NewGormMock(t)
	d := NewDispatcher(db, nil, &fakePublisher{}, config.RemindersConfig{IntervalSeconds: 60})
	org, ev, assignee := uuid.New(), uuid.New(), uuid.New()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	start := now.Add(30 * time.Minute)

	mock.ExpectQuery(`SELECT \* FROM "reminder_settings" WHERE enabled = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "enabled", "lead_minutes", "send_email"}).
			AddRow(uuid.NewString(), org.String(), true, 60, true))
	mock.ExpectQuery(`SELECT \* FROM "events" WHERE .*NOT EXISTS`).
		WithArgs(org.String(), true, now, now.Add(61*time.Minute), true, 200).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "assignee_id", "title", "type", "start_at", "end_at"}).
			AddRow(ev.String(), org.String(), assignee.String(), "Room 12 rounds", "visit", start, start.Add(time.Hour)))
	mock.ExpectExec(`INSERT INTO "reminders"`).WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := d.GenerateAuto(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoReminder(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	assignee := uuid.New()
	ev := &schema.Event{
		Type:       schema.EventTypePrescription,
		StartAt:    now.Add(2 * time.Hour),
		AssigneeID: &assignee,
		Patient:    &schema.Patient{Name: "Sato Hanako"},
	}
	ev.ID = uuid.New()
	ev.OrganizationID = uuid.New()

	r := autoReminder(ev, time.Hour, now)
	assert.Equal(t, now.Add(time.Hour), r.RemindAt)
	assert.Equal(t, "Upcoming Prescription: Sato Hanako", r.Title)
	assert.True(t, r.Auto)
	assert.Equal(t, &assignee, r.UserID)
	assert.Equal(t, ev.ID, *r.EventID)
	assert.Equal(t, ev.OrganizationID, r.OrganizationID)

	// Lead longer than the remaining time fires immediately.
	r = autoReminder(ev, 3*time.Hour, now)
	assert.Equal(t, now, r.RemindAt)
}

func TestTickSkipsWhenLockHeld(t *testing.T) {
	rdb := testutil.Redis(t)
	db, mock := testutil.NewGormMock(t)
	d := NewDispatcher(db, rdb, &fakePublisher{}, config.RemindersConfig{})

	lock, err := redispkg.TryLock(context.Background(), rdb, dispatchLockKey, time.Minute)
	require.NoError(t, err)
	defer lock.Release(context.Background())

	n, err := d.Tick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTickPublishesUnderLock(t *testing.T) {
	rdb := testutil.Redis(t)
	db, mock := testutil.NewGormMock(t)
	pub := &fakePublisher{}
	d := NewDispatcher(db, rdb, pub, config.RemindersConfig{})

	mock.ExpectQuery(`FROM "reminder_settings"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`FROM "reminders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id"}).AddRow(uuid.NewString(), uuid.NewString()))

	n, err := d.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, pub.msgs, 1)

	// The lock is released after the tick.
	assert.Zero(t, rdb.Exists(context.Background(), dispatchLockKey).Val())
	assert.NoError(t, mock.ExpectationsWereMet())
}
