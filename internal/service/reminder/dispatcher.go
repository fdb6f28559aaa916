package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Alijeyrad/carevisit_backend/config"
	"github.com/Alijeyrad/carevisit_backend/internal/schema"
	"github.com/Alijeyrad/carevisit_backend/internal/service/event"
	redispkg "github.com/Alijeyrad/carevisit_backend/pkg/redis"
)

const (
	SubjectPrefix = "carevisit.reminder.due."
	// SubjectWildcard matches due reminders of every organization.
	SubjectWildcard = SubjectPrefix + "*"

	dispatchLockKey = "lock:reminder:dispatch"
)

// Subject is the NATS subject a due reminder of orgID is published on.
func Subject(orgID uuid.UUID) string {
	return SubjectPrefix + orgID.String()
}

// DueMessage is the NATS payload.
type DueMessage struct {
	ReminderID     uuid.UUID `json:"reminder_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
}

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// Dispatcher periodically turns due reminders into NATS messages. Only one
// instance works per tick; the others find the Redis lock held and skip.
type Dispatcher struct {
	db       *gorm.DB
	rdb      goredis.UniversalClient
	pub      Publisher
	interval time.Duration
	batch    int
	now      func() time.Time
}

func NewDispatcher(db *gorm.DB, rdb goredis.UniversalClient, pub Publisher, cfg config.RemindersConfig) *Dispatcher {
	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 200
	}
	return &Dispatcher{
		db:       db,
		rdb:      rdb,
		pub:      pub,
		interval: interval,
		batch:    batch,
		now:      time.Now,
	}
}

// Run ticks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	t := time.NewTicker(d.interval)
	defer t.Stop()

	slog.Info("reminder_dispatcher: started", "interval", d.interval)
	for {
		if n, err := d.Tick(ctx); err != nil {
			slog.Error("reminder_dispatcher: tick failed", "err", err)
		} else if n > 0 {
			slog.Debug("reminder_dispatcher: published", "count", n)
		}

		select {
		case <-ctx.Done():
			slog.Info("reminder_dispatcher: stopped")
			return
		case <-t.C:
		}
	}
}

// Tick generates auto reminders and publishes due ones. It returns the number
// of published messages; zero when another instance holds the lock.
func (d *Dispatcher) Tick(ctx context.Context) (int, error) {
	lock, err := redispkg.TryLock(ctx, d.rdb, dispatchLockKey, d.interval)
	if errors.Is(err, redispkg.ErrLockHeld) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("acquire dispatch lock: %w", err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("reminder_dispatcher: release lock failed", "err", err)
		}
	}()

	now := d.now()
	if _, err := d.GenerateAuto(ctx, now); err != nil {
		return 0, err
	}
	return d.PublishDue(ctx, now)
}

// GenerateAuto creates one reminder per upcoming event for organizations with
// auto reminders enabled. An event gets at most one auto reminder.
func (d *Dispatcher) GenerateAuto(ctx context.Context, now time.Time) (int, error) {
	var settings []schema.ReminderSetting
	if err := d.db.WithContext(ctx).Where("enabled = ?", true).Find(&settings).Error; err != nil {
		return 0, fmt.Errorf("load reminder settings: %w", err)
	}

	created := 0
	for _, set := range settings {
		lead := time.Duration(set.LeadMinutes) * time.Minute
		// One interval of slack so a zero lead still catches the next tick.
		horizon := now.Add(lead + d.interval)

		var events []schema.Event
		err := d.db.WithContext(ctx).
			Preload("Patient").Preload("Facility").
			Where("organization_id = ? AND is_active = ? AND start_at > ? AND start_at <= ?",
				set.OrganizationID, true, now, horizon).
			Where("NOT EXISTS (SELECT 1 FROM reminders r WHERE r.event_id = events.id AND r.auto = ?)", true).
			Order("start_at ASC").
			Limit(d.batch).
			Find(&events).Error
		if err != nil {
			return created, fmt.Errorf("find upcoming events: %w", err)
		}

		for i := range events {
			r := autoReminder(&events[i], lead, now)
			if err := d.db.WithContext(ctx).Create(r).Error; err != nil {
				return created, fmt.Errorf("create auto reminder: %w", err)
			}
			created++
		}
	}
	return created, nil
}

func autoReminder(ev *schema.Event, lead time.Duration, now time.Time) *schema.Reminder {
	at := ev.StartAt.Add(-lead)
	if at.Before(now) {
		at = now
	}
	evID := ev.ID
	r := &schema.Reminder{
		PatientID: ev.PatientID,
		EventID:   &evID,
		UserID:    ev.AssigneeID,
		Title:     "Upcoming " + event.TypeLabel(ev.Type) + ": " + event.DisplayName(ev),
		Message:   ev.Notes,
		RemindAt:  at,
		Auto:      true,
	}
	r.OrganizationID = ev.OrganizationID
	r.IsActive = true
	return r
}

// PublishDue publishes every unsent reminder whose time has come. A reminder
// stays due until the notifier claims it, so a lost message is retried on the
// next tick.
func (d *Dispatcher) PublishDue(ctx context.Context, now time.Time) (int, error) {
	var due []schema.Reminder
	err := d.db.WithContext(ctx).
		Select("id", "organization_id").
		Where("remind_at <= ? AND is_sent = ? AND is_active = ?", now, false, true).
		Order("remind_at ASC").
		Limit(d.batch).
		Find(&due).Error
	if err != nil {
		return 0, fmt.Errorf("find due reminders: %w", err)
	}

	n := 0
	for _, r := range due {
		data, err := json.Marshal(DueMessage{ReminderID: r.ID, OrganizationID: r.OrganizationID})
		if err != nil {
			return n, err
		}
		if err := d.pub.Publish(Subject(r.OrganizationID), data); err != nil {
			return n, fmt.Errorf("publish reminder %s: %w", r.ID, err)
		}
		n++
	}
	return n, nil
}
