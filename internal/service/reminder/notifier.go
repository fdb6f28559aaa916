package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/Alijeyrad/carevisit_backend/config"
	"github.com/Alijeyrad/carevisit_backend/internal/schema"
	"github.com/Alijeyrad/carevisit_backend/internal/service/event"
	"github.com/Alijeyrad/carevisit_backend/pkg/email"
)

// Notifier delivers reminders published by the Dispatcher.
type Notifier struct {
	db      *gorm.DB
	mailer  email.Sender
	limiter *rate.Limiter
	loc     *time.Location
	appName string
	baseURL string
	now     func() time.Time
}

func NewNotifier(db *gorm.DB, mailer email.Sender, cfg *config.Config) *Notifier {
	eps := cfg.Reminders.EmailsPerSecond
	if eps <= 0 {
		eps = 5
	}
	return &Notifier{
		db:      db,
		mailer:  mailer,
		limiter: rate.NewLimiter(rate.Limit(eps), 1),
		loc:     cfg.Scheduling.Location(),
		appName: cfg.Email.AppName,
		baseURL: cfg.Email.BaseURL,
		now:     time.Now,
	}
}

// HandleMessage decodes a DueMessage and delivers it.
func (n *Notifier) HandleMessage(ctx context.Context, data []byte) error {
	var m DueMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decode due message: %w", err)
	}
	return n.Deliver(ctx, m.ReminderID)
}

// Deliver claims the reminder and mails its recipients. A reminder that is
// already claimed is skipped. If no mail could be sent the claim is released
// so the next dispatch retries it.
func (n *Notifier) Deliver(ctx context.Context, id uuid.UUID) error {
	claimed, err := n.claim(ctx, id)
	if err != nil || !claimed {
		return err
	}

	var r schema.Reminder
	if err := n.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return n.release(ctx, id, fmt.Errorf("load reminder: %w", err))
	}
	if !n.sendEmail(ctx, r.OrganizationID) {
		return nil
	}

	to, err := n.recipients(ctx, &r)
	if err != nil {
		return n.release(ctx, id, err)
	}
	if len(to) == 0 {
		slog.Warn("reminder_notifier: no recipients", "reminder_id", id)
		return nil
	}

	data := email.ReminderData{
		Title:    r.Title,
		Message:  r.Message,
		RemindAt: r.RemindAt,
		AppName:  n.appName,
		BaseURL:  n.baseURL,
		Location: n.loc,
	}
	n.describe(ctx, &r, &data)

	sent := 0
	var lastErr error
	for _, u := range to {
		if err := n.limiter.Wait(ctx); err != nil {
			return n.release(ctx, id, err)
		}
		data.Email, data.Name = u.Email, u.Name
		err := n.mailer.Send(ctx, email.BuildReminderEmail(data))
		if errors.As(err, &email.ErrDisabled{}) {
			return nil
		}
		if err != nil {
			slog.Warn("reminder_notifier: send failed", "reminder_id", id, "to", u.Email, "err", err)
			lastErr = err
			continue
		}
		sent++
	}
	if sent == 0 && lastErr != nil {
		return n.release(ctx, id, lastErr)
	}
	return nil
}

func (n *Notifier) claim(ctx context.Context, id uuid.UUID) (bool, error) {
	res := n.db.WithContext(ctx).Model(&schema.Reminder{}).
		Where("id = ? AND is_sent = ? AND is_active = ?", id, false, true).
		Updates(map[string]any{"is_sent": true, "sent_at": n.now()})
	if res.Error != nil {
		return false, fmt.Errorf("claim reminder: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (n *Notifier) release(ctx context.Context, id uuid.UUID, cause error) error {
	err := n.db.WithContext(context.WithoutCancel(ctx)).Model(&schema.Reminder{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_sent": false, "sent_at": nil}).Error
	if err != nil {
		slog.Error("reminder_notifier: release claim failed", "reminder_id", id, "err", err)
	}
	return fmt.Errorf("deliver reminder %s: %w", id, cause)
}

// sendEmail reports the organization's send_email preference. Missing
// settings default to sending.
func (n *Notifier) sendEmail(ctx context.Context, orgID uuid.UUID) bool {
	var set schema.ReminderSetting
	err := n.db.WithContext(ctx).Where("organization_id = ?", orgID).Take(&set).Error
	if err != nil {
		return true
	}
	return set.SendEmail
}

// recipients is the reminder's user, or the active admins of the organization
// when the reminder has none or its user is gone.
func (n *Notifier) recipients(ctx context.Context, r *schema.Reminder) ([]schema.User, error) {
	var users []schema.User
	if r.UserID != nil {
		err := n.db.WithContext(ctx).
			Where("id = ? AND organization_id = ? AND is_active = ?", *r.UserID, r.OrganizationID, true).
			Find(&users).Error
		if err != nil {
			return nil, fmt.Errorf("load recipient: %w", err)
		}
		if len(users) > 0 {
			return users, nil
		}
	}
	err := n.db.WithContext(ctx).
		Where("organization_id = ? AND role = ? AND is_active = ?", r.OrganizationID, schema.RoleAdmin, true).
		Order("email ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("load admins: %w", err)
	}
	return users, nil
}

// describe fills patient and event details. Lookup failures leave them blank.
func (n *Notifier) describe(ctx context.Context, r *schema.Reminder, data *email.ReminderData) {
	if r.PatientID != nil {
		var p schema.Patient
		if err := n.db.WithContext(ctx).Select("id", "name").Take(&p, "id = ?", *r.PatientID).Error; err == nil {
			data.PatientName = p.Name
		}
	}
	if r.EventID != nil {
		var ev schema.Event
		err := n.db.WithContext(ctx).Preload("Patient").Preload("Facility").
			Take(&ev, "id = ?", *r.EventID).Error
		if err == nil {
			data.EventTitle = event.TypeLabel(ev.Type) + ": " + event.DisplayName(&ev)
			start := ev.StartAt
			data.EventStart = &start
		}
	}
}
