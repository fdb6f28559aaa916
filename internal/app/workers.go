package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/Alijeyrad/carevisit_backend/config"
	"github.com/Alijeyrad/carevisit_backend/internal/service/reminder"
	"github.com/Alijeyrad/carevisit_backend/pkg/email"
)

// WorkerModule registers the reminder dispatcher and its NATS consumer.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

const reminderQueue = "carevisit-reminder-mailer"

// deliveryTimeout bounds one reminder delivery, including all its emails.
const deliveryTimeout = 2 * time.Minute

type WorkerParams struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    *config.Config
	NC     *nats.Conn
	DB     *gorm.DB
	Redis  *redis.Client
	Mailer email.Sender
}

func RegisterWorkers(p WorkerParams) {
	if !p.Cfg.Reminders.Enabled {
		slog.Info("reminder workers disabled")
		return
	}

	notifier := reminder.NewNotifier(p.DB, p.Mailer, p.Cfg)
	dispatcher := reminder.NewDispatcher(p.DB, p.Redis, p.NC, p.Cfg.Reminders)

	var (
		sub    *nats.Subscription
		cancel context.CancelFunc
		done   = make(chan struct{})
	)

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			sub, err = startReminderMailer(p.NC, notifier)
			if err != nil {
				return err
			}

			var runCtx context.Context
			runCtx, cancel = context.WithCancel(context.Background())
			go func() {
				defer close(done)
				dispatcher.Run(runCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
				select {
				case <-done:
				case <-ctx.Done():
				}
			}
			if sub != nil {
				// Connection drain is handled by ProvideNatsClient.
				_ = sub.Unsubscribe()
			}
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// reminder_mailer
// ---------------------------------------------------------------------------

// startReminderMailer consumes due reminders. The queue group spreads messages
// over instances so each one is handled once.
func startReminderMailer(nc *nats.Conn, notifier *reminder.Notifier) (*nats.Subscription, error) {
	sub, err := nc.QueueSubscribe(reminder.SubjectWildcard, reminderQueue, func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()

		if err := notifier.HandleMessage(ctx, msg.Data); err != nil {
			slog.Warn("reminder_mailer: delivery failed", "subject", msg.Subject, "err", err)
		}
	})
	if err != nil {
		slog.Error("reminder_mailer: subscribe failed", "subject", reminder.SubjectWildcard, "err", err)
		return nil, err
	}
	return sub, nil
}
