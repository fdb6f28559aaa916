package constants

const (
	ConfigName   = "config"
	ConfigFormat = "yaml"

	// EnvPrefix is prepended to every environment override, e.g. CAREVISIT_DATABASE_HOST.
	EnvPrefix = "CAREVISIT"

	AppName = "carevisit"
)

// NATS subjects
const (
	SubjectReminderDue = "carevisit.reminder.due"
)

// Redis key prefixes
const (
	RedisSessionPrefix       = "session:"
	RedisLoginFailPrefix     = "login:fail:"
	RedisPasswordResetPrefix = "pwreset:"
	RedisICSFeedPrefix       = "ics:feed:"
	RedisDispatchLockKey     = "lock:reminder-dispatch"
)
