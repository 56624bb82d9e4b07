package ports

import "context"

// PlatformBridge abstracts the native shell. On web builds every operation
// is a no-op (or reports unavailability); on native builds it schedules
// local notifications and registers for push delivery.
type PlatformBridge interface {
	IsNative() bool
	// ScheduleLocal shows an immediate-feedback local notification. A no-op
	// on web; never returns an error for the no-op case.
	ScheduleLocal(ctx context.Context, title, message string) error
	// RegisterPush requests permission and registers the device, returning
	// the push token. Returns domain.ErrPushUnavailable on web.
	RegisterPush(ctx context.Context) (string, error)
}
