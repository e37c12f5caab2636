package goTeam

import (
	"github.com/rs/zerolog"

	"github.com/MrEthical07/goTeam/internal/notify"
)

// Notification is a user-visible message raised by a client operation,
// typically a failed mutation.
type Notification = notify.Notification

// NotificationLevel is the severity of a [Notification].
type NotificationLevel = notify.Level

const (
	NotificationInfo    = notify.LevelInfo
	NotificationSuccess = notify.LevelSuccess
	NotificationWarning = notify.LevelWarning
	NotificationError   = notify.LevelError
)

// NotificationSink receives notifications on the dispatcher goroutine.
type NotificationSink = notify.Sink

// NotificationSinkFunc adapts a function to [NotificationSink].
type NotificationSinkFunc = notify.SinkFunc

// NewChannelSink returns a sink that forwards notifications to a buffered
// channel, dropping them when the channel is full.
func NewChannelSink(buffer int) *notify.ChannelSink {
	return notify.NewChannelSink(buffer)
}

// NewLogSink returns a sink that writes notifications to logger.
func NewLogSink(logger zerolog.Logger) NotificationSink {
	return notify.LogSink{Logger: logger}
}
