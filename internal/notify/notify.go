package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Level is the severity shown next to a notification.
type Level uint8

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is one message for the user.
type Notification struct {
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Op      string    `json:"op,omitempty"`
	Title   string    `json:"title,omitempty"`
	Message string    `json:"message"`
}

// Sink receives dispatched notifications.
type Sink interface {
	Notify(ctx context.Context, n Notification)
}

// SinkFunc adapts a function to [Sink].
type SinkFunc func(ctx context.Context, n Notification)

func (f SinkFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// NoOpSink drops notifications.
type NoOpSink struct{}

func (NoOpSink) Notify(context.Context, Notification) {}

// ChannelSink writes notifications into a buffered channel.
type ChannelSink struct {
	ch chan Notification
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{ch: make(chan Notification, buffer)}
}

func (s *ChannelSink) Notify(ctx context.Context, n Notification) {
	select {
	case s.ch <- n:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Notifications() <-chan Notification {
	return s.ch
}

// LogSink writes each notification as one zerolog event. Error-level
// notifications log at warn; the failure itself is logged where it happened.
type LogSink struct {
	Logger zerolog.Logger
}

func (s LogSink) Notify(_ context.Context, n Notification) {
	ev := s.Logger.Info()
	if n.Level == LevelError || n.Level == LevelWarning {
		ev = s.Logger.Warn()
	}
	ev.Str("level_ui", n.Level.String()).
		Str("op", n.Op).
		Str("title", n.Title).
		Time("at", n.Time).
		Msg(n.Message)
}
