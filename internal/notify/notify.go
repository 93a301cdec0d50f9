package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a short message for the user. Rendering is up to the
// client.
type Notification struct {
	Level   Level     `json:"type"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) {
	fields := []zap.Field{zap.String("level", string(n.Level)), zap.String("message", n.Message)}
	if n.Level == LevelError {
		l.logger.Warn("notification", fields...)
		return
	}
	l.logger.Info("notification", fields...)
}

// Recorder keeps notifications until they are drained. It holds at most
// limit entries and drops the oldest beyond that.
type Recorder struct {
	mu    sync.Mutex
	limit int
	queue []Notification
	now   func() time.Time
}

const defaultRecorderLimit = 50

func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = defaultRecorderLimit
	}
	return &Recorder{limit: limit, now: time.Now}
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	if n.At.IsZero() {
		n.At = r.now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.queue = append(r.queue, n)
	if over := len(r.queue) - r.limit; over > 0 {
		r.queue = append([]Notification(nil), r.queue[over:]...)
	}
}

// Drain returns the pending notifications oldest first and empties the
// queue.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.queue
	r.queue = nil
	if out == nil {
		return []Notification{}
	}
	return out
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Multi fans a notification out to every sink.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, sink := range m {
		if sink != nil {
			sink.Notify(ctx, n)
		}
	}
}

func Success(ctx context.Context, n Notifier, message string) {
	n.Notify(ctx, Notification{Level: LevelSuccess, Message: message})
}

func Error(ctx context.Context, n Notifier, message string) {
	n.Notify(ctx, Notification{Level: LevelError, Message: message})
}

func Info(ctx context.Context, n Notifier, message string) {
	n.Notify(ctx, Notification{Level: LevelInfo, Message: message})
}
