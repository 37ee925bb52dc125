// ABOUTME: User-visible transient notices
// ABOUTME: Typed toast messages raised at operation boundaries
package notice

import "time"

// Level classifies a notice for rendering
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

// String returns a short label for the level
func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "ok"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is one transient message for the user
type Notice struct {
	Level   Level
	Message string
	At      time.Time
}

// Sink receives notices. Implementations must not block.
type Sink func(Notice)

// Info builds an informational notice
func Info(msg string) Notice {
	return Notice{Level: LevelInfo, Message: msg, At: time.Now()}
}

// Success builds a success notice
func Success(msg string) Notice {
	return Notice{Level: LevelSuccess, Message: msg, At: time.Now()}
}

// Error builds an error notice
func Error(msg string) Notice {
	return Notice{Level: LevelError, Message: msg, At: time.Now()}
}

// Discard is a sink that drops everything
func Discard(Notice) {}
