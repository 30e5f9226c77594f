package log

import (
	"testing"
	"time"
)

// Logf logs through t with a wall-clock prefix, which helps line up test
// output with the daemon's own log lines.
func Logf(t testing.TB, format string, args ...any) {
	t.Helper()
	t.Logf("[%s] "+format, append([]any{time.Now().Format("15:04:05.000")}, args...)...)
}
