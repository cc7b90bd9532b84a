package logger

import (
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// skippedFrames match logrus itself and the Log/Entry wrappers and helpers
// of this package; those frames never count as the caller.
var skippedFrames = []string{"sirupsen/logrus", "carbonflow/logger.(*", "carbonflow/logger.Log"}

// callerHook points entry.Caller at the first frame outside logrus and the
// wrappers in this package, so the caller field names the real call site.
type callerHook struct{}

func (h *callerHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *callerHook) Fire(entry *logrus.Entry) error {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !isSkipped(frame.Function) {
			entry.Caller = &frame
			return nil
		}
		if !more {
			return nil
		}
	}
}

func isSkipped(fn string) bool {
	for _, prefix := range skippedFrames {
		if strings.Contains(fn, prefix) {
			return true
		}
	}
	return false
}
