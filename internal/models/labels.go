package models

import (
	"fmt"
	"time"
)

// TimeLabel renders the time-of-day label stored on notes, e.g. "3:04:05 PM".
func TimeLabel(t time.Time) string {
	return t.Format("3:04:05 PM")
}

// DurationLabel renders whole seconds as m:ss.
func DurationLabel(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
