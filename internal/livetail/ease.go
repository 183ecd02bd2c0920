package livetail

import (
	"math"
	"time"
)

// ScrollDuration is the length of the auto-scroll animation.
const ScrollDuration = 250 * time.Millisecond

// EaseOut returns the position between from and to after elapsed of a
// duration-long cubic ease-out. It returns to once elapsed reaches duration.
func EaseOut(from, to int, elapsed, duration time.Duration) int {
	if duration <= 0 || elapsed >= duration {
		return to
	}
	if elapsed <= 0 {
		return from
	}
	t := float64(elapsed) / float64(duration)
	p := 1 - math.Pow(1-t, 3)
	return from + int(math.Round(float64(to-from)*p))
}
