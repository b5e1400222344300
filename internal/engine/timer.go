package engine

// timerEpsilon absorbs float drift from summing many small dt values.
const timerEpsilon = 1e-9

// CollectionTimer counts simulated time while miners collect. It arms once per
// resource cycle; later arrivals do not restart it.
type CollectionTimer struct {
	Armed    bool    `json:"armed"`
	Elapsed  float64 `json:"elapsed"`
	Duration float64 `json:"duration"`
}

// Arm starts the timer unless it is already running.
func (t *CollectionTimer) Arm(duration float64) bool {
	if t.Armed {
		return false
	}
	*t = CollectionTimer{Armed: true, Duration: duration}
	return true
}

// Advance adds dt and reports whether the duration has been reached.
func (t *CollectionTimer) Advance(dt float64) bool {
	if !t.Armed {
		return false
	}
	t.Elapsed += dt
	return t.Elapsed >= t.Duration-timerEpsilon
}

// Remaining returns the simulated seconds left, 0 when disarmed or expired.
func (t *CollectionTimer) Remaining() float64 {
	if !t.Armed || t.Elapsed >= t.Duration {
		return 0
	}
	return t.Duration - t.Elapsed
}

// Reset disarms the timer.
func (t *CollectionTimer) Reset() {
	*t = CollectionTimer{}
}
