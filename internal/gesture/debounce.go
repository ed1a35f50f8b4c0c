package gesture

// Debouncer fires once a pose has held for Threshold consecutive frames,
// then starts counting again from zero. Any frame without the pose resets
// the run.
type Debouncer struct {
	Threshold int
	count     int
}

// NewDebouncer creates a Debouncer that fires after threshold frames.
func NewDebouncer(threshold int) Debouncer {
	return Debouncer{Threshold: threshold}
}

// Observe feeds one frame and reports whether the event fires on it.
func (d *Debouncer) Observe(active bool) bool {
	if !active {
		d.count = 0
		return false
	}

	d.count++
	if d.count >= d.Threshold {
		d.count = 0
		return true
	}
	return false
}

// Count returns the current run length.
func (d *Debouncer) Count() int {
	return d.count
}

// Reset clears the run.
func (d *Debouncer) Reset() {
	d.count = 0
}
