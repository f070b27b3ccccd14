package engine

// Sample is one recorded point of the closed loop. Immutable once recorded.
type Sample struct {
	Time        float64
	Setpoint    float64
	Value       float64
	Output      float64
	Error       float64
	Disturbance float64
}

// History is a capacity-bounded ring buffer of samples. Overflow evicts the
// oldest entry; samples are appended in strictly increasing simulated-time
// order and never mutated after insertion.
type History struct {
	buf   []Sample
	head  int // next write position
	count int
}

func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]Sample, capacity)}
}

func (h *History) Push(s Sample) {
	h.buf[h.head] = s
	h.head = (h.head + 1) % len(h.buf)
	if h.count < len(h.buf) {
		h.count++
	}
}

func (h *History) Len() int { return h.count }

func (h *History) Cap() int { return len(h.buf) }

// At returns the i-th sample, oldest first.
func (h *History) At(i int) Sample {
	start := h.head - h.count
	if start < 0 {
		start += len(h.buf)
	}
	return h.buf[(start+i)%len(h.buf)]
}

func (h *History) Latest() (Sample, bool) {
	if h.count == 0 {
		return Sample{}, false
	}
	return h.At(h.count - 1), true
}

// Snapshot returns a defensive copy, oldest first.
func (h *History) Snapshot() []Sample {
	out := make([]Sample, h.count)
	for i := 0; i < h.count; i++ {
		out[i] = h.At(i)
	}
	return out
}

func (h *History) Reset() {
	h.head = 0
	h.count = 0
}
