package ai

// FrameHistory is a fixed-capacity ring of recent feature frames. Pushing
// into a full buffer evicts the oldest frame. It is never cleared
// implicitly at episode boundaries; callers needing isolation call Reset.
// Single writer, single reader per agent instance.
type FrameHistory struct {
	frames [][]float32
	head   int // index of the oldest frame
	size   int
}

// NewFrameHistory returns a history retaining up to capacity frames. A
// capacity of zero retains nothing; negative capacities are treated as
// zero.
func NewFrameHistory(capacity int) *FrameHistory {
	if capacity < 0 {
		capacity = 0
	}
	return &FrameHistory{frames: make([][]float32, capacity)}
}

// Cap returns the configured capacity.
func (h *FrameHistory) Cap() int { return len(h.frames) }

// Len returns the number of retained frames.
func (h *FrameHistory) Len() int { return h.size }

// Push inserts a frame, evicting the oldest if the buffer is full.
func (h *FrameHistory) Push(frame []float32) {
	if len(h.frames) == 0 {
		return
	}
	if h.size < len(h.frames) {
		h.frames[(h.head+h.size)%len(h.frames)] = frame
		h.size++
		return
	}
	h.frames[h.head] = frame
	h.head = (h.head + 1) % len(h.frames)
}

// Frames returns the retained frames in push order, oldest first.
func (h *FrameHistory) Frames() [][]float32 {
	out := make([][]float32, 0, h.size)
	for i := 0; i < h.size; i++ {
		out = append(out, h.frames[(h.head+i)%len(h.frames)])
	}
	return out
}

// Reset drops all retained frames.
func (h *FrameHistory) Reset() {
	for i := range h.frames {
		h.frames[i] = nil
	}
	h.head = 0
	h.size = 0
}
