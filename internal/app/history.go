package app

import "helm.klederson.com/internal/bearing"

// HeadingRing keeps the most recent smoothed headings for the sparkline.
// Values are stored unwrapped: a course through north continues past 360
// or below 0 instead of jumping, so the plot stays continuous.
type HeadingRing struct {
	buf   []float64
	pos   int
	count int
}

// NewHeadingRing creates a ring holding up to capacity headings.
func NewHeadingRing(capacity int) *HeadingRing {
	return &HeadingRing{
		buf: make([]float64, capacity),
	}
}

// Push records a heading in degrees.
func (r *HeadingRing) Push(deg float64) {
	v := bearing.Normalize(deg)
	if r.count > 0 {
		last := r.buf[(r.pos-1+len(r.buf))%len(r.buf)]
		v = last + bearing.Delta(last, deg)
	}
	r.buf[r.pos] = v
	r.pos = (r.pos + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// Values returns the unwrapped headings, oldest first.
func (r *HeadingRing) Values() []float64 {
	if r.count == 0 {
		return nil
	}
	result := make([]float64, r.count)
	if r.count < len(r.buf) {
		copy(result, r.buf[:r.count])
	} else {
		n := copy(result, r.buf[r.pos:])
		copy(result[n:], r.buf[:r.pos])
	}
	return result
}

// Len returns the number of stored headings.
func (r *HeadingRing) Len() int {
	return r.count
}

// Reset forgets every heading, used when the heading is lost.
func (r *HeadingRing) Reset() {
	r.pos = 0
	r.count = 0
}
