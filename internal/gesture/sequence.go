// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gesture holds the motion data model, the fixed-window capture
// loop and the similarity scorer used by the lock.
package gesture

// Sample is one 3-axis acceleration reading (m/s²).
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sequence is an ordered, capacity-bounded list of samples.
// Len is always <= Cap.
type Sequence struct {
	samples  []Sample
	capacity int
}

// NewSequence returns an empty sequence that holds at most capacity samples.
func NewSequence(capacity int) *Sequence {
	if capacity < 0 {
		capacity = 0
	}
	return &Sequence{
		samples:  make([]Sample, 0, capacity),
		capacity: capacity,
	}
}

// SequenceOf builds a sequence whose capacity equals len(samples).
func SequenceOf(samples ...Sample) *Sequence {
	s := NewSequence(len(samples))
	s.samples = append(s.samples, samples...)
	return s
}

// Append adds v at the end. It returns false and drops v when the
// sequence is already full.
func (s *Sequence) Append(v Sample) bool {
	if len(s.samples) >= s.capacity {
		return false
	}
	s.samples = append(s.samples, v)
	return true
}

// Len returns the number of recorded samples.
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.samples)
}

// Cap returns the maximum number of samples.
func (s *Sequence) Cap() int {
	if s == nil {
		return 0
	}
	return s.capacity
}

// Full reports whether no more samples can be appended.
func (s *Sequence) Full() bool {
	return s.Len() >= s.Cap()
}

// At returns the i-th sample.
func (s *Sequence) At(i int) Sample {
	return s.samples[i]
}

// Samples returns a copy of the recorded samples.
func (s *Sequence) Samples() []Sample {
	out := make([]Sample, s.Len())
	if s != nil {
		copy(out, s.samples)
	}
	return out
}

// Clone returns an independent copy with the same capacity.
func (s *Sequence) Clone() *Sequence {
	if s == nil {
		return nil
	}
	c := NewSequence(s.capacity)
	c.samples = append(c.samples, s.samples...)
	return c
}

// Scaled returns a copy with every component multiplied by k. A nil
// sequence scales to nil.
func (s *Sequence) Scaled(k float64) *Sequence {
	if s == nil {
		return nil
	}
	c := s.Clone()
	for i := range c.samples {
		c.samples[i] = Sample{X: c.samples[i].X * k, Y: c.samples[i].Y * k, Z: c.samples[i].Z * k}
	}
	return c
}

// components flattens the first n samples into x0,y0,z0,x1,... .
// Positions past Len are left at zero and reported as missing.
func (s *Sequence) components(n int) (flat []float64, present int) {
	flat = make([]float64, 3*n)
	present = min(n, s.Len())
	for i := 0; i < present; i++ {
		v := s.samples[i]
		flat[3*i] = v.X
		flat[3*i+1] = v.Y
		flat[3*i+2] = v.Z
	}
	return flat, 3 * present
}
