package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSequence_AppendStopsSilentlyWhenFull(t *testing.T) {
	seq := NewSequence(2)

	assert.True(t, seq.Append(Sample{X: 1}))
	assert.True(t, seq.Append(Sample{X: 2}))
	assert.True(t, seq.Full())
	assert.False(t, seq.Append(Sample{X: 3}))

	assert.Equal(t, 2, seq.Len())
	assert.Equal(t, 2, seq.Cap())
	assert.Equal(t, Sample{X: 2}, seq.At(1))
}

func TestSequence_CloneIsIndependent(t *testing.T) {
	seq := NewSequence(3)
	seq.Append(Sample{X: 1})

	c := seq.Clone()
	c.Append(Sample{X: 2})

	assert.Equal(t, 1, seq.Len())
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 3, c.Cap())
}

func TestSequence_SamplesReturnsCopy(t *testing.T) {
	seq := SequenceOf(Sample{X: 1}, Sample{Y: 1})
	out := seq.Samples()
	out[0].X = 99

	assert.Equal(t, 1.0, seq.At(0).X)
}

func TestSequence_NilIsEmpty(t *testing.T) {
	var seq *Sequence

	assert.Equal(t, 0, seq.Len())
	assert.Equal(t, 0, seq.Cap())
	assert.Nil(t, seq.Clone())
	assert.Nil(t, seq.Scaled(2))
	assert.Empty(t, seq.Samples())
}

func TestSequence_NegativeCapacity(t *testing.T) {
	seq := NewSequence(-1)

	assert.False(t, seq.Append(Sample{}))
	assert.Equal(t, 0, seq.Cap())
}

func TestParams_Validate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())

	bad := []func(*Params){
		func(p *Params) { p.Capacity = 0 },
		func(p *Params) { p.MaxAttempts = 0 },
		func(p *Params) { p.LockoutDuration = 0 },
		func(p *Params) { p.SampleCadence = -time.Millisecond },
		func(p *Params) { p.CaptureWindow = 0 },
		func(p *Params) { p.MatchThreshold = 1.5 },
		func(p *Params) { p.Tolerance = 0 },
	}
	for i, mutate := range bad {
		p := DefaultParams()
		mutate(&p)
		assert.Error(t, p.Validate(), "case %d", i)
	}
}

func TestParams_EffectiveWindow(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, time.Second, p.EffectiveWindow())

	p.SampleCadence = 200 * time.Millisecond
	assert.Equal(t, 5*time.Second, p.EffectiveWindow())
}
