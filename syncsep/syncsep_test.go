package syncsep

import (
	"testing"

	"github.com/sergev/cvdecode/envelope"
)

const (
	testSampleRate  = 48000.0
	testPulseLength = 10 / testSampleRate // 10 samples
)

// segment is a run of constant samples on both channels.
type segment struct {
	n      int
	luma   float64
	chroma float64
}

// fullScale returns trackers fixed at +/-1, as after a long run of sync tips.
func fullScale() [MaxChannels]*envelope.Tracker {
	return [MaxChannels]*envelope.Tracker{
		envelope.New(envelope.LumaFloor, testSampleRate, -1, 1),
		envelope.New(envelope.ChromaFloor, testSampleRate, -1, 1),
	}
}

// run feeds the segments and returns every confirmed pulse with its sample index.
func run(t *testing.T, s *Separator, envs [MaxChannels]*envelope.Tracker, segs []segment) ([]Pulse, []int) {
	t.Helper()
	var pulses []Pulse
	var at []int
	index := 0
	for _, seg := range segs {
		for i := 0; i < seg.n; i++ {
			if p, ok := s.Step([MaxChannels]float64{seg.luma, seg.chroma}, envs); ok {
				pulses = append(pulses, p)
				at = append(at, index)
			}
			index++
		}
	}
	return pulses, at
}

func TestPairedEdgesConfirmOnce(t *testing.T) {
	s := New(1, testPulseLength, testSampleRate)
	pulses, at := run(t, s, fullScale(), []segment{
		{20, 0, 0},
		{10, 0.9, 0},
		{10, -0.9, 0},
		{20, 0, 0},
	})
	if len(pulses) != 1 {
		t.Fatalf("got %d pulses, expected 1", len(pulses))
	}
	// Confirmation lands about half a pulse into the second segment.
	if at[0] < 34 || at[0] > 36 {
		t.Errorf("pulse confirmed at sample %d, expected 34..36", at[0])
	}
	if pulses[0].Luma() != -1 {
		t.Errorf("pulse luma polarity = %d, expected -1", pulses[0].Luma())
	}
}

func TestSingleEdgeTimesOut(t *testing.T) {
	s := New(1, testPulseLength, testSampleRate)
	pulses, _ := run(t, s, fullScale(), []segment{
		{10, 0.9, 0},
		{100, 0, 0},
	})
	if len(pulses) != 0 {
		t.Fatalf("got %d pulses from a single edge, expected 0", len(pulses))
	}
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d after timeout, expected 0", s.Pending())
	}

	// A lone edge after the timeout starts a fresh pair.
	pulses, _ = run(t, s, fullScale(), []segment{
		{10, -0.9, 0},
	})
	if len(pulses) != 0 {
		t.Errorf("stale edge paired with a new one: got %d pulses", len(pulses))
	}
	if s.Pending() != 1 {
		t.Errorf("Pending() = %d, expected 1", s.Pending())
	}
}

func TestShortGlitchIgnored(t *testing.T) {
	s := New(1, testPulseLength, testSampleRate)
	segs := []segment{}
	for i := 0; i < 20; i++ {
		segs = append(segs, segment{3, 0.9, 0}, segment{3, -0.9, 0}, segment{10, 0, 0})
	}
	pulses, _ := run(t, s, fullScale(), segs)
	if len(pulses) != 0 {
		t.Errorf("got %d pulses from glitches shorter than half a pulse", len(pulses))
	}
}

func TestNoSignalResets(t *testing.T) {
	s := New(1, testPulseLength, testSampleRate)
	envs := fullScale()
	run(t, s, envs, []segment{{10, 0.9, 0}})
	if s.Pending() != 1 {
		t.Fatalf("Pending() = %d, expected 1", s.Pending())
	}

	narrow := [MaxChannels]*envelope.Tracker{
		envelope.New(envelope.LumaFloor, testSampleRate, 0, 0),
		envelope.New(envelope.ChromaFloor, testSampleRate, 0, 0),
	}
	pulses, _ := run(t, s, narrow, []segment{{10, 0.9, 0}, {10, -0.9, 0}})
	if len(pulses) != 0 {
		t.Errorf("got %d pulses without signal", len(pulses))
	}
	if s.Present() {
		t.Errorf("Present() = true on a collapsed envelope")
	}
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d after signal loss, expected 0", s.Pending())
	}
}

func TestTwoChannelPolarity(t *testing.T) {
	s := New(2, testPulseLength, testSampleRate)
	pulses, _ := run(t, s, fullScale(), []segment{
		{20, 0, 0},
		{10, 0.9, 0.9},
		{10, -0.9, 0.9},
		{20, 0, 0},
	})
	if len(pulses) != 1 {
		t.Fatalf("got %d pulses, expected 1", len(pulses))
	}
	if pulses[0].Luma() != -1 || pulses[0].Chroma() != 1 {
		t.Errorf("pulse polarity = %v, expected [-1 1]", pulses[0].Polarity)
	}
}

func TestTwoChannelNeedsBoth(t *testing.T) {
	s := New(2, testPulseLength, testSampleRate)
	pulses, _ := run(t, s, fullScale(), []segment{
		{20, 0, 0},
		{10, 0.9, 0},
		{10, -0.9, 0},
		{20, 0, 0},
	})
	if len(pulses) != 0 {
		t.Errorf("got %d pulses with a silent chroma channel, expected 0", len(pulses))
	}
}
