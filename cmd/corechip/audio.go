package main

import (
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// audioOutput feeds beeper samples from the emulator thread into Oto's
// playback callback through a small ring buffer; pushSamples (called
// synchronously out of System.Exec) and Read (called from Oto's own
// player goroutine) run concurrently, unlike the rest of this program's
// single-goroutine design, so this is the one place here that needs a
// mutex.
type audioOutput struct {
	ctx    *oto.Context
	player *oto.Player

	mu      sync.Mutex
	ring    []float32
	head    int
	tail    int
	started bool
}

const audioRingCapacity = 1 << 14 // power of two, for cheap modulo masking

func newAudioOutput(sampleRate int) (*audioOutput, error) {
	a := &audioOutput{ring: make([]float32, audioRingCapacity)}
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready
	a.ctx = ctx
	a.player = ctx.NewPlayer(a)
	return a, nil
}

// pushSamples is System's Config.SampleSink: it appends decoded beeper
// samples, dropping the oldest unread samples if the ring fills (audio
// glitches under sustained overrun are preferable to blocking emulation).
func (a *audioOutput) pushSamples(samples []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range samples {
		a.ring[a.tail&(audioRingCapacity-1)] = s
		a.tail++
		if a.tail-a.head > audioRingCapacity {
			a.head = a.tail - audioRingCapacity
		}
	}
}

func (a *audioOutput) Read(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(p) / 4
	for i := 0; i < n; i++ {
		var v float32
		if a.head < a.tail {
			v = a.ring[a.head&(audioRingCapacity-1)]
			a.head++
		}
		putFloat32LE(p[i*4:i*4+4], v)
	}
	return n * 4, nil
}

func putFloat32LE(b []byte, v float32) {
	bits := math.Float32bits(v)
	b[0] = byte(bits)
	b[1] = byte(bits >> 8)
	b[2] = byte(bits >> 16)
	b[3] = byte(bits >> 24)
}

func (a *audioOutput) Start() {
	if !a.started {
		a.player.Play()
		a.started = true
	}
}

func (a *audioOutput) Close() {
	if a.started {
		a.player.Close()
		a.started = false
	}
}
