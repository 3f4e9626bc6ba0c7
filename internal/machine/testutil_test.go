package machine

func newTestSystem(m Model, roms map[string][]byte) *System {
	pixels := make([]uint32, displayWidth*displayHeight)
	sys, err := New(Config{
		Model:      m,
		Pixels:     pixels,
		SampleRate: 44_100,
		ROM:        roms,
	})
	if err != nil {
		panic(err)
	}
	return sys
}
