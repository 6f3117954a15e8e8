package game

import (
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"

	"github.com/iburimskiy/fractal-explorer/internal/sonify"
)

// Player plays a stream, replacing whatever was playing before.
type Player interface {
	Play(s beep.Streamer) error
}

type speakerPlayer struct {
	once sync.Once
	err  error
}

func (p *speakerPlayer) Play(s beep.Streamer) error {
	p.once.Do(func() {
		p.err = speaker.Init(sonify.SampleRate, sonify.SampleRate.N(time.Second/10))
	})
	if p.err != nil {
		return p.err
	}
	speaker.Clear()
	speaker.Play(s)
	return nil
}
