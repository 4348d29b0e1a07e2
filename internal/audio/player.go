package audio

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// Player streams a Renderer to the default audio device.
type Player struct {
	ctx      *oto.Context
	player   *oto.Player
	renderer *Renderer
	logger   *log.Logger
}

// NewPlayer opens the audio device at sampleRate. bufferSize is the
// device latency; zero lets oto choose.
func NewPlayer(r *Renderer, sampleRate uint32, bufferSize time.Duration, logger *log.Logger) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   int(sampleRate),
		ChannelCount: channelCount,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   bufferSize,
	}

	otoCtx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-readyChan

	p := &Player{
		ctx:      otoCtx,
		player:   otoCtx.NewPlayer(r),
		renderer: r,
		logger:   logger,
	}
	logger.Info("audio device ready", "sample_rate", sampleRate, "buffer", bufferSize)
	return p, nil
}

func (p *Player) Play() {
	p.player.Play()
}

// Close releases all voices and stops pulling from the renderer.
func (p *Player) Close() error {
	p.renderer.AllNotesOff()
	p.player.Pause()
	if err := p.player.Err(); err != nil {
		return fmt.Errorf("audio player: %w", err)
	}
	p.logger.Info("audio stopped", "frames", p.renderer.Frame(), "write_errors", p.renderer.WriteErrors())
	return nil
}
