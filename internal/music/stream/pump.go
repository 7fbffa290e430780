// Package stream decodes fetched audio to PCM and pumps it to a voice
// connection as opus frames.
//
// The encoder links libopus through cgo. Only the encoder is used, so build
// with -tags nolibopusfile to drop the libopusfile requirement:
//
//	go build -tags nolibopusfile ./cmd/discord
package stream

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/hraban/opus.v2"
)

const maxOpusFrame = 4000

// Encoder turns one frame of interleaved PCM into an opus packet.
type Encoder interface {
	Encode(pcm []int16, data []byte) (int, error)
}

// NewOpusEncoder returns a libopus encoder tuned for music.
func NewOpusEncoder() (Encoder, error) {
	enc, err := opus.NewEncoder(SampleRate, Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("opus encoder: %w", err)
	}
	return enc, nil
}

// Pump reads PCM frames, encodes them and sends the packets to out. It can be
// paused, resumed and stopped from any goroutine.
type Pump struct {
	src io.Reader
	enc Encoder
	out chan<- []byte
	log zerolog.Logger

	stop     chan struct{}
	stopOnce sync.Once

	mu     sync.Mutex
	paused bool
	resume chan struct{}
}

func NewPump(src io.Reader, enc Encoder, out chan<- []byte, log zerolog.Logger) *Pump {
	return &Pump{
		src:  src,
		enc:  enc,
		out:  out,
		log:  log,
		stop: make(chan struct{}),
	}
}

// Run pumps until the source ends, Stop is called or ctx is done. A clean end
// of stream and Stop return nil; a trailing partial frame is padded with
// silence.
func (p *Pump) Run(ctx context.Context) error {
	pcm := make([]byte, frameBytes)
	samples := make([]int16, FrameSize*Channels)
	packet := make([]byte, maxOpusFrame)

	frames := 0
	defer func() {
		p.log.Debug().Int("frames", frames).Msg("pump finished")
	}()

	for {
		if stopped, err := p.wait(ctx); stopped || err != nil {
			return err
		}

		n, err := io.ReadFull(p.src, pcm)
		last := false
		switch {
		case err == io.EOF:
			return nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			clear(pcm[n:])
			last = true
		case err != nil:
			return fmt.Errorf("read pcm: %w", err)
		}

		for i := range samples {
			samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		}
		size, err := p.enc.Encode(samples, packet)
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		frame := make([]byte, size)
		copy(frame, packet[:size])

		select {
		case p.out <- frame:
			frames++
		case <-p.stop:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}

		if last {
			return nil
		}
	}
}

// wait blocks while paused. It reports whether the pump was stopped.
func (p *Pump) wait(ctx context.Context) (bool, error) {
	p.mu.Lock()
	paused, resume := p.paused, p.resume
	p.mu.Unlock()

	if !paused {
		select {
		case <-p.stop:
			return true, nil
		case <-ctx.Done():
			return true, ctx.Err()
		default:
			return false, nil
		}
	}

	select {
	case <-resume:
		return false, nil
	case <-p.stop:
		return true, nil
	case <-ctx.Done():
		return true, ctx.Err()
	}
}

func (p *Pump) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		p.paused = true
		p.resume = make(chan struct{})
	}
}

func (p *Pump) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		p.paused = false
		close(p.resume)
	}
}

func (p *Pump) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Stop ends Run. Safe to call more than once.
func (p *Pump) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}
