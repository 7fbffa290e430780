package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// countingEncoder emits a one byte packet holding the frame's first sample.
type countingEncoder struct{ calls int }

func (e *countingEncoder) Encode(pcm []int16, data []byte) (int, error) {
	e.calls++
	data[0] = byte(pcm[0])
	return 1, nil
}

func pcmFrames(n int) []byte {
	buf := make([]byte, 0, n*frameBytes)
	for i := 0; i < n; i++ {
		frame := make([]byte, frameBytes)
		frame[0] = byte(i + 1)
		buf = append(buf, frame...)
	}
	return buf
}

func runPump(p *Pump) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(context.Background()) }()
	return errCh
}

func TestPumpSendsEveryFrame(t *testing.T) {
	out := make(chan []byte, 8)
	enc := &countingEncoder{}
	p := NewPump(bytes.NewReader(pcmFrames(3)), enc, out, zerolog.Nop())

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	close(out)

	var got []byte
	for f := range out {
		got = append(got, f...)
	}
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("frames = %v, want [1 2 3]", got)
	}
}

func TestPumpPadsTrailingPartialFrame(t *testing.T) {
	data := append(pcmFrames(1), 9, 0, 0, 0)
	out := make(chan []byte, 4)
	enc := &countingEncoder{}
	p := NewPump(bytes.NewReader(data), enc, out, zerolog.Nop())

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if enc.calls != 2 {
		t.Fatalf("encoded %d frames, want 2", enc.calls)
	}
}

type failingReader struct {
	r   io.Reader
	err error
}

func (f *failingReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if err == io.EOF {
		return n, f.err
	}
	return n, err
}

func TestPumpReturnsReadError(t *testing.T) {
	errBroken := errors.New("broken pipe")
	src := &failingReader{r: bytes.NewReader(pcmFrames(1)), err: errBroken}
	out := make(chan []byte, 4)
	p := NewPump(src, &countingEncoder{}, out, zerolog.Nop())

	if err := p.Run(context.Background()); !errors.Is(err, errBroken) {
		t.Fatalf("err = %v, want broken pipe", err)
	}
}

func TestPumpStopUnblocksSend(t *testing.T) {
	out := make(chan []byte)
	p := NewPump(bytes.NewReader(pcmFrames(5)), &countingEncoder{}, out, zerolog.Nop())
	errCh := runPump(p)

	<-out
	p.Stop()
	p.Stop()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestPumpHoldsFramesWhilePaused(t *testing.T) {
	out := make(chan []byte, 8)
	p := NewPump(bytes.NewReader(pcmFrames(2)), &countingEncoder{}, out, zerolog.Nop())
	p.Pause()
	if !p.Paused() {
		t.Fatal("Paused() = false after Pause")
	}
	errCh := runPump(p)

	select {
	case f := <-out:
		t.Fatalf("frame %v sent while paused", f)
	case <-time.After(50 * time.Millisecond):
	}

	p.Resume()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not finish after Resume")
	}
	if len(out) != 2 {
		t.Fatalf("sent %d frames, want 2", len(out))
	}
}

func TestPumpStopWhilePaused(t *testing.T) {
	out := make(chan []byte, 8)
	p := NewPump(bytes.NewReader(pcmFrames(2)), &countingEncoder{}, out, zerolog.Nop())
	p.Pause()
	errCh := runPump(p)
	p.Stop()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	if len(out) != 0 {
		t.Fatalf("sent %d frames while paused", len(out))
	}
}

func TestOpusEncoderEncodesSilence(t *testing.T) {
	enc, err := NewOpusEncoder()
	if err != nil {
		t.Fatalf("NewOpusEncoder: %v", err)
	}
	packet := make([]byte, maxOpusFrame)
	n, err := enc.Encode(make([]int16, FrameSize*Channels), packet)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if n <= 0 || n > maxOpusFrame {
		t.Fatalf("packet size = %d", n)
	}
}
