package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
)

const (
	Channels   = 2
	SampleRate = 48000
	FrameSize  = 960 // 20ms at 48kHz

	frameBytes = FrameSize * Channels * 2
)

// PCM is a running ffmpeg process decoding a file to s16le 48kHz stereo.
type PCM struct {
	io.Reader
	cmd       *exec.Cmd
	closeOnce sync.Once
}

// OpenPCM starts ffmpeg on path. The process dies with ctx or on Close.
func OpenPCM(ctx context.Context, ffmpegPath, path string) (*PCM, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-nostdin",
		"-i", path,
		"-vn",
		"-f", "s16le",
		"-ar", strconv.Itoa(SampleRate),
		"-ac", strconv.Itoa(Channels),
		"-loglevel", "warning",
		"pipe:1",
	)

	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}
	return &PCM{Reader: out, cmd: cmd}, nil
}

// Close kills ffmpeg if it is still running and reaps it.
func (p *PCM) Close() error {
	var err error
	p.closeOnce.Do(func() {
		if p.cmd.ProcessState == nil {
			_ = p.cmd.Process.Kill()
		}
		werr := p.cmd.Wait()
		var exit *exec.ExitError
		if werr != nil && !errors.As(werr, &exit) {
			err = werr
		}
	})
	return err
}
