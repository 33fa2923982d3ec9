package audio

import (
	"fmt"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "hapticsync/internal/log"
)

// WAVSource feeds a WAV file through a tick function in buffer-sized
// chunks, producing the same stream a live capture would. Used for offline
// tuning and deterministic analysis runs.
type WAVSource struct {
	file    *os.File
	decoder *wav.Decoder
	pcm     *goaudio.IntBuffer
	mono    []int32
	shift   uint // Bit shift to scale source samples to int32 range
}

// NewWAVSource opens and validates the file and prepares decode buffers for
// the given chunk size in frames.
func NewWAVSource(path string, framesPerBuffer int) (*WAVSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	decoder := wav.NewDecoder(file)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		file.Close()
		return nil, fmt.Errorf("not a valid WAV file: %s", path)
	}
	if decoder.BitDepth == 0 || decoder.BitDepth > 32 {
		file.Close()
		return nil, fmt.Errorf("unsupported bit depth: %d", decoder.BitDepth)
	}

	frames := framesPerBuffer
	channels := int(decoder.NumChans)

	applog.Infof("audio: WAV source %s (%d Hz, %d-bit, %d channel(s))",
		path, decoder.SampleRate, decoder.BitDepth, channels)

	return &WAVSource{
		file:    file,
		decoder: decoder,
		pcm: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: channels,
				SampleRate:  int(decoder.SampleRate),
			},
			Data: make([]int, frames*channels),
		},
		mono:  make([]int32, frames),
		shift: uint(32 - decoder.BitDepth),
	}, nil
}

// SampleRate returns the file's sample rate in Hz.
func (s *WAVSource) SampleRate() float64 {
	return float64(s.decoder.SampleRate)
}

// Run walks the file chunk by chunk, handing each mono int32 chunk to tick,
// until EOF or done closes. With realtime set, chunks are paced at the rate
// the audio would play so latency behavior matches a live run; otherwise the
// file is analyzed as fast as possible.
func (s *WAVSource) Run(tick func([]int32), realtime bool, done <-chan struct{}) error {
	frames := len(s.mono)
	channels := s.pcm.Format.NumChannels
	interval := time.Duration(float64(frames) / float64(s.decoder.SampleRate) * float64(time.Second))

	var ticker *time.Ticker
	if realtime {
		ticker = time.NewTicker(interval)
		defer ticker.Stop()
	}

	for {
		n, err := s.decoder.PCMBuffer(s.pcm)
		if err != nil {
			return fmt.Errorf("WAV decode failed: %w", err)
		}
		if n == 0 {
			return nil
		}

		// Downmix to mono (first channel) and scale to int32 range.
		got := n / channels
		if got > len(s.mono) {
			got = len(s.mono)
		}
		for i := range got {
			s.mono[i] = int32(s.pcm.Data[i*channels]) << s.shift
		}

		tick(s.mono[:got])

		if realtime {
			select {
			case <-ticker.C:
			case <-done:
				return nil
			}
		} else {
			select {
			case <-done:
				return nil
			default:
			}
		}
	}
}

// Close releases the underlying file.
func (s *WAVSource) Close() error {
	return s.file.Close()
}
