package audio

import (
	"runtime"
	"time"

	"github.com/gordonklaus/portaudio"

	"hapticsync/internal/config"
	"hapticsync/internal/engine"
)

// Capture owns a live PortAudio input stream and drives one engine tick per
// buffer. Buffers are copied into pre-allocated storage before processing so
// the PortAudio callback never allocates.
type Capture struct {
	cfg    *config.Config
	engine *engine.Engine

	device       *portaudio.DeviceInfo
	latency      time.Duration
	stream       *portaudio.Stream
	inputBuffer  []int32
	monoBuffer   []int32
	channelCount int
}

// NewCapture resolves the configured input device and pre-allocates the
// processing buffers. PortAudio must already be initialized.
func NewCapture(cfg *config.Config, eng *engine.Engine) (*Capture, error) {
	device, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}

	c := &Capture{
		cfg:          cfg,
		engine:       eng,
		device:       device,
		inputBuffer:  make([]int32, cfg.Audio.FramesPerBuffer*cfg.Audio.Channels),
		monoBuffer:   make([]int32, cfg.Audio.FramesPerBuffer),
		channelCount: cfg.Audio.Channels,
	}

	if cfg.Audio.LowLatency {
		c.latency = device.DefaultLowInputLatency
	} else {
		c.latency = device.DefaultHighInputLatency
	}

	return c, nil
}

// Start opens and starts the input stream. The stream callback is the hot
// path: it runs one engine tick per buffer.
func (c *Capture) Start() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: c.channelCount,
			Device:   c.device,
			Latency:  c.latency,
		},
		FramesPerBuffer: c.cfg.Audio.FramesPerBuffer,
		SampleRate:      c.cfg.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, c.processInput)
	if err != nil {
		return err
	}
	c.stream = stream

	if err := c.stream.Start(); err != nil {
		c.stream.Close()
		c.stream = nil
		return err
	}
	return nil
}

// Stop stops and closes the stream and resets per-session engine state so a
// later Start analyzes from scratch.
func (c *Capture) Stop() error {
	if c.stream == nil {
		return nil
	}
	if err := c.stream.Stop(); err != nil {
		return err
	}
	if err := c.stream.Close(); err != nil {
		return err
	}
	c.stream = nil
	c.engine.Reset()
	return nil
}

// processInput is the PortAudio callback.
// Performance critical: pre-allocated buffers only, no allocations.
func (c *Capture) processInput(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	copy(c.inputBuffer, in)

	tickBuffer := c.inputBuffer
	if c.channelCount > 1 {
		// Analysis is mono: take the first channel of each frame.
		frames := len(c.inputBuffer) / c.channelCount
		if frames > len(c.monoBuffer) {
			frames = len(c.monoBuffer)
		}
		for i := range frames {
			c.monoBuffer[i] = c.inputBuffer[i*c.channelCount]
		}
		tickBuffer = c.monoBuffer[:frames]
	}

	c.engine.Tick(tickBuffer)
}
