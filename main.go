package main

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"hapticsync/cmd"
	"hapticsync/internal/audio"
	"hapticsync/internal/engine"
	"hapticsync/internal/haptic"
	applog "hapticsync/internal/log"
	"hapticsync/internal/transport"
	"hapticsync/internal/transport/udp"
	"hapticsync/internal/tui"
)

// main runs in three phases: startup (configuration, transports, engine
// construction), the concurrent phase (audio source driving engine ticks,
// optional TUI), and shutdown (stop vibration, release the source).
func main() {
	opts, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		applog.Fatalf("%v", err)
	}
	cfg := opts.Config

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}
	if cfg.Debug {
		applog.SetLevel(applog.LevelDebug)
	}

	switch cfg.Command {
	case "list":
		if err := audio.Initialize(); err != nil {
			applog.Fatalf("%v", err)
		}
		defer audio.Terminate()
		if err := audio.ListDevices(); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	}

	// Actuator transports. With none enabled the engine still runs the
	// full analysis; the scheduler just never dispatches.
	var actuators []haptic.Actuator
	var ws *transport.WebSocket
	if cfg.Transport.WSEnabled {
		var err error
		ws, err = transport.NewWebSocket(cfg.Transport.WSAddr)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		defer ws.Close()
		actuators = append(actuators, ws)
	}
	if cfg.Transport.UDPEnabled {
		udpActuator, err := udp.NewActuator(cfg.Transport.UDPTarget)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		defer udpActuator.Close()
		actuators = append(actuators, udpActuator)
	}

	// WAV mode analyzes at the file's own sample rate.
	var wavSource *audio.WAVSource
	if cfg.Audio.InputFile != "" {
		wavSource, err = audio.NewWAVSource(cfg.Audio.InputFile, cfg.Audio.FramesPerBuffer)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		defer wavSource.Close()
		cfg.Audio.SampleRate = wavSource.SampleRate()
	}

	eng, err := engine.New(cfg, haptic.Multi(actuators...), nil)
	if err != nil {
		applog.Fatalf("%v", err)
	}
	defer eng.Close()

	done := make(chan struct{})
	var stopOnce sync.Once
	stop := func() { close(done) }

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		stopOnce.Do(stop)
	}()

	// One consumer owns the result stream: the TUI when shown, otherwise
	// the WebSocket broadcast when enabled.
	var program *tea.Program
	if opts.TUIMode {
		program = tea.NewProgram(tui.NewModel(eng.Results(), eng.Scheduler()))
		go func() {
			if _, err := program.Run(); err != nil {
				applog.Errorf("tui: %v", err)
			}
			stopOnce.Do(stop)
		}()
	} else if ws != nil {
		go func() {
			for res := range eng.Results() {
				_ = ws.Send(res)
			}
		}()
	}

	if wavSource != nil {
		if err := wavSource.Run(func(buf []int32) { eng.Tick(buf) }, true, done); err != nil {
			applog.Errorf("%v", err)
		}
	} else {
		if err := audio.Initialize(); err != nil {
			applog.Fatalf("%v", err)
		}
		defer audio.Terminate()

		capture, err := audio.NewCapture(cfg, eng)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		if err := capture.Start(); err != nil {
			applog.Fatalf("%v", err)
		}
		<-done
		if err := capture.Stop(); err != nil {
			applog.Errorf("error stopping capture: %v", err)
		}
	}

	if program != nil {
		program.Quit()
	}
}
