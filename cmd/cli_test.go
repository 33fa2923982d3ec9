package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"hapticsync/internal/config"
)

func TestParseArgsDefaults(t *testing.T) {
	opts, err := ParseArgs(nil)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if opts.Config.Audio.SampleRate != config.DefaultSampleRate {
		t.Errorf("SampleRate = %f, want default", opts.Config.Audio.SampleRate)
	}
	if opts.TUIMode {
		t.Error("TUIMode = true by default")
	}
	if opts.Config.Command != "" {
		t.Errorf("Command = %q, want empty", opts.Config.Command)
	}
}

func TestParseArgsFlags(t *testing.T) {
	opts, err := ParseArgs([]string{
		"--device", "2",
		"--sample-rate", "48000",
		"-b", "512",
		"--input", "song.wav",
		"--ws", "--ws-addr", ":9100",
		"--udp", "--udp-target", "10.0.0.5:9090",
		"-v", "-t",
	})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}

	cfg := opts.Config
	if cfg.Audio.InputDevice != 2 {
		t.Errorf("InputDevice = %d, want 2", cfg.Audio.InputDevice)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("SampleRate = %f, want 48000", cfg.Audio.SampleRate)
	}
	if cfg.Audio.FramesPerBuffer != 512 {
		t.Errorf("FramesPerBuffer = %d, want 512", cfg.Audio.FramesPerBuffer)
	}
	if cfg.Audio.InputFile != "song.wav" {
		t.Errorf("InputFile = %q, want song.wav", cfg.Audio.InputFile)
	}
	if !cfg.Transport.WSEnabled || cfg.Transport.WSAddr != ":9100" {
		t.Errorf("WS transport = %+v, want enabled on :9100", cfg.Transport)
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPTarget != "10.0.0.5:9090" {
		t.Errorf("UDP transport = %+v, want enabled to 10.0.0.5:9090", cfg.Transport)
	}
	if !cfg.Debug || cfg.LogLevel != "debug" {
		t.Errorf("Debug/LogLevel = %v/%q, want verbose mode", cfg.Debug, cfg.LogLevel)
	}
	if !opts.TUIMode {
		t.Error("TUIMode = false with -t")
	}
}

func TestParseArgsFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("audio:\n  sample_rate: 22050\n  frames_per_buffer: 256\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	// Only the explicitly set flag wins; the file keeps the rest.
	opts, err := ParseArgs([]string{"--config", path, "--sample-rate", "96000"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if opts.Config.Audio.SampleRate != 96000 {
		t.Errorf("SampleRate = %f, want flag override 96000", opts.Config.Audio.SampleRate)
	}
	if opts.Config.Audio.FramesPerBuffer != 256 {
		t.Errorf("FramesPerBuffer = %d, want file value 256", opts.Config.Audio.FramesPerBuffer)
	}
}

func TestParseArgsListCommand(t *testing.T) {
	opts, err := ParseArgs([]string{"list"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if opts.Config.Command != "list" {
		t.Errorf("Command = %q, want list", opts.Config.Command)
	}
}

func TestParseArgsUnknownFlag(t *testing.T) {
	if _, err := ParseArgs([]string{"--no-such-flag"}); err == nil {
		t.Error("ParseArgs accepted an unknown flag")
	}
}

func TestParseArgsBadConfigPath(t *testing.T) {
	if _, err := ParseArgs([]string{"--config", "/nonexistent/config.yaml"}); err == nil {
		t.Error("ParseArgs accepted a missing config file")
	}
}
