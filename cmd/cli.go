package cmd

import (
	"github.com/spf13/cobra"

	"hapticsync/internal/config"
	"hapticsync/pkg/build"
)

// Options carries the resolved configuration plus run-mode switches that are
// not part of the engine configuration itself.
type Options struct {
	Config  *config.Config
	TUIMode bool
}

// ParseArgs builds the configuration from the YAML file (if any) with
// command line flags layered on top. Flags only override values the user
// actually set. args is the command line without the program name.
func ParseArgs(args []string) (*Options, error) {
	info := build.Get()
	opts := &Options{Config: config.New()}

	var configPath string
	flagCfg := config.New()

	rootCmd := &cobra.Command{
		Use:           info.Name,
		Short:         "Real-time music-to-haptics synchronization engine",
		Version:       info.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd, cfg, flagCfg)
			opts.Config = cfg
			return nil
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio input devices",
		Run: func(cmd *cobra.Command, args []string) {
			opts.Config.Command = "list"
		},
	}
	rootCmd.AddCommand(listCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to YAML configuration file")

	// Audio input
	flags.IntVarP(&flagCfg.Audio.InputDevice, "device", "d", config.DefaultDeviceID,
		"Input device ID. Use 'list' to see available devices.")
	flags.Float64VarP(&flagCfg.Audio.SampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate in Hertz (Hz)")
	flags.IntVarP(&flagCfg.Audio.FramesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"Frames per capture buffer (affects tick rate)")
	flags.BoolVarP(&flagCfg.Audio.LowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Request low latency from the input device")
	flags.StringVarP(&flagCfg.Audio.InputFile, "input", "i", "",
		"Analyze a WAV file instead of live capture")

	// Actuator transports
	flags.BoolVar(&flagCfg.Transport.WSEnabled, "ws", false,
		"Broadcast vibration patterns over WebSocket")
	flags.StringVar(&flagCfg.Transport.WSAddr, "ws-addr", ":8080",
		"WebSocket listen address")
	flags.BoolVar(&flagCfg.Transport.UDPEnabled, "udp", false,
		"Send vibration patterns to a UDP haptic driver")
	flags.StringVar(&flagCfg.Transport.UDPTarget, "udp-target", "127.0.0.1:9090",
		"UDP haptic driver address")

	// Debug
	flags.BoolVarP(&flagCfg.Debug, "verbose", "v", false, "Show verbose output")
	flags.BoolVarP(&opts.TUIMode, "tui", "t", false, "Show the live analysis monitor")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return opts, nil
}

// applyFlagOverrides copies explicitly-set flag values over the file-loaded
// configuration.
func applyFlagOverrides(cmd *cobra.Command, cfg, flagCfg *config.Config) {
	set := cmd.Flags().Changed
	if set("device") {
		cfg.Audio.InputDevice = flagCfg.Audio.InputDevice
	}
	if set("sample-rate") {
		cfg.Audio.SampleRate = flagCfg.Audio.SampleRate
	}
	if set("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = flagCfg.Audio.FramesPerBuffer
	}
	if set("low-latency") {
		cfg.Audio.LowLatency = flagCfg.Audio.LowLatency
	}
	if set("input") {
		cfg.Audio.InputFile = flagCfg.Audio.InputFile
	}
	if set("ws") {
		cfg.Transport.WSEnabled = flagCfg.Transport.WSEnabled
	}
	if set("ws-addr") {
		cfg.Transport.WSAddr = flagCfg.Transport.WSAddr
	}
	if set("udp") {
		cfg.Transport.UDPEnabled = flagCfg.Transport.UDPEnabled
	}
	if set("udp-target") {
		cfg.Transport.UDPTarget = flagCfg.Transport.UDPTarget
	}
	if set("verbose") {
		cfg.Debug = flagCfg.Debug
		if cfg.Debug {
			cfg.LogLevel = "debug"
		}
	}
	cfg.Clamp()
}
