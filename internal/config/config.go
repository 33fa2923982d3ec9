package config

// Core configuration constants that define the boundaries and defaults
// for the haptic synchronization engine.
const (
	// Audio input defaults
	DefaultChannels        = 1           // Mono analysis
	DefaultDeviceID        = MinDeviceID // System default input device
	DefaultSampleRate      = 44100       // CD-quality audio
	DefaultFramesPerBuffer = 1024        // Balanced latency/resolution
	DefaultLowLatency      = false       // Standard latency mode
	DefaultGateThreshold   = 0.001       // Amplitude gate before analysis (0..1)

	// Spectral analysis defaults
	DefaultTransformSize   = 2048  // FFT size (power of 2)
	DefaultSmoothingFactor = 0.8   // Temporal smoothing of magnitudes
	DefaultDecibelFloor    = -100  // dBFS mapped to magnitude 0
	DefaultDecibelCeiling  = -30   // dBFS mapped to magnitude 1
	DefaultBassLowHz       = 20    // Band boundaries
	DefaultBassHighHz      = 250   //
	DefaultMidHighHz       = 4000  //
	DefaultTrebleHighHz    = 20000 //
	DefaultFluxLowHz       = 20    // Analysis-relevant range for flux/centroid
	DefaultFluxHighHz      = 4000  //

	// Beat detection defaults
	DefaultBeatThreshold     = 1.3    // Current energy vs rolling mean multiplier
	DefaultVarianceFloor     = 0.0005 // Guards against near-silence false positives
	DefaultMinBeatIntervalMs = 300    // Refractory period between detections
	DefaultEnergyHistorySize = 43     // ~1s of history at ~43 ticks/s
	DefaultBeatMinSamples    = 30     // Samples required before detection arms
	DefaultKickLowHz         = 60     // Narrow kick band
	DefaultKickHighHz        = 120    //
	DefaultKickMultiplier    = 0.8    // Kick threshold vs broadband mean proxy

	// Tempo estimation defaults
	DefaultTempoHistorySize  = 20   // Retained inter-beat intervals
	DefaultTempoMinIntervals = 4    // Intervals required before reporting BPM
	DefaultMaxBeatIntervalMs = 2000 // Intervals above this are octave errors
	DefaultBPMMin            = 60   // Plausible tempo clamp range
	DefaultBPMMax            = 200  //
	DefaultMedianWeight      = 0.7  // Median share of the median/mean blend

	// Vibration pattern defaults
	DefaultStrongThreshold   = 0.8 // Beat strength tier boundaries
	DefaultMediumThreshold   = 0.5 //
	DefaultKickBaseMs        = 80  // Kick pulse duration scale
	DefaultKickStrongMs      = 120 //
	DefaultFastTempoMs       = 400 // Implied beat interval below this is "fast"
	DefaultFastTempoCapMs    = 80  // On-duration cap at fast tempo
	DefaultBassDelta         = 0.3 // Transient change thresholds
	DefaultTrebleDelta       = 0.4 //
	DefaultBassFloor         = 0.5 // Transient absolute level floors
	DefaultTrebleFloor       = 0.6 //
	DefaultBassMultiplier    = 1.2 // Transient intensity scale
	DefaultMinTransientMs    = 50  // Transients shorter than this are dropped
	DefaultVolumeDelta       = 0.3 // Swell change threshold
	DefaultVolumeFloor       = 0.7 // Swell absolute level floor
	DefaultSwellMaxMs        = 150 // Swell pulse duration scale
	DefaultMaxPulseDuration  = 400 // Upper clamp for any single on-duration
	DefaultMinPulseDuration  = 10  // Lower clamp after latency compensation

	// Scheduler defaults
	DefaultMinActuationIntervalMs = 20   // Rate limit between dispatches
	DefaultAdaptiveSync           = true // Learn compensation from measured latency
	DefaultLatencyHistorySize     = 20   // Retained round-trip samples
	DefaultLatencyMinSamples      = 10   // Samples before adaptive kicks in
	DefaultMaxCompensationMs      = 50   // Compensation upper clamp
	DefaultPredictedLatencyMs     = 20   // Fallback when no history exists

	// Hardware limits
	MinDeviceID   = -1     // -1 selects the system default device
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
)

// Config holds all runtime configuration for the engine. It is constructed
// from defaults, optionally overridden by a YAML file, environment variables
// and command line flags, then clamped into valid ranges.
type Config struct {
	Debug    bool   `yaml:"debug"`             // Verbose logging and debug features
	LogLevel string `yaml:"log_level"`         // "debug", "info", "warn", "error"
	Command  string `yaml:"command,omitempty"` // One-off command ("list", "version")

	Audio     AudioConfig     `yaml:"audio"`     // Input capture settings
	Analysis  AnalysisConfig  `yaml:"analysis"`  // Spectral feature extraction
	Beat      BeatConfig      `yaml:"beat"`      // Beat detection tuning
	Tempo     TempoConfig     `yaml:"tempo"`     // BPM estimation tuning
	Pattern   PatternConfig   `yaml:"pattern"`   // Vibration pattern presets and thresholds
	Sync      SyncConfig      `yaml:"sync"`      // Scheduler rate limiting and latency learning
	Transport TransportConfig `yaml:"transport"` // Actuator transports
}

// AudioConfig holds settings for the audio input source.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default)
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per capture buffer
	Channels        int     `yaml:"channels"`          // Input channels to capture
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency from the device
	GateThreshold   float64 `yaml:"gate_threshold"`    // Skip analysis below this peak amplitude
	InputFile       string  `yaml:"input_file"`        // WAV file source instead of live capture
}

// AnalysisConfig holds the spectral analysis parameters. Band boundaries are
// in Hz; bin mapping uses binFrequency = binIndex * sampleRate / (2 * binCount).
type AnalysisConfig struct {
	TransformSize   int     `yaml:"transform_size"`   // FFT size, power of 2
	SmoothingFactor float64 `yaml:"smoothing_factor"` // 0..1, higher is smoother
	DecibelFloor    float64 `yaml:"decibel_floor"`    // dBFS normalization floor
	DecibelCeiling  float64 `yaml:"decibel_ceiling"`  // dBFS normalization ceiling
	BassLowHz       float64 `yaml:"bass_low_hz"`
	BassHighHz      float64 `yaml:"bass_high_hz"`
	MidHighHz       float64 `yaml:"mid_high_hz"`
	TrebleHighHz    float64 `yaml:"treble_high_hz"`
	FluxLowHz       float64 `yaml:"flux_low_hz"`  // Flux/centroid analysis range
	FluxHighHz      float64 `yaml:"flux_high_hz"` //
}

// BeatConfig holds beat detection tuning parameters.
type BeatConfig struct {
	Threshold           float64 `yaml:"threshold"`             // Energy vs mean multiplier
	VarianceFloor       float64 `yaml:"variance_floor"`        // Minimum variance for detection
	MinIntervalMs       int     `yaml:"min_interval_ms"`       // Refractory period
	HistorySize         int     `yaml:"history_size"`          // Energy history ring capacity
	MinSamples          int     `yaml:"min_samples"`           // Samples before detection arms
	KickLowHz           float64 `yaml:"kick_low_hz"`           // Kick band range
	KickHighHz          float64 `yaml:"kick_high_hz"`          //
	KickMultiplier      float64 `yaml:"kick_multiplier"`       // Kick threshold multiplier
	SeparateKickHistory bool    `yaml:"separate_kick_history"` // Track kick band statistics independently
}

// TempoConfig holds BPM estimation tuning parameters.
type TempoConfig struct {
	HistorySize   int     `yaml:"history_size"`    // Retained inter-beat intervals
	MinIntervals  int     `yaml:"min_intervals"`   // Intervals required before reporting
	MaxIntervalMs int     `yaml:"max_interval_ms"` // Reject intervals above this
	BPMMin        float64 `yaml:"bpm_min"`         // Output clamp range
	BPMMax        float64 `yaml:"bpm_max"`         //
	MedianWeight  float64 `yaml:"median_weight"`   // Median share in the blend (0..1)
}

// PatternConfig holds vibration pattern presets and mapping thresholds.
// Preset slices are alternating on/off durations in milliseconds.
type PatternConfig struct {
	StrongBeat []int `yaml:"strong_beat"` // Preset for strength >= StrongThreshold
	Beat       []int `yaml:"beat"`        // Preset for strength >= MediumThreshold
	LightBeat  []int `yaml:"light_beat"`  // Preset for weaker beats

	StrongThreshold float64 `yaml:"strong_threshold"` // Beat strength tier boundaries
	MediumThreshold float64 `yaml:"medium_threshold"` //
	KickBaseMs      int     `yaml:"kick_base_ms"`     // Kick pulse scale below the strong tier
	KickStrongMs    int     `yaml:"kick_strong_ms"`   // Kick pulse scale at the strong tier
	FastTempoMs     int     `yaml:"fast_tempo_ms"`    // Implied interval below this shortens pulses
	FastTempoCapMs  int     `yaml:"fast_tempo_cap_ms"`

	BassDelta      float64 `yaml:"bass_delta"`       // Transient detection thresholds
	TrebleDelta    float64 `yaml:"treble_delta"`     //
	BassFloor      float64 `yaml:"bass_floor"`       //
	TrebleFloor    float64 `yaml:"treble_floor"`     //
	BassMultiplier float64 `yaml:"bass_multiplier"`  // Transient intensity scale
	MinTransientMs int     `yaml:"min_transient_ms"` // Drop transients shorter than this

	VolumeDelta float64 `yaml:"volume_delta"` // Swell detection thresholds
	VolumeFloor float64 `yaml:"volume_floor"` //
	SwellMaxMs  int     `yaml:"swell_max_ms"` // Swell pulse duration scale

	MaxDurationMs int `yaml:"max_duration_ms"` // Clamp for any on-duration
	MinPulseMs    int `yaml:"min_pulse_ms"`    // Floor for any on-duration
}

// SyncConfig holds scheduler rate limiting and latency compensation settings.
type SyncConfig struct {
	MinActuationIntervalMs int  `yaml:"min_actuation_interval_ms"` // Rate limit between dispatches
	Adaptive               bool `yaml:"adaptive"`                  // Learn compensation from measurements
	LatencyHistorySize     int  `yaml:"latency_history_size"`      // Round-trip samples retained
	LatencyMinSamples      int  `yaml:"latency_min_samples"`       // Samples before adaptive applies
	MaxCompensationMs      int  `yaml:"max_compensation_ms"`       // Compensation clamp (>= 0)
	PredictedLatencyMs     int  `yaml:"predicted_latency_ms"`      // Fallback predicted latency
	ResetLatencyOnStop     bool `yaml:"reset_latency_on_stop"`     // Drop learned latency on track change
}

// TransportConfig holds actuator transport settings.
type TransportConfig struct {
	WSEnabled  bool   `yaml:"ws_enabled"`  // Broadcast patterns/analysis over WebSocket
	WSAddr     string `yaml:"ws_addr"`     // Listen address, e.g. ":8080"
	UDPEnabled bool   `yaml:"udp_enabled"` // Send binary pattern packets over UDP
	UDPTarget  string `yaml:"udp_target"`  // Target address, e.g. "127.0.0.1:9090"
}

// New returns a Config populated with the documented defaults. This is the
// base configuration before YAML, environment, or flag overrides.
func New() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			Channels:        DefaultChannels,
			LowLatency:      DefaultLowLatency,
			GateThreshold:   DefaultGateThreshold,
		},
		Analysis: AnalysisConfig{
			TransformSize:   DefaultTransformSize,
			SmoothingFactor: DefaultSmoothingFactor,
			DecibelFloor:    DefaultDecibelFloor,
			DecibelCeiling:  DefaultDecibelCeiling,
			BassLowHz:       DefaultBassLowHz,
			BassHighHz:      DefaultBassHighHz,
			MidHighHz:       DefaultMidHighHz,
			TrebleHighHz:    DefaultTrebleHighHz,
			FluxLowHz:       DefaultFluxLowHz,
			FluxHighHz:      DefaultFluxHighHz,
		},
		Beat: BeatConfig{
			Threshold:      DefaultBeatThreshold,
			VarianceFloor:  DefaultVarianceFloor,
			MinIntervalMs:  DefaultMinBeatIntervalMs,
			HistorySize:    DefaultEnergyHistorySize,
			MinSamples:     DefaultBeatMinSamples,
			KickLowHz:      DefaultKickLowHz,
			KickHighHz:     DefaultKickHighHz,
			KickMultiplier: DefaultKickMultiplier,
		},
		Tempo: TempoConfig{
			HistorySize:   DefaultTempoHistorySize,
			MinIntervals:  DefaultTempoMinIntervals,
			MaxIntervalMs: DefaultMaxBeatIntervalMs,
			BPMMin:        DefaultBPMMin,
			BPMMax:        DefaultBPMMax,
			MedianWeight:  DefaultMedianWeight,
		},
		Pattern: PatternConfig{
			StrongBeat:      []int{150, 50, 100},
			Beat:            []int{100},
			LightBeat:       []int{50},
			StrongThreshold: DefaultStrongThreshold,
			MediumThreshold: DefaultMediumThreshold,
			KickBaseMs:      DefaultKickBaseMs,
			KickStrongMs:    DefaultKickStrongMs,
			FastTempoMs:     DefaultFastTempoMs,
			FastTempoCapMs:  DefaultFastTempoCapMs,
			BassDelta:       DefaultBassDelta,
			TrebleDelta:     DefaultTrebleDelta,
			BassFloor:       DefaultBassFloor,
			TrebleFloor:     DefaultTrebleFloor,
			BassMultiplier:  DefaultBassMultiplier,
			MinTransientMs:  DefaultMinTransientMs,
			VolumeDelta:     DefaultVolumeDelta,
			VolumeFloor:     DefaultVolumeFloor,
			SwellMaxMs:      DefaultSwellMaxMs,
			MaxDurationMs:   DefaultMaxPulseDuration,
			MinPulseMs:      DefaultMinPulseDuration,
		},
		Sync: SyncConfig{
			MinActuationIntervalMs: DefaultMinActuationIntervalMs,
			Adaptive:               DefaultAdaptiveSync,
			LatencyHistorySize:     DefaultLatencyHistorySize,
			LatencyMinSamples:      DefaultLatencyMinSamples,
			MaxCompensationMs:      DefaultMaxCompensationMs,
			PredictedLatencyMs:     DefaultPredictedLatencyMs,
			ResetLatencyOnStop:     false,
		},
		Transport: TransportConfig{
			WSEnabled:  false,
			WSAddr:     ":8080",
			UDPEnabled: false,
			UDPTarget:  "127.0.0.1:9090",
		},
	}
}

// Clamp coerces out-of-range values into valid ranges. Invalid configuration
// is corrected, not rejected, so a bad config file degrades gracefully.
func (c *Config) Clamp() {
	if c.Audio.SampleRate < MinSampleRate {
		c.Audio.SampleRate = DefaultSampleRate
	}
	if c.Audio.SampleRate > MaxSampleRate {
		c.Audio.SampleRate = MaxSampleRate
	}
	if c.Audio.FramesPerBuffer <= 0 {
		c.Audio.FramesPerBuffer = DefaultFramesPerBuffer
	}
	if c.Audio.Channels <= 0 {
		c.Audio.Channels = DefaultChannels
	}
	c.Audio.GateThreshold = clampF(c.Audio.GateThreshold, 0, 1)

	if c.Analysis.TransformSize <= 0 {
		c.Analysis.TransformSize = DefaultTransformSize
	}
	c.Analysis.SmoothingFactor = clampF(c.Analysis.SmoothingFactor, 0, 1)
	if c.Analysis.DecibelCeiling <= c.Analysis.DecibelFloor {
		c.Analysis.DecibelFloor = DefaultDecibelFloor
		c.Analysis.DecibelCeiling = DefaultDecibelCeiling
	}

	if c.Beat.Threshold <= 0 {
		c.Beat.Threshold = DefaultBeatThreshold
	}
	if c.Beat.VarianceFloor < 0 {
		c.Beat.VarianceFloor = 0
	}
	if c.Beat.MinIntervalMs < 0 {
		c.Beat.MinIntervalMs = 0
	}
	if c.Beat.HistorySize <= 0 {
		c.Beat.HistorySize = DefaultEnergyHistorySize
	}
	if c.Beat.MinSamples <= 0 || c.Beat.MinSamples > c.Beat.HistorySize {
		c.Beat.MinSamples = min(DefaultBeatMinSamples, c.Beat.HistorySize)
	}
	if c.Beat.KickMultiplier <= 0 {
		c.Beat.KickMultiplier = DefaultKickMultiplier
	}

	if c.Tempo.HistorySize <= 0 {
		c.Tempo.HistorySize = DefaultTempoHistorySize
	}
	if c.Tempo.MinIntervals <= 0 {
		c.Tempo.MinIntervals = DefaultTempoMinIntervals
	}
	if c.Tempo.MaxIntervalMs <= c.Beat.MinIntervalMs {
		c.Tempo.MaxIntervalMs = DefaultMaxBeatIntervalMs
	}
	if c.Tempo.BPMMin <= 0 || c.Tempo.BPMMax <= c.Tempo.BPMMin {
		c.Tempo.BPMMin = DefaultBPMMin
		c.Tempo.BPMMax = DefaultBPMMax
	}
	c.Tempo.MedianWeight = clampF(c.Tempo.MedianWeight, 0, 1)

	if c.Pattern.MaxDurationMs <= 0 {
		c.Pattern.MaxDurationMs = DefaultMaxPulseDuration
	}
	if c.Pattern.MinPulseMs < 0 {
		c.Pattern.MinPulseMs = 0
	}
	if len(c.Pattern.StrongBeat) == 0 {
		c.Pattern.StrongBeat = []int{150, 50, 100}
	}
	if len(c.Pattern.Beat) == 0 {
		c.Pattern.Beat = []int{100}
	}
	if len(c.Pattern.LightBeat) == 0 {
		c.Pattern.LightBeat = []int{50}
	}

	if c.Sync.MinActuationIntervalMs < 0 {
		c.Sync.MinActuationIntervalMs = 0
	}
	if c.Sync.LatencyHistorySize <= 0 {
		c.Sync.LatencyHistorySize = DefaultLatencyHistorySize
	}
	if c.Sync.LatencyMinSamples <= 0 {
		c.Sync.LatencyMinSamples = DefaultLatencyMinSamples
	}
	if c.Sync.MaxCompensationMs < 0 {
		c.Sync.MaxCompensationMs = 0
	}
	if c.Sync.PredictedLatencyMs < 0 {
		c.Sync.PredictedLatencyMs = 0
	}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
