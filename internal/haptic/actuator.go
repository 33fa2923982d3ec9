/*
Package haptic maps analysis results to vibration patterns and schedules
their dispatch to an actuator with rate limiting, latency compensation and
predictive pre-triggering.
*/
package haptic

// PulsePair is one on/off step of a vibration pattern, in milliseconds.
type PulsePair struct {
	OnMs  int `json:"on"`
	OffMs int `json:"off"`
}

// Actuator is the physical vibration mechanism behind trigger/stop.
// Implementations must be safe for calls from the scheduler's dispatch
// goroutine. Trigger returns false when the pattern was rejected or the
// device is unsupported.
type Actuator interface {
	Trigger(pattern []PulsePair) bool
	Stop()
	IsSupported() bool
}

// NopActuator discards all commands. The scheduler degrades to it when no
// supported actuator exists, so the rest of the pipeline runs unaffected.
type NopActuator struct{}

func (NopActuator) Trigger([]PulsePair) bool { return false }
func (NopActuator) Stop()                    {}
func (NopActuator) IsSupported() bool        { return false }

var _ Actuator = NopActuator{}
