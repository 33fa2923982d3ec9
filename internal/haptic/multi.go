package haptic

// multiActuator fans commands out to several actuators, e.g. a WebSocket
// client and a UDP driver at once.
type multiActuator []Actuator

// Multi combines actuators into one. Nil entries are dropped; with no usable
// entries the result is a NopActuator.
func Multi(actuators ...Actuator) Actuator {
	var out multiActuator
	for _, a := range actuators {
		if a != nil {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return NopActuator{}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

// Trigger forwards the pattern to every actuator and reports success when
// any of them accepted it.
func (m multiActuator) Trigger(pattern []PulsePair) bool {
	ok := false
	for _, a := range m {
		if a.Trigger(pattern) {
			ok = true
		}
	}
	return ok
}

// Stop halts every actuator.
func (m multiActuator) Stop() {
	for _, a := range m {
		a.Stop()
	}
}

// IsSupported reports whether any actuator is usable.
func (m multiActuator) IsSupported() bool {
	for _, a := range m {
		if a.IsSupported() {
			return true
		}
	}
	return false
}
