// Package transport carries analysis results and vibration commands to
// external consumers: browser clients over WebSocket and embedded haptic
// drivers over UDP. Implementations are thread-safe.
package transport

// Transport defines a generic interface for sending processed data or
// events to connected consumers.
type Transport interface {
	Send(data any) error
	Close() error
}
