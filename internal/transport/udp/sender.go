// Package udp sends vibration pattern packets to networked haptic drivers
// (typically a microcontroller driving an ERM or LRA motor).
package udp

import (
	"fmt"
	"net"
	"sync"
)

// Sender handles sending datagrams to a fixed target address.
type Sender struct {
	conn   *net.UDPConn
	mu     sync.Mutex // Protects conn during Close
	closed bool
}

// NewSender creates a Sender targeting the given "host:port" address.
func NewSender(target string) (*Sender, error) {
	addr, err := net.ResolveUDPAddr("udp", target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target '%s': %w", target, err)
	}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP target '%s': %w", target, err)
	}

	return &Sender{conn: conn}, nil
}

// Send transmits one datagram. Sends after Close are rejected.
func (s *Sender) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("UDP sender is closed")
	}
	if _, err := s.conn.Write(payload); err != nil {
		return fmt.Errorf("UDP send failed: %w", err)
	}
	return nil
}

// Close releases the socket. Subsequent Close calls are no-ops.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
