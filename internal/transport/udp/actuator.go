// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"sync"

	"hapticsync/internal/haptic"
	applog "hapticsync/internal/log"
)

// Packet layout (big endian):
//
//	bytes 0-3   magic "HSP1"
//	bytes 4-7   sequence number
//	byte  8     opcode (1 = pattern, 2 = stop)
//	byte  9     pair count
//	then        count * (uint16 on ms, uint16 off ms)
const (
	opPattern = 1
	opStop    = 2
)

var packetMagic = [4]byte{'H', 'S', 'P', '1'}

// Actuator sends vibration patterns as compact binary datagrams to an
// embedded haptic driver. Dispatch is fire-and-forget; the completed socket
// write is the acknowledgment the scheduler times.
type Actuator struct {
	sender *Sender

	mu     sync.Mutex // Serializes packet building and sequence numbering
	seq    uint32
	packet bytes.Buffer // Reused between sends
}

var _ haptic.Actuator = (*Actuator)(nil)

// NewActuator creates an actuator targeting the given "host:port" address.
func NewActuator(target string) (*Actuator, error) {
	sender, err := NewSender(target)
	if err != nil {
		return nil, err
	}
	applog.Infof("transport: UDP haptic driver target %s", target)
	return &Actuator{sender: sender}, nil
}

// Trigger encodes and transmits one pattern packet.
func (a *Actuator) Trigger(pattern []haptic.PulsePair) bool {
	if len(pattern) > 255 {
		pattern = pattern[:255]
	}
	if err := a.send(opPattern, pattern); err != nil {
		applog.Warnf("transport: UDP pattern send failed: %v", err)
		return false
	}
	return true
}

// Stop transmits a stop packet to halt ongoing vibration.
func (a *Actuator) Stop() {
	if err := a.send(opStop, nil); err != nil {
		applog.Warnf("transport: UDP stop send failed: %v", err)
	}
}

// IsSupported reports whether the socket was established.
func (a *Actuator) IsSupported() bool { return a.sender != nil }

// Close releases the underlying socket.
func (a *Actuator) Close() error { return a.sender.Close() }

func (a *Actuator) send(op byte, pattern []haptic.PulsePair) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.seq++
	a.packet.Reset()
	a.packet.Write(packetMagic[:])
	binary.Write(&a.packet, binary.BigEndian, a.seq)
	a.packet.WriteByte(op)
	a.packet.WriteByte(byte(len(pattern)))
	for _, p := range pattern {
		binary.Write(&a.packet, binary.BigEndian, uint16(clampU16(p.OnMs)))
		binary.Write(&a.packet, binary.BigEndian, uint16(clampU16(p.OffMs)))
	}

	return a.sender.Send(a.packet.Bytes())
}

func clampU16(v int) int {
	if v < 0 {
		return 0
	}
	if v > 0xFFFF {
		return 0xFFFF
	}
	return v
}
