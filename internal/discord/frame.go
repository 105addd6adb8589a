package discord

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Opcode identifies the kind of IPC frame.
type Opcode uint32

const (
	OpHandshake Opcode = 0
	OpFrame     Opcode = 1
	OpClose     Opcode = 2
	OpPing      Opcode = 3
	OpPong      Opcode = 4
)

const (
	headerSize   = 8
	maxFrameSize = 1 << 20
)

// ErrFrameTooLarge is returned when a peer announces an oversized payload.
var ErrFrameTooLarge = errors.New("discord ipc frame too large")

func (o Opcode) String() string {
	switch o {
	case OpHandshake:
		return "handshake"
	case OpFrame:
		return "frame"
	case OpClose:
		return "close"
	case OpPing:
		return "ping"
	case OpPong:
		return "pong"
	default:
		return fmt.Sprintf("opcode(%d)", uint32(o))
	}
}

// WriteFrame writes one frame: little-endian opcode and length, then payload.
func WriteFrame(w io.Writer, op Opcode, payload []byte) error {
	if len(payload) > maxFrameSize {
		return ErrFrameTooLarge
	}
	buf := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(op))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(payload)))
	copy(buf[headerSize:], payload)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write %s frame: %w", op, err)
	}
	return nil
}

// ReadFrame reads one frame from r.
func ReadFrame(r io.Reader) (Opcode, []byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, fmt.Errorf("read frame header: %w", err)
	}
	op := Opcode(binary.LittleEndian.Uint32(header[0:4]))
	length := binary.LittleEndian.Uint32(header[4:8])
	if length > maxFrameSize {
		return op, nil, ErrFrameTooLarge
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return op, nil, fmt.Errorf("read %s payload: %w", op, err)
	}
	return op, payload, nil
}
