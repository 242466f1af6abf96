package device

import (
	"encoding/binary"
	"fmt"
)

// Odin/LOKE protocol command codes
const (
	CmdLokeInitialize = 0x64
	CmdPitOperation   = 0x65
	CmdFlashData      = 0x66
	CmdRebootNormal   = 0x67
	CmdExtraInit      = 0x69
)

// odinCommandSize is the fixed size of every command buffer on the wire
const odinCommandSize = 1024

// OdinCommand is the 1024-byte command buffer used by the Odin binary
// protocol. All header fields are little-endian. For LOKE initialize,
// BinaryType occupies eight bytes (offsets 8-15) and SizeWritten is not
// encoded; otherwise BinaryType takes four bytes and SizeWritten sits at 12.
type OdinCommand struct {
	Cmd         uint32
	SeqCmd      uint32
	BinaryType  uint64
	SizeWritten uint32
	Unknown     uint32
	DeviceID    uint32
	Identifier  uint32
	SessionEnd  uint32
	EfsClear    uint32
	BootUpdate  uint32
}

// Encode serializes the command into its 1024-byte wire form
func (c *OdinCommand) Encode() []byte {
	buf := make([]byte, odinCommandSize)

	binary.LittleEndian.PutUint32(buf[0:], c.Cmd)
	binary.LittleEndian.PutUint32(buf[4:], c.SeqCmd)

	if c.Cmd == CmdLokeInitialize {
		binary.LittleEndian.PutUint64(buf[8:], c.BinaryType)
	} else {
		binary.LittleEndian.PutUint32(buf[8:], uint32(c.BinaryType))
		binary.LittleEndian.PutUint32(buf[12:], c.SizeWritten)
	}

	binary.LittleEndian.PutUint32(buf[16:], c.Unknown)
	binary.LittleEndian.PutUint32(buf[20:], c.DeviceID)
	binary.LittleEndian.PutUint32(buf[24:], c.Identifier)
	binary.LittleEndian.PutUint32(buf[28:], c.SessionEnd)
	binary.LittleEndian.PutUint32(buf[32:], c.EfsClear)
	binary.LittleEndian.PutUint32(buf[36:], c.BootUpdate)

	return buf
}

// DecodeOdinCommand parses the command header of a device response
func DecodeOdinCommand(data []byte) (*OdinCommand, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("odin response too short: %d bytes", len(data))
	}
	return &OdinCommand{
		Cmd:    binary.LittleEndian.Uint32(data[0:]),
		SeqCmd: binary.LittleEndian.Uint32(data[4:]),
	}, nil
}

// ProtocolVariant extracts the protocol variant from a LOKE initialize
// response. The variant selects the initialization sequence (2 through 5).
func ProtocolVariant(response []byte) (int, error) {
	if len(response) < 8 {
		return 0, fmt.Errorf("invalid response length: %d", len(response))
	}
	value := binary.LittleEndian.Uint32(response[4:])
	return int(value >> 16), nil
}
