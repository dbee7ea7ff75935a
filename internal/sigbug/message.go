// Package sigbug packs GPS readings into the hex payload a sigbug device uplinks
// through the Sigfox backend.
//
// The payload is nine bytes: a message type byte followed by the latitude and the
// longitude, each a little-endian IEEE-754 float32.
package sigbug

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
)

// GPSReading is the message type byte of a GPS reading payload.
const GPSReading byte = 0x01

// MessageLength is the size in bytes of a GPS reading payload.
const MessageLength = 9

// ErrInvalidMessage is returned when a payload is not a GPS reading.
var ErrInvalidMessage = errors.New("invalid sigbug GPS message")

// Encode packs a position into a hex encoded GPS reading payload.
func Encode(lat, lon float64) string {
	data := make([]byte, MessageLength)
	data[0] = GPSReading
	binary.LittleEndian.PutUint32(data[1:5], math.Float32bits(float32(lat)))
	binary.LittleEndian.PutUint32(data[5:9], math.Float32bits(float32(lon)))
	return hex.EncodeToString(data)
}

// Decode unpacks a hex encoded GPS reading payload.
func Decode(message string) (float32, float32, error) {
	data, err := hex.DecodeString(message)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if len(data) != MessageLength {
		return 0, 0, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidMessage, MessageLength, len(data))
	}
	if data[0] != GPSReading {
		return 0, 0, fmt.Errorf("%w: unexpected message type 0x%02x", ErrInvalidMessage, data[0])
	}

	lat := math.Float32frombits(binary.LittleEndian.Uint32(data[1:5]))
	lon := math.Float32frombits(binary.LittleEndian.Uint32(data[5:9]))
	return lat, lon, nil
}
