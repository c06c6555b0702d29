package advlib

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
)

// toBytes converts a byte slice or hex string. ok is false for anything else
// or for text that is not an even-length run of hex digits.
func toBytes(input any) (b []byte, ok bool) {
	switch v := input.(type) {
	case []byte:
		return v, v != nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, false
		}
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, false
		}
		return b, true
	}
	return nil, false
}

// isBinaryInput reports whether input takes the byte-parsing path.
func isBinaryInput(input any) bool {
	switch input.(type) {
	case []byte, string:
		return true
	}
	return false
}

// parseAddress renders a 6-byte little-endian device address as 12 lowercase hex digits.
func parseAddress(b []byte) string {
	var be [AddressSize]byte
	for i := 0; i < AddressSize; i++ {
		be[i] = b[AddressSize-1-i]
	}
	return hex.EncodeToString(be[:])
}

func uuid16(b []byte) string {
	var be [2]byte
	binary.BigEndian.PutUint16(be[:], binary.LittleEndian.Uint16(b))
	return hex.EncodeToString(be[:])
}

func uuid32(b []byte) string {
	var be [4]byte
	binary.BigEndian.PutUint32(be[:], binary.LittleEndian.Uint32(b))
	return hex.EncodeToString(be[:])
}

// uuid128 reverses the little-endian wire order into canonical display order.
func uuid128(b []byte) string {
	var be [16]byte
	for i := 0; i < 16; i++ {
		be[i] = b[15-i]
	}
	return hex.EncodeToString(be[:])
}

func companyCodeHex(code uint16) string {
	var be [2]byte
	binary.BigEndian.PutUint16(be[:], code)
	return hex.EncodeToString(be[:])
}
