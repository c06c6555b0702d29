package advlib

import (
	"encoding/binary"
	"fmt"
)

const (
	HeaderSize  = 2
	AddressSize = 6

	randomRxMask = 0x8000
	randomTxMask = 0x4000
	typeMask     = 0x0f00
	lengthMask   = 0x00ff
)

// PDUType is the advertising physical channel PDU type (Core Vol 6, Part B, 2.3).
type PDUType uint8

const (
	AdvInd PDUType = iota
	AdvDirectInd
	AdvNonconnInd
	ScanReq
	ScanRsp
	ConnectInd
	AdvScanInd
	AdvExtInd
	RFU
)

var pduTypeNames = [...]string{
	AdvInd:        "ADV_IND",
	AdvDirectInd:  "ADV_DIRECT_IND",
	AdvNonconnInd: "ADV_NONCONN_IND",
	ScanReq:       "SCAN_REQ",
	ScanRsp:       "SCAN_RSP",
	ConnectInd:    "CONNECT_IND",
	AdvScanInd:    "ADV_SCAN_IND",
	AdvExtInd:     "ADV_EXT_IND",
	RFU:           "RFU",
}

func (t PDUType) String() string {
	if int(t) < len(pduTypeNames) {
		return pduTypeNames[t]
	}
	return pduTypeNames[RFU]
}

// Header is the 2-byte PDU header.
// Layout (big-endian word): [RxAdd:1][TxAdd:1][RFU:2][Type:4][Length:8]
type Header struct {
	RxRandom bool
	TxRandom bool
	Type     PDUType
	Length   uint8
}

// DecodeHeader decodes the first two bytes of b.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("header: expected %d bytes, got %d: %w", HeaderSize, len(b), ErrTooShort)
	}
	word := binary.BigEndian.Uint16(b)

	typ := PDUType((word & typeMask) >> 8)
	if typ > AdvExtInd {
		typ = RFU
	}
	return Header{
		RxRandom: word&randomRxMask != 0,
		TxRandom: word&randomTxMask != 0,
		Type:     typ,
		Length:   uint8(word & lengthMask),
	}, nil
}

// Properties returns the header fields as a Properties value.
func (h Header) Properties() *Properties {
	length := int(h.Length)
	return &Properties{
		RxAdd:  addressKind(h.RxRandom),
		TxAdd:  addressKind(h.TxRandom),
		Type:   h.Type.String(),
		Length: &length,
	}
}

func addressKind(random bool) string {
	if random {
		return "random"
	}
	return "public"
}
