package advlib

import "fmt"

const (
	minPacketSize = HeaderSize + AddressSize
	// length byte and type byte of a single AD record
	minADSize = 2
)

// Fallback URIs applied by Decode when nothing more specific resolved.
var (
	DefaultURI       = "https://sniffypedia.org/Organization/Bluetooth_SIG/"
	CuriousDeviceURI = "https://sniffypedia.org/Product/Any_Curious-Device/"
)

// Options tunes Decode, ParseAll and DecodeRecord.
type Options struct {
	// IgnoreProtocolOverhead omits header and address fields from the result.
	IgnoreProtocolOverhead bool
	// IsPayloadOnly treats the whole input as AD records with no header or address.
	IsPayloadOnly bool
	// Indices is used when no indices are passed explicitly.
	Indices []Index
	// OnUnknownType is called for every AD record with an unrecognized type code.
	OnUnknownType func(typeCode byte)
}

func resolveIndices(indices []Index, opts Options) []Index {
	if indices != nil {
		return indices
	}
	return opts.Indices
}

// Decode decodes a BLE advertising PDU given as a []byte or hex string.
// Any other input is protocol-specific data and is handed to the first library
// implementing ProtocolSpecificProcessor that recognizes it.
//
// Decode never returns partial results: on error the Properties is nil.
func Decode(input any, libraries []Library, indices []Index, opts Options) (*Properties, error) {
	c := chain{libraries: libraries, indices: resolveIndices(indices, opts)}

	if input != nil && !isBinaryInput(input) {
		if props := c.protocolSpecific(input); props != nil {
			return props, nil
		}
		return nil, fmt.Errorf("%T: %w", input, ErrUnhandledProtocolData)
	}

	buf, ok := toBytes(input)
	if !ok {
		return nil, ErrInvalidInput
	}

	if opts.IsPayloadOnly {
		if len(buf) < minADSize {
			return nil, fmt.Errorf("payload: expected at least %d bytes, got %d: %w", minADSize, len(buf), ErrTooShort)
		}
		props, err := parseAll(buf, 0, c, opts)
		if err != nil {
			return nil, err
		}
		return withFallbackURI(props, DefaultURI), nil
	}

	return decodePDU(buf, c, opts)
}

func decodePDU(buf []byte, c chain, opts Options) (*Properties, error) {
	if len(buf) < minPacketSize {
		return nil, fmt.Errorf("packet: expected at least %d bytes, got %d: %w", minPacketSize, len(buf), ErrTooShort)
	}
	header, err := DecodeHeader(buf)
	if err != nil {
		return nil, err
	}

	props := &Properties{}
	overhead := func(p *Properties) {
		if !opts.IgnoreProtocolOverhead {
			props = Merge(props, p)
		}
	}
	overhead(header.Properties())

	fallback := DefaultURI
	switch header.Type {
	case AdvInd, AdvNonconnInd, AdvScanInd, ScanRsp:
		overhead(&Properties{AdvA: parseAddress(buf[2:8])})
		advData, err := parseAll(buf, minPacketSize, c, opts)
		if err != nil {
			return nil, fmt.Errorf("%s advertising data: %w", header.Type, err)
		}
		props = Merge(props, advData)
	case AdvDirectInd:
		if err := requireSecondAddress(buf, header.Type); err != nil {
			return nil, err
		}
		overhead(&Properties{AdvA: parseAddress(buf[2:8]), TargetA: parseAddress(buf[8:14])})
	case ScanReq:
		if err := requireSecondAddress(buf, header.Type); err != nil {
			return nil, err
		}
		overhead(&Properties{ScanA: parseAddress(buf[2:8]), AdvA: parseAddress(buf[8:14])})
		fallback = CuriousDeviceURI
	case ConnectInd:
		if err := requireSecondAddress(buf, header.Type); err != nil {
			return nil, err
		}
		overhead(&Properties{InitA: parseAddress(buf[2:8]), AdvA: parseAddress(buf[8:14])})
	case AdvExtInd:
		// Common Extended Advertising Payload Format is not decoded.
	}

	return withFallbackURI(props, fallback), nil
}

func requireSecondAddress(buf []byte, t PDUType) error {
	if len(buf) < minPacketSize+AddressSize {
		return fmt.Errorf("%s: expected at least %d bytes, got %d: %w", t, minPacketSize+AddressSize, len(buf), ErrTooShort)
	}
	return nil
}

func withFallbackURI(props *Properties, uri string) *Properties {
	if props.URI == "" {
		props.URI = uri
	}
	return props
}
