package advlib

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// AD type codes (Bluetooth Assigned Numbers, Generic Access Profile).
const (
	TypeFlags            = 0x01
	TypeSomeUUID16       = 0x02
	TypeAllUUID16        = 0x03
	TypeSomeUUID32       = 0x04
	TypeAllUUID32        = 0x05
	TypeSomeUUID128      = 0x06
	TypeAllUUID128       = 0x07
	TypeShortName        = 0x08
	TypeCompleteName     = 0x09
	TypeTxPower          = 0x0a
	TypeServiceData16    = 0x16
	TypeAppearance       = 0x19
	TypeServiceData32    = 0x20
	TypeServiceData128   = 0x21
	TypeURI              = 0x24
	TypeManufacturerData = 0xff
)

const (
	maxFlagBit      = 4
	uuid16Size      = 2
	uuid32Size      = 4
	uuid128Size     = 16
	companyCodeSize = 2
)

// DecodeRecord decodes the value of a single AD record. Unrecognized type
// codes yield an empty Properties and are reported to opts.OnUnknownType.
func DecodeRecord(typeCode byte, value []byte, libraries []Library, indices []Index, opts Options) (*Properties, error) {
	return decodeRecord(typeCode, value, chain{libraries: libraries, indices: resolveIndices(indices, opts)}, opts)
}

func decodeRecord(typeCode byte, value []byte, c chain, opts Options) (*Properties, error) {
	switch typeCode {
	case TypeFlags:
		return decodeFlags(value)
	case TypeSomeUUID16, TypeAllUUID16:
		return decodeUUIDs(value, uuid16Size, uuid16, c, LookupContext{ProtocolBLE, LookupUUID16})
	case TypeSomeUUID32, TypeAllUUID32:
		return decodeUUIDs(value, uuid32Size, uuid32, c, LookupContext{ProtocolBLE, LookupUUID32})
	case TypeSomeUUID128, TypeAllUUID128:
		return decodeUUIDs(value, uuid128Size, uuid128, c, LookupContext{Protocol: ProtocolBLE})
	case TypeShortName, TypeCompleteName:
		name := string(value)
		return &Properties{Name: &name}, nil
	case TypeTxPower:
		if len(value) < 1 {
			return nil, fmt.Errorf("tx power: %w", ErrValueTooShort)
		}
		txPower := int8(value[0])
		return &Properties{TxPower: &txPower}, nil
	case TypeAppearance:
		if len(value) < 2 {
			return nil, fmt.Errorf("appearance: %w", ErrValueTooShort)
		}
		appearance := binary.LittleEndian.Uint16(value)
		return &Properties{Appearance: &appearance}, nil
	case TypeServiceData16:
		return decodeServiceData(value, uuid16Size, uuid16, c, LookupContext{ProtocolBLE, LookupUUID16})
	case TypeServiceData32:
		return decodeServiceData(value, uuid32Size, uuid32, c, LookupContext{ProtocolBLE, LookupUUID32})
	case TypeServiceData128:
		return decodeServiceData(value, uuid128Size, uuid128, c, LookupContext{Protocol: ProtocolBLE})
	case TypeURI:
		return decodeURI(value)
	case TypeManufacturerData:
		return decodeManufacturerData(value, c)
	}

	if opts.OnUnknownType != nil {
		opts.OnUnknownType(typeCode)
	}
	return &Properties{}, nil
}

func decodeFlags(value []byte) (*Properties, error) {
	if len(value) < 1 {
		return nil, fmt.Errorf("flags: %w", ErrValueTooShort)
	}
	flags := []int{}
	for bit := 0; bit <= maxFlagBit; bit++ {
		if value[0]&(1<<bit) != 0 {
			flags = append(flags, bit)
		}
	}
	return &Properties{Flags: flags}, nil
}

func decodeUUIDs(value []byte, size int, format func([]byte) string, c chain, ctx LookupContext) (*Properties, error) {
	if len(value)%size != 0 {
		return nil, fmt.Errorf("%d-bit UUIDs in %d bytes: %w", size*8, len(value), ErrInvalidUUIDLength)
	}
	uuids := make([]string, 0, len(value)/size)
	for i := 0; i < len(value); i += size {
		uuids = append(uuids, format(value[i:i+size]))
	}

	return &Properties{UUIDs: uuids, URI: c.lookupFirst(uuids, ctx)}, nil
}

func decodeServiceData(value []byte, size int, format func([]byte) string, c chain, ctx LookupContext) (*Properties, error) {
	if len(value) < size {
		return nil, fmt.Errorf("%d-bit service data: %w", size*8, ErrValueTooShort)
	}
	uuid := format(value[:size])
	data := value[size:]

	props := c.serviceData(uuid, data)
	if props == nil {
		props = &Properties{ServiceData: []ServiceData{{UUID: uuid, Data: hex.EncodeToString(data)}}}
	} else {
		props = props.clone()
	}
	attachURI(props, c, uuid, ctx)
	return props, nil
}

func decodeManufacturerData(value []byte, c chain) (*Properties, error) {
	if len(value) < companyCodeSize {
		return nil, fmt.Errorf("manufacturer data: %w", ErrValueTooShort)
	}
	companyCode := binary.LittleEndian.Uint16(value)
	data := value[companyCodeSize:]

	props := c.manufacturerData(companyCode, data)
	if props == nil {
		props = &Properties{ManufacturerSpecificData: []ManufacturerData{{CompanyCode: companyCode, Data: hex.EncodeToString(data)}}}
	} else {
		props = props.clone()
	}
	attachURI(props, c, companyCodeHex(companyCode), LookupContext{ProtocolBLE, LookupCompanyCode})
	return props, nil
}

// attachURI sets an index-resolved URI unless a library already supplied one.
// props must be owned by the core.
func attachURI(props *Properties, c chain, identifier string, ctx LookupContext) {
	if props.URI != "" {
		return
	}
	props.URI = c.lookup(identifier, ctx)
}

func decodeURI(value []byte) (*Properties, error) {
	if len(value) < 1 {
		return nil, fmt.Errorf("uri: %w", ErrValueTooShort)
	}
	scheme, ok := uriScheme(value[0])
	if !ok {
		return nil, fmt.Errorf("uri scheme 0x%02x: %w", value[0], ErrInvalidURIScheme)
	}
	return &Properties{URI: scheme + string(value[1:])}, nil
}
