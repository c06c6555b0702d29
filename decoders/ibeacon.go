package decoders

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/emmanuel-e2/ble-parser/advlib"
)

// AppleCompanyCode is the Bluetooth SIG company identifier of Apple, Inc.
const AppleCompanyCode = 0x004c

const (
	iBeaconType   = 0x02
	iBeaconLength = 0x15
	// type(1) + length(1) + uuid(16) + major(2) + minor(2) + measured power(1)
	iBeaconSize = 23
)

// IBeacon decodes Apple iBeacon manufacturer specific data.
// Layout: [0x02][0x15][UUID:16][Major:2 BE][Minor:2 BE][MeasuredPower:1]
type IBeacon struct{}

func (IBeacon) ProcessManufacturerSpecificData(companyCode uint16, data []byte) *advlib.Properties {
	if companyCode != AppleCompanyCode || len(data) < iBeaconSize {
		return nil
	}
	if data[0] != iBeaconType || data[1] != iBeaconLength {
		return nil
	}

	id, err := uuid.FromBytes(data[2:18])
	if err != nil {
		return nil
	}
	major := binary.BigEndian.Uint16(data[18:20])
	minor := binary.BigEndian.Uint16(data[20:22])
	measured := int8(data[22])

	return &advlib.Properties{
		UUIDs:     []string{hex.EncodeToString(data[2:18])},
		DeviceIDs: []string{fmt.Sprintf("%s/%04x/%04x", hex.EncodeToString(data[2:18]), major, minor)},
		TxPower:   &measured,
		Extra: map[string]any{
			"iBeacon": map[string]any{
				"uuid":  id.String(),
				"major": major,
				"minor": minor,
			},
		},
	}
}
