package decoders

import (
	"fmt"
	"log"

	"github.com/emmanuel-e2/ble-parser/advlib"
)

// MokoServiceUUID is the 16-bit service data UUID used by MOKO beacons.
const MokoServiceUUID = "feab"

const (
	mokoFrameTH   = 0x70
	mokoFrameInfo = 0x40
)

// MokoH4Pro decodes MOKO H4 Pro temperature & humidity and device info frames.
type MokoH4Pro struct{}

func (MokoH4Pro) ProcessServiceData(uuid string, data []byte) *advlib.Properties {
	if uuid != MokoServiceUUID || len(data) == 0 {
		return nil
	}
	frameType, p := data[0], data[1:]

	var out map[string]any
	switch frameType {
	case mokoFrameTH:
		log.Printf("DEC H4Pro frame=0x70 T&H len=%d", len(p))
		out = buildTH(p)
	case mokoFrameInfo:
		log.Printf("DEC H4Pro frame=0x40 INFO len=%d", len(p))
		out = buildInfo(p)
	default:
		return nil
	}
	out["frame_type"] = fmt.Sprintf("0x%02X", frameType)
	return &advlib.Properties{Extra: out}
}

func u16be(b []byte, off *int) (int, bool) {
	if len(b) < *off+2 {
		return 0, false
	}
	v := int(b[*off])<<8 | int(b[*off+1])
	*off += 2
	return v, true
}

func i16be(b []byte, off *int) (int, bool) {
	if len(b) < *off+2 {
		return 0, false
	}
	v := int(int16(b[*off])<<8 | int16(b[*off+1]))
	*off += 2
	return v, true
}

// advInterval reads the ranging byte and the advertising interval (1 step = 100 ms).
func advInterval(out map[string]any, p []byte, off *int) {
	if len(p) >= *off+1 {
		*off++
	}
	if len(p) >= *off+1 {
		steps := int(p[*off])
		*off++
		out["adv_interval_steps"] = steps
		out["adv_interval_ms"] = steps * 100
	}
}

func buildTH(p []byte) map[string]any {
	out := map[string]any{"message_type": "h4pro-t&h"}

	off := 0
	advInterval(out, p, &off)
	// Temp i16 (/10)
	if v, ok := i16be(p, &off); ok {
		out["temperature"] = float64(v) / 10.0
	}
	// Humidity u16 (/10)
	if v, ok := u16be(p, &off); ok {
		out["humidity"] = float64(v) / 10.0
	}
	// Battery mV
	if v, ok := u16be(p, &off); ok {
		out["batt_vol"] = v
	}
	if len(p) >= off+1 {
		out["device_type"] = int(p[off])
		off++
	}
	// MAC in frame (6) is ignored
	if len(p) >= off+6 {
		off += 6
	}
	if rem := len(p) - off; rem > 0 {
		log.Printf("DEC H4Pro TH trailing_bytes=%d off=%d", rem, off)
	}
	return out
}

func buildInfo(p []byte) map[string]any {
	out := map[string]any{"message_type": "h4pro-info"}

	off := 0
	advInterval(out, p, &off)
	if v, ok := u16be(p, &off); ok {
		out["batt_vol"] = v
	}
	// Device property indicator (1)
	if len(p) >= off+1 {
		val := int(p[off])
		off++
		out["device_prop"] = val
		out["device_prop_bits"] = fmt.Sprintf("%08b", val)
	}
	// Switch status indicator (1)
	if len(p) >= off+1 {
		val := int(p[off])
		off++
		out["switch_status"] = val
		out["switch_status_bits"] = fmt.Sprintf("%08b", val)
	}
	// MAC in frame (6)
	if len(p) >= off+6 {
		off += 6
	}
	// Firmware version (u16 → V0.0.<n>)
	if v, ok := u16be(p, &off); ok {
		out["firmware_ver"] = fmt.Sprintf("V0.0.%d", v)
	}
	return out
}
