package advlib

import (
	"encoding/json"
	"slices"
)

// ServiceData is one service data entry with its payload as lowercase hex.
type ServiceData struct {
	UUID string `json:"uuid" cbor:"uuid"`
	Data string `json:"data" cbor:"data"`
}

// ManufacturerData is one manufacturer specific data entry with its payload as lowercase hex.
type ManufacturerData struct {
	CompanyCode uint16 `json:"companyCode" cbor:"companyCode"`
	Data        string `json:"data" cbor:"data"`
}

// Properties is the decoded form of a PDU or AD payload. Zero values mean
// "absent": nil slices, nil pointers and empty strings are omitted when rendered.
type Properties struct {
	// header
	RxAdd  string
	TxAdd  string
	Type   string
	Length *int

	// addresses
	AdvA    string
	TargetA string
	ScanA   string
	InitA   string

	Flags                    []int
	UUIDs                    []string
	Name                     *string
	TxPower                  *int8
	Appearance               *uint16
	ServiceData              []ServiceData
	ManufacturerSpecificData []ManufacturerData
	URI                      string
	DeviceIDs                []string

	// Extra holds library-contributed fields outside the known keys.
	Extra map[string]any
}

// Merge folds in into acc and returns acc. Array fields (uuids, deviceIds,
// serviceData, manufacturerSpecificData) gain only the entries not already
// present; every other field present in in overwrites acc.
func Merge(acc, in *Properties) *Properties {
	if acc == nil {
		acc = &Properties{}
	}
	if in == nil {
		return acc
	}

	overwrite(&acc.RxAdd, in.RxAdd)
	overwrite(&acc.TxAdd, in.TxAdd)
	overwrite(&acc.Type, in.Type)
	if in.Length != nil {
		acc.Length = in.Length
	}
	overwrite(&acc.AdvA, in.AdvA)
	overwrite(&acc.TargetA, in.TargetA)
	overwrite(&acc.ScanA, in.ScanA)
	overwrite(&acc.InitA, in.InitA)

	if in.Flags != nil {
		acc.Flags = slices.Clone(in.Flags)
	}
	acc.UUIDs = appendUnique(acc.UUIDs, in.UUIDs)
	if in.Name != nil {
		acc.Name = in.Name
	}
	if in.TxPower != nil {
		acc.TxPower = in.TxPower
	}
	if in.Appearance != nil {
		acc.Appearance = in.Appearance
	}
	acc.ServiceData = appendUnique(acc.ServiceData, in.ServiceData)
	acc.ManufacturerSpecificData = appendUnique(acc.ManufacturerSpecificData, in.ManufacturerSpecificData)
	overwrite(&acc.URI, in.URI)
	acc.DeviceIDs = appendUnique(acc.DeviceIDs, in.DeviceIDs)

	for k, v := range in.Extra {
		if acc.Extra == nil {
			acc.Extra = make(map[string]any, len(in.Extra))
		}
		acc.Extra[k] = v
	}
	return acc
}

// clone returns a shallow copy of p. Library results are cloned before the
// core writes to them, so a Library may hand out shared values.
func (p *Properties) clone() *Properties {
	cp := *p
	return &cp
}

func overwrite(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// appendUnique appends the entries of in missing from acc, keeping first-seen order.
// in is deduplicated against itself as well.
func appendUnique[T comparable](acc, in []T) []T {
	if in == nil {
		return acc
	}
	if acc == nil {
		acc = make([]T, 0, len(in))
	}
	for _, v := range in {
		if !slices.Contains(acc, v) {
			acc = append(acc, v)
		}
	}
	return acc
}

// knownKeys are the wire names of the fixed Properties fields.
var knownKeys = map[string]struct{}{
	"rxAdd": {}, "txAdd": {}, "type": {}, "length": {},
	"advA": {}, "targetA": {}, "scanA": {}, "initA": {},
	"flags": {}, "uuids": {}, "name": {}, "txPower": {}, "appearance": {},
	"serviceData": {}, "manufacturerSpecificData": {}, "uri": {}, "deviceIds": {},
}

// Map renders p as a JSON-compatible mapping using the wire key names.
// Extra keys named like a known field are dropped, set or not.
func (p *Properties) Map() map[string]any {
	if p == nil {
		return nil
	}
	m := make(map[string]any, len(p.Extra)+8)
	for k, v := range p.Extra {
		if _, known := knownKeys[k]; known {
			continue
		}
		m[k] = v
	}

	put := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	put("rxAdd", p.RxAdd)
	put("txAdd", p.TxAdd)
	put("type", p.Type)
	if p.Length != nil {
		m["length"] = *p.Length
	}
	put("advA", p.AdvA)
	put("targetA", p.TargetA)
	put("scanA", p.ScanA)
	put("initA", p.InitA)

	if p.Flags != nil {
		m["flags"] = p.Flags
	}
	if p.UUIDs != nil {
		m["uuids"] = p.UUIDs
	}
	if p.Name != nil {
		m["name"] = *p.Name
	}
	if p.TxPower != nil {
		m["txPower"] = *p.TxPower
	}
	if p.Appearance != nil {
		m["appearance"] = *p.Appearance
	}
	if p.ServiceData != nil {
		m["serviceData"] = p.ServiceData
	}
	if p.ManufacturerSpecificData != nil {
		m["manufacturerSpecificData"] = p.ManufacturerSpecificData
	}
	put("uri", p.URI)
	if p.DeviceIDs != nil {
		m["deviceIds"] = p.DeviceIDs
	}
	return m
}

func (p *Properties) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Map())
}
