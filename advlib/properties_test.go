package advlib

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	acc := &Properties{
		UUIDs:       []string{"feed"},
		ServiceData: []ServiceData{{UUID: "feaa", Data: "00"}},
		Name:        strPtr("first"),
		URI:         "https://example.org/a",
		Extra:       map[string]any{"temperature": 21.5},
	}
	in := &Properties{
		UUIDs:       []string{"feaa", "feed"},
		ServiceData: []ServiceData{{UUID: "feaa", Data: "00"}, {UUID: "feaa", Data: "01"}},
		DeviceIDs:   []string{"x", "x"},
		Name:        strPtr("second"),
		Extra:       map[string]any{"temperature": 22.0, "humidity": 40.0},
	}

	out := Merge(acc, in)
	assert.Same(t, acc, out)
	assert.Equal(t, []string{"feed", "feaa"}, out.UUIDs)
	assert.Equal(t, []ServiceData{{UUID: "feaa", Data: "00"}, {UUID: "feaa", Data: "01"}}, out.ServiceData)
	assert.Equal(t, []string{"x"}, out.DeviceIDs)
	assert.Equal(t, "second", *out.Name)
	assert.Equal(t, "https://example.org/a", out.URI)
	assert.Equal(t, map[string]any{"temperature": 22.0, "humidity": 40.0}, out.Extra)
}

func TestMergeCopiesFlags(t *testing.T) {
	in := &Properties{Flags: []int{1, 2}}
	out := Merge(nil, in)
	out.Flags[0] = 4
	assert.Equal(t, []int{1, 2}, in.Flags)
}

func TestMergeNil(t *testing.T) {
	assert.Equal(t, &Properties{}, Merge(nil, nil))

	p := &Properties{URI: "u"}
	assert.Same(t, p, Merge(p, nil))
}

func TestPropertiesJSON(t *testing.T) {
	txPower := int8(-12)
	p := &Properties{
		RxAdd:                    "public",
		TxAdd:                    "random",
		Type:                     "ADV_IND",
		Length:                   intPtr(6),
		AdvA:                     "0123456789ab",
		Flags:                    []int{},
		TxPower:                  &txPower,
		ManufacturerSpecificData: []ManufacturerData{{CompanyCode: 76, Data: "09"}},
		Extra: map[string]any{
			"advA":    "shadowed",
			"uuids":   []string{"x", "x"},
			"scanA":   "ffffffffffff",
			"battery": 3000,
		},
	}

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"rxAdd": "public",
		"txAdd": "random",
		"type": "ADV_IND",
		"length": 6,
		"advA": "0123456789ab",
		"flags": [],
		"txPower": -12,
		"manufacturerSpecificData": [{"companyCode": 76, "data": "09"}],
		"battery": 3000
	}`, string(b))
}

func TestMapDropsKnownKeysFromExtra(t *testing.T) {
	lib := serviceLib{uuid: "feaa", props: func([]byte) *Properties {
		return &Properties{Extra: map[string]any{"advA": "ffffffffffff", "uuids": []string{"x", "x"}, "frame": 16}}
	}}

	props, err := Decode("c219ab89674523010516aafe10ff", []Library{lib}, nil, Options{IgnoreProtocolOverhead: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"uri": DefaultURI, "frame": 16}, props.Map())
}
