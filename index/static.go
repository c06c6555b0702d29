// Package index provides advlib Index implementations that resolve UUIDs
// and company codes to descriptive URIs.
package index

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/emmanuel-e2/ble-parser/advlib"
)

// Entry maps one identifier to a URI.
// Type is one of "uuid16", "uuid32", "companyCode", or empty for 128-bit UUIDs.
type Entry struct {
	Identifier string `yaml:"identifier"`
	Type       string `yaml:"type"`
	URI        string `yaml:"uri"`
}

type key struct {
	protocol string
	typ      string
	id       string
}

// Static is an immutable in-memory index for the "ble" protocol.
// Identifiers are stored lowercase without dashes.
type Static struct {
	uris map[key]string
}

// NewStatic builds an index from entries. When an identifier appears twice
// the first entry wins.
func NewStatic(entries []Entry) (*Static, error) {
	s := &Static{uris: make(map[key]string, len(entries))}
	for i, e := range entries {
		if strings.TrimSpace(e.URI) == "" {
			return nil, fmt.Errorf("index entry %d (%s): empty uri", i, e.Identifier)
		}
		typ, id, err := normalize(e.Type, e.Identifier)
		if err != nil {
			return nil, fmt.Errorf("index entry %d: %w", i, err)
		}
		k := key{protocol: advlib.ProtocolBLE, typ: typ, id: id}
		if _, ok := s.uris[k]; !ok {
			s.uris[k] = strings.TrimSpace(e.URI)
		}
	}
	return s, nil
}

// Len reports the number of distinct identifiers.
func (s *Static) Len() int {
	if s == nil {
		return 0
	}
	return len(s.uris)
}

func (s *Static) Lookup(identifier string, ctx advlib.LookupContext) string {
	if s == nil || len(s.uris) == 0 {
		return ""
	}
	return s.uris[key{protocol: ctx.Protocol, typ: ctx.Type, id: strings.ToLower(identifier)}]
}

// bluetoothBase is the Bluetooth Base UUID with the 32-bit prefix zeroed.
var bluetoothBase = uuid.MustParse("00000000-0000-1000-8000-00805f9b34fb")

// normalize validates an identifier for its type. Dashed 128-bit UUIDs built
// on the Bluetooth Base UUID are shortened to their 16- or 32-bit form.
func normalize(typ, identifier string) (string, string, error) {
	id := strings.ToLower(strings.TrimSpace(identifier))

	if strings.Contains(id, "-") {
		u, err := uuid.Parse(id)
		if err != nil {
			return "", "", fmt.Errorf("identifier %q: %w", identifier, err)
		}
		if [12]byte(u[4:]) == [12]byte(bluetoothBase[4:]) {
			if u[0] == 0 && u[1] == 0 {
				return advlib.LookupUUID16, fmt.Sprintf("%02x%02x", u[2], u[3]), nil
			}
			return advlib.LookupUUID32, fmt.Sprintf("%02x%02x%02x%02x", u[0], u[1], u[2], u[3]), nil
		}
		return "", strings.ReplaceAll(u.String(), "-", ""), nil
	}

	want := map[string]int{
		advlib.LookupUUID16:      4,
		advlib.LookupUUID32:      8,
		advlib.LookupCompanyCode: 4,
		"":                       32,
	}
	n, ok := want[typ]
	if !ok {
		return "", "", fmt.Errorf("identifier %q: unknown type %q", identifier, typ)
	}
	if _, err := hex.DecodeString(id); err != nil || len(id) != n {
		return "", "", fmt.Errorf("identifier %q: expected %d hex digits for type %q", identifier, n, typ)
	}
	return typ, id, nil
}
