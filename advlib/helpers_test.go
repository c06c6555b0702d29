package advlib

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

// mapIndex resolves identifiers tagged with a given lookup type.
type mapIndex struct {
	typ  string
	uris map[string]string
}

func (m mapIndex) Lookup(identifier string, ctx LookupContext) string {
	if ctx.Protocol != ProtocolBLE || ctx.Type != m.typ {
		return ""
	}
	return m.uris[identifier]
}

type serviceLib struct {
	uuid  string
	props func(data []byte) *Properties
}

func (l serviceLib) ProcessServiceData(uuid string, data []byte) *Properties {
	if uuid != l.uuid {
		return nil
	}
	return l.props(data)
}

type manufacturerLib struct {
	companyCode uint16
	props       func(data []byte) *Properties
}

func (l manufacturerLib) ProcessManufacturerSpecificData(companyCode uint16, data []byte) *Properties {
	if companyCode != l.companyCode {
		return nil
	}
	return l.props(data)
}
