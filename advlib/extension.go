package advlib

// Library is a caller-supplied decoder for vendor- or service-specific payloads.
// It may implement any of ManufacturerDataProcessor, ServiceDataProcessor and
// ProtocolSpecificProcessor; capabilities it lacks are skipped.
// Implementations must be safe for concurrent use and must not retain data.
type Library any

// ManufacturerDataProcessor decodes manufacturer specific data for a company code.
// It returns nil when it does not recognize the payload.
type ManufacturerDataProcessor interface {
	ProcessManufacturerSpecificData(companyCode uint16, data []byte) *Properties
}

// ServiceDataProcessor decodes service data for a UUID (lowercase hex, 4, 8 or 32 digits).
// It returns nil when it does not recognize the payload.
type ServiceDataProcessor interface {
	ProcessServiceData(uuid string, data []byte) *Properties
}

// ProtocolSpecificProcessor decodes already-structured protocol-specific data
// that bypasses binary parsing. It returns nil when it does not recognize data.
type ProtocolSpecificProcessor interface {
	ProcessProtocolSpecificData(data any) *Properties
}

// LookupContext tags an identifier handed to an Index.
type LookupContext struct {
	Protocol string
	Type     string
}

const (
	ProtocolBLE = "ble"

	LookupUUID16      = "uuid16"
	LookupUUID32      = "uuid32"
	LookupCompanyCode = "companyCode"
)

// Index resolves an identifier to a descriptive URI. An empty result means
// the identifier is unknown to this index.
type Index interface {
	Lookup(identifier string, ctx LookupContext) string
}

// chain is the ordered, read-only set of extensions consulted per record.
type chain struct {
	libraries []Library
	indices   []Index
}

func (c chain) serviceData(uuid string, data []byte) *Properties {
	for _, lib := range c.libraries {
		p, ok := lib.(ServiceDataProcessor)
		if !ok {
			continue
		}
		if props := p.ProcessServiceData(uuid, data); props != nil {
			return props
		}
	}
	return nil
}

func (c chain) manufacturerData(companyCode uint16, data []byte) *Properties {
	for _, lib := range c.libraries {
		p, ok := lib.(ManufacturerDataProcessor)
		if !ok {
			continue
		}
		if props := p.ProcessManufacturerSpecificData(companyCode, data); props != nil {
			return props
		}
	}
	return nil
}

func (c chain) protocolSpecific(data any) *Properties {
	for _, lib := range c.libraries {
		p, ok := lib.(ProtocolSpecificProcessor)
		if !ok {
			continue
		}
		if props := p.ProcessProtocolSpecificData(data); props != nil {
			return props
		}
	}
	return nil
}

func (c chain) lookup(identifier string, ctx LookupContext) string {
	for _, idx := range c.indices {
		if idx == nil {
			continue
		}
		if uri := idx.Lookup(identifier, ctx); uri != "" {
			return uri
		}
	}
	return ""
}

// lookupFirst resolves the first identifier in ids that any index knows.
func (c chain) lookupFirst(ids []string, ctx LookupContext) string {
	if len(c.indices) == 0 {
		return ""
	}
	for _, id := range ids {
		if uri := c.lookup(id, ctx); uri != "" {
			return uri
		}
	}
	return ""
}
