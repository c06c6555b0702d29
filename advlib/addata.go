package advlib

import "fmt"

// ParseAll decodes every AD record in payload starting at offset and merges
// them into one Properties. Any record whose length byte reaches past the end
// of payload fails the whole call.
func ParseAll(payload []byte, offset int, libraries []Library, indices []Index, opts Options) (*Properties, error) {
	return parseAll(payload, offset, chain{libraries: libraries, indices: resolveIndices(indices, opts)}, opts)
}

func parseAll(payload []byte, offset int, c chain, opts Options) (*Properties, error) {
	if offset < 0 || offset > len(payload) {
		return nil, fmt.Errorf("AD offset %d in %d bytes: %w", offset, len(payload), ErrTooShort)
	}

	acc := &Properties{}
	for i := offset; i < len(payload); {
		length := int(payload[i])
		if i+length+1 > len(payload) {
			return nil, fmt.Errorf("AD record at %d length %d in %d bytes: %w", i, length, len(payload), ErrRecordOverrun)
		}
		// zero length is padding: no type byte follows
		if length == 0 {
			i++
			continue
		}

		typeCode := payload[i+1]
		value := payload[i+2 : i+1+length]
		props, err := decodeRecord(typeCode, value, c, opts)
		if err != nil {
			return nil, fmt.Errorf("AD record at %d type 0x%02x: %w", i, typeCode, err)
		}
		acc = Merge(acc, props)
		i += length + 1
	}
	return acc, nil
}
