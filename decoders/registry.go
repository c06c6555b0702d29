// Package decoders holds the advlib Libraries the parser service registers:
// vendor payload decoders selected by service data UUID or company code.
package decoders

import (
	"fmt"

	"github.com/emmanuel-e2/ble-parser/advlib"
)

// registry maps configuration names to libraries, in default priority order.
var registry = []struct {
	name string
	lib  advlib.Library
}{
	{"moko_h4pro", MokoH4Pro{}},
	{"ibeacon", IBeacon{}},
}

// Names lists every registered library name in default order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, r := range registry {
		names = append(names, r.name)
	}
	return names
}

// Libraries resolves names to libraries, keeping the given order.
// An empty list selects every registered library.
func Libraries(names []string) ([]advlib.Library, error) {
	if len(names) == 0 {
		names = Names()
	}
	libs := make([]advlib.Library, 0, len(names))
	for _, name := range names {
		lib, ok := lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown decoder library %q", name)
		}
		libs = append(libs, lib)
	}
	return libs, nil
}

func lookup(name string) (advlib.Library, bool) {
	for _, r := range registry {
		if r.name == name {
			return r.lib, true
		}
	}
	return nil, false
}
