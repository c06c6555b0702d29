package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/emmanuel-e2/ble-parser/advlib"
	"github.com/emmanuel-e2/ble-parser/decoders"
	"github.com/emmanuel-e2/ble-parser/index"
)

// advDecoder carries the extension chain shared by every request.
// It is read-only after newAdvDecoder returns.
type advDecoder struct {
	libraries []advlib.Library
	indices   []advlib.Index
	defaults  advlib.Options
}

// newAdvDecoder builds the library and index chains from cfg. Index priority:
// inline config entries, then index files in order, then the database table.
func newAdvDecoder(ctx context.Context, cfg *Config, q index.Querier) (*advDecoder, error) {
	libs, err := decoders.Libraries(cfg.Libraries)
	if err != nil {
		return nil, err
	}

	var indices []advlib.Index
	inline, err := index.NewStatic(cfg.Indices)
	if err != nil {
		return nil, fmt.Errorf("inline indices: %w", err)
	}
	if inline.Len() > 0 {
		indices = append(indices, inline)
	}
	for _, path := range cfg.IndexFiles {
		s, err := index.LoadFile(path)
		if err != nil {
			return nil, err
		}
		log.Printf("index file %s loaded entries=%d", path, s.Len())
		indices = append(indices, s)
	}
	if cfg.IndexFromDB && q != nil {
		s, err := index.LoadPostgres(ctx, q)
		if err != nil {
			return nil, err
		}
		log.Printf("index table ble_uri_index loaded entries=%d", s.Len())
		indices = append(indices, s)
	}

	return &advDecoder{
		libraries: libs,
		indices:   indices,
		defaults: advlib.Options{
			IgnoreProtocolOverhead: cfg.Decode.IgnoreProtocolOverhead,
			IsPayloadOnly:          cfg.Decode.PayloadOnly,
			OnUnknownType:          countUnknownADType,
		},
	}, nil
}

// decodeRequest selects per-request overrides of the configured options.
type decodeRequest struct {
	Data                   string `json:"data"`
	IgnoreProtocolOverhead *bool  `json:"ignoreProtocolOverhead,omitempty"`
	IsPayloadOnly          *bool  `json:"isPayloadOnly,omitempty"`
}

func (d *advDecoder) options(req decodeRequest) advlib.Options {
	opts := d.defaults
	if req.IgnoreProtocolOverhead != nil {
		opts.IgnoreProtocolOverhead = *req.IgnoreProtocolOverhead
	}
	if req.IsPayloadOnly != nil {
		opts.IsPayloadOnly = *req.IsPayloadOnly
	}
	return opts
}

// decode runs one advertisement (hex) through advlib and records metrics.
func (d *advDecoder) decode(req decodeRequest) (*advlib.Properties, error) {
	start := time.Now()
	props, err := advlib.Decode(strings.TrimSpace(req.Data), d.libraries, d.indices, d.options(req))
	decodeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		decodeFailures.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}
	return props, nil
}
