package main

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/emmanuel-e2/ble-parser/advlib"
)

var (
	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ble_parser_messages_total",
		Help: "Gateway messages handled, by outcome",
	}, []string{"status"})

	decodeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ble_parser_decode_failures_total",
		Help: "Advertisements that failed to decode, by reason",
	}, []string{"reason"})

	unknownADTypes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ble_parser_unknown_ad_types_total",
		Help: "AD records with a type code the decoder does not interpret",
	}, []string{"type"})

	decodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ble_parser_decode_duration_seconds",
		Help:    "Time spent decoding one advertisement",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
	})
)

func countUnknownADType(typeCode byte) {
	unknownADTypes.WithLabelValues(fmt.Sprintf("0x%02x", typeCode)).Inc()
}

// failureReason maps a decode error to a low-cardinality label.
func failureReason(err error) string {
	switch {
	case errors.Is(err, advlib.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, advlib.ErrTooShort):
		return "too_short"
	case errors.Is(err, advlib.ErrRecordOverrun):
		return "record_overrun"
	case errors.Is(err, advlib.ErrInvalidUUIDLength):
		return "uuid_length"
	case errors.Is(err, advlib.ErrValueTooShort):
		return "value_too_short"
	case errors.Is(err, advlib.ErrInvalidURIScheme):
		return "uri_scheme"
	case errors.Is(err, advlib.ErrUnhandledProtocolData):
		return "unhandled_protocol_data"
	}
	return "other"
}
