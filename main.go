package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/fxamacker/cbor/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emmanuel-e2/ble-parser/index"
)

type MQTTMessage struct {
	MessageID  int64  `json:"message_id"`
	GatewayMAC string `json:"gateway_mac"`
	GatewayHW  string `json:"gateway_hw"`
	DeviceMAC  string `json:"device_mac"`
	Payload    string `json:"payload"`
	RawPDU     *bool  `json:"raw_pdu,omitempty"`
	QoS        int    `json:"qos"`
	Timestamp  int64  `json:"timestamp"`
	RSSI       *int   `json:"rssi,omitempty"`
}

// server holds what request handlers share. Handlers only read it.
type server struct {
	cfg     *Config
	decoder *advDecoder
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := connectDB(ctx, cfg.DB); err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pg.Close()

	if err := initPubSub(ctx, cfg.Callback); err != nil {
		log.Fatalf("initPubSub: %v", err)
	}
	defer closePubSub()

	var q index.Querier
	if pg != nil {
		q = pg
	}
	dec, err := newAdvDecoder(ctx, cfg, q)
	if err != nil {
		log.Fatalf("decoder: %v", err)
	}
	log.Printf("decoder ready libraries=%d indices=%d payload_only=%v", len(dec.libraries), len(dec.indices), dec.defaults.IsPayloadOnly)

	s := &server{cfg: cfg, decoder: dec}
	addr := ":" + cfg.HTTPPort
	log.Printf("parser listening on %s", addr)
	if err := http.ListenAndServe(addr, s.routes()); err != nil && err != http.ErrServerClosed {
		log.Fatalf("ListenAndServe: %v", err)
	}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("parser ok"))
	})
	mux.HandleFunc("/message", s.handleMessage)
	mux.HandleFunc("/decode", s.handleDecode)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("parser"))
	})
	return mux
}

func (s *server) handleMessage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	trace := genTraceID()
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "only POST", http.StatusMethodNotAllowed)
		return
	}

	var in MQTTMessage
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.Printf("MSG %s decode error: %v", trace, err)
		messagesTotal.WithLabelValues("bad_request").Inc()
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	normalize(&in)
	log.Printf("MSG %s recv msg_id=%d gw_mac=%s gw_hw=%s dev_mac=%s qos=%d ts=%d rssi=%v raw_pdu=%s",
		trace, in.MessageID, in.GatewayMAC, in.GatewayHW, in.DeviceMAC, in.QoS, in.Timestamp, ptrIntStr(in.RSSI), ptrBoolStr(in.RawPDU))

	if err := validate(&in); err != nil {
		log.Printf("MSG %s validation error: %v", trace, err)
		messagesTotal.WithLabelValues("bad_request").Inc()
		http.Error(w, "validation: "+err.Error(), http.StatusBadRequest)
		return
	}
	log.Printf("MSG %s payload.len=%d preview=%q", trace, len(in.Payload), head(in.Payload, s.cfg.LogPayloadPreviewChars))

	gw := lookupGateway(ctx, in.GatewayMAC)
	if gw == (gatewayInfo{}) {
		log.Printf("MSG %s gateway not found gw_mac=%s", trace, in.GatewayMAC)
	} else {
		log.Printf("MSG %s gateway ok name=%q hw=%q client_id=%q", trace, gw.Name, gw.HWType, gw.ClientID)
	}

	// Unknown devices are still decoded generically.
	dev := lookupDevice(ctx, in.DeviceMAC)
	if dev.HWType == "" {
		log.Printf("MSG %s device not found dev_mac=%s", trace, in.DeviceMAC)
	} else {
		log.Printf("MSG %s device ok name=%q hw=%q", trace, dev.Name, dev.HWType)
	}

	props, err := s.decoder.decode(messageDecodeRequest(in))
	if err != nil {
		log.Printf("MSG %s parse error: %v", trace, err)
		messagesTotal.WithLabelValues("decode_error").Inc()
		http.Error(w, "parse error: "+err.Error(), http.StatusBadRequest)
		return
	}
	log.Printf("MSG %s decode ok uri=%q service_data=%d manufacturer_data=%d",
		trace, props.URI, len(props.ServiceData), len(props.ManufacturerSpecificData))

	if err := storeParsedJSON(ctx, in.MessageID, props); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			log.Printf("MSG %s db update error: %s (%s) detail=%s", trace, pgErr.Message, pgErr.Code, pgErr.Detail)
		} else {
			log.Printf("MSG %s db update error: %v", trace, err)
		}
		messagesTotal.WithLabelValues("db_error").Inc()
		http.Error(w, "db update parsed_json: "+err.Error(), http.StatusInternalServerError)
		return
	}
	log.Printf("MSG %s db update ok message_id=%d", trace, in.MessageID)

	evt := newCallbackEvent(in, dev, props)
	if cbPublisher != nil {
		if err := publishCallback(ctx, evt); err != nil {
			// non fatal, parsed_json is already stored
			log.Printf("MSG %s publishCallback error: %v", trace, err)
		} else {
			log.Printf("MSG %s publishCallback ok topic=%s, device=%s", trace, callbackTopic, evt.DeviceId)
		}
	} else {
		log.Printf("MSG %s pubsub not initialized; skipping publish", trace)
	}

	messagesTotal.WithLabelValues("ok").Inc()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":     "ok",
		"message_id": in.MessageID,
		"type":       evt.Type,
		"uri":        props.URI,
		"ms":         time.Since(start).Milliseconds(),
	})
}

// handleDecode decodes one advertisement without touching storage.
// Responds with CBOR when the client accepts application/cbor.
func (s *server) handleDecode(w http.ResponseWriter, r *http.Request) {
	trace := genTraceID()
	if r.Method != http.MethodPost {
		http.Error(w, "only POST", http.StatusMethodNotAllowed)
		return
	}

	var req decodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	props, err := s.decoder.decode(req)
	if err != nil {
		log.Printf("DECODE %s error: %v", trace, err)
		http.Error(w, "parse error: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/cbor") {
		b, err := cbor.Marshal(props.Map())
		if err != nil {
			http.Error(w, "cbor: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/cbor")
		_, _ = w.Write(b)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(props)
}

// messageDecodeRequest keeps the configured payload mode unless the gateway
// says whether it forwarded a whole PDU.
func messageDecodeRequest(in MQTTMessage) decodeRequest {
	req := decodeRequest{Data: in.Payload}
	if in.RawPDU != nil {
		payloadOnly := !*in.RawPDU
		req.IsPayloadOnly = &payloadOnly
	}
	return req
}

func normalize(m *MQTTMessage) {
	m.DeviceMAC = strings.ToLower(strings.NewReplacer(":", "", "-", "", ".", "", " ", "").Replace(m.DeviceMAC))
	m.GatewayMAC = strings.ToUpper(strings.NewReplacer(":", "", "-", "", ".", "", " ", "").Replace(m.GatewayMAC))
	m.Payload = strings.ToLower(strings.TrimSpace(m.Payload))
}

func validate(m *MQTTMessage) error {
	if m.MessageID <= 0 {
		return fmt.Errorf("message_id must be > 0")
	}
	if m.DeviceMAC == "" {
		return fmt.Errorf("device_mac required")
	}
	if m.Payload == "" {
		return fmt.Errorf("payload empty")
	}
	if m.Timestamp <= 0 {
		return fmt.Errorf("timestamp ms required")
	}
	// hex sanity (fast path)
	if !isLikelyHex(m.Payload) {
		return fmt.Errorf("payload is not hex-like")
	}
	return nil
}

func head(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

func isLikelyHex(s string) bool {
	if len(s) == 0 || (len(s)%2) != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

func ptrIntStr(p *int) string {
	if p == nil {
		return "nil"
	}
	return fmt.Sprintf("%d", *p)
}

func ptrBoolStr(p *bool) string {
	if p == nil {
		return "nil"
	}
	return strconv.FormatBool(*p)
}

func genTraceID() string {
	return fmt.Sprintf("%08x", rand.Uint32())
}

func slugDeviceFamily(s string) string {
	// minimal, predictable slug for device family (e.g., "H4 Pro" -> "h4-pro")
	b := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b = append(b, unicode.ToLower(r))
		case r == ' ' || r == '_' || r == '-' || r == '/':
			if len(b) == 0 || b[len(b)-1] == '-' {
				continue
			}
			b = append(b, '-')
		}
	}
	if len(b) > 0 && b[len(b)-1] == '-' {
		b = b[:len(b)-1]
	}
	if len(b) == 0 {
		return "unknown"
	}
	return string(b)
}
