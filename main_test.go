package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmanuel-e2/ble-parser/advlib"
	"github.com/emmanuel-e2/ble-parser/index"
)

func testServer(t *testing.T, cfg *Config) *server {
	t.Helper()
	dec, err := newAdvDecoder(context.Background(), cfg, nil)
	require.NoError(t, err)
	return &server{cfg: cfg, decoder: dec}
}

func postDecode(t *testing.T, s *server, body, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/decode", strings.NewReader(body))
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)
	return rec
}

func TestHandleDecodeJSON(t *testing.T) {
	cfg := defaultConfig()
	cfg.Indices = []index.Entry{{Identifier: "feaa", Type: "uuid16", URI: "https://example.org/eddystone"}}
	s := testServer(t, cfg)

	rec := postDecode(t, s, `{"data":"c219ab89674523011216aafe109f027265656c7961637469766507","isPayloadOnly":false}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"rxAdd": "random",
		"txAdd": "random",
		"type": "ADV_NONCONN_IND",
		"length": 25,
		"advA": "0123456789ab",
		"serviceData": [{"uuid": "feaa", "data": "109f027265656c7961637469766507"}],
		"uri": "https://example.org/eddystone"
	}`, rec.Body.String())
}

func TestHandleDecodePayloadOnlyDefault(t *testing.T) {
	s := testServer(t, defaultConfig())

	rec := postDecode(t, s, `{"data":"020106"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"flags":[1,2],"uri":%q}`, advlib.DefaultURI), rec.Body.String())
}

func TestHandleDecodeCBOR(t *testing.T) {
	s := testServer(t, defaultConfig())

	rec := postDecode(t, s, `{"data":"020106"}`, "application/cbor")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/cbor", rec.Header().Get("Content-Type"))

	var out map[string]any
	require.NoError(t, cbor.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, advlib.DefaultURI, out["uri"])
	assert.Len(t, out["flags"], 2)
}

func TestHandleDecodeErrors(t *testing.T) {
	s := testServer(t, defaultConfig())

	rec := postDecode(t, s, `{"data":"000f","isPayloadOnly":false}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = postDecode(t, s, `{"data":"0302edfe05"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = postDecode(t, s, `not json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/decode", nil)
	rec = httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	s := testServer(t, defaultConfig())
	postDecode(t, s, `{"data":"03ee0102"}`, "")

	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "parser ok", rec.Body.String())

	rec = httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ble_parser_unknown_ad_types_total{type="0xee"}`)
}

func TestNewAdvDecoderIndexOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
entries:
  - identifier: feaa
    type: uuid16
    uri: https://example.org/from-file
  - identifier: feed
    type: uuid16
    uri: https://example.org/feed
`), 0o644))

	cfg := defaultConfig()
	cfg.Indices = []index.Entry{{Identifier: "feaa", Type: "uuid16", URI: "https://example.org/inline"}}
	cfg.IndexFiles = []string{path}
	cfg.IndexFromDB = true // no querier: skipped

	dec, err := newAdvDecoder(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Len(t, dec.indices, 2)
	assert.Len(t, dec.libraries, 2)

	props, err := dec.decode(decodeRequest{Data: "0303aafe"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/inline", props.URI)

	props, err = dec.decode(decodeRequest{Data: "0303edfe"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/feed", props.URI)
}

func TestNewAdvDecoderErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Libraries = []string{"nope"}
	_, err := newAdvDecoder(context.Background(), cfg, nil)
	assert.Error(t, err)

	cfg = defaultConfig()
	cfg.IndexFiles = []string{filepath.Join(t.TempDir(), "missing.yaml")}
	_, err = newAdvDecoder(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parser.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_port: "9090"
decode:
  payload_only: false
  ignore_protocol_overhead: true
libraries: [ibeacon]
indices:
  - identifier: "004c"
    type: companyCode
    uri: https://example.org/apple
callback:
  delay_threshold: 100ms
  timeout: 5s
db:
  name: ble
  max_conns: 4
`), 0o644))
	t.Setenv("PARSER_CONFIG", path)
	t.Setenv("HTTPPORT", "")
	t.Setenv("LOG_PAYLOAD_PREVIEW_CHARS", "16")
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 16, cfg.LogPayloadPreviewChars)
	assert.False(t, cfg.Decode.PayloadOnly)
	assert.True(t, cfg.Decode.IgnoreProtocolOverhead)
	assert.Equal(t, []string{"ibeacon"}, cfg.Libraries)
	assert.Equal(t, 100*time.Millisecond, cfg.Callback.DelayThreshold)
	assert.Equal(t, 5*time.Second, cfg.Callback.Timeout)
	assert.Equal(t, "ble", cfg.DB.Name)
	assert.Equal(t, "secret", cfg.DB.Password)
	assert.Equal(t, int32(4), cfg.DB.MaxConns)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PARSER_CONFIG", "")
	t.Setenv("HTTPPORT", "7070")
	t.Setenv("DECODE_PAYLOAD_ONLY", "false")
	t.Setenv("DECODER_LIBRARIES", "ibeacon, moko_h4pro")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.HTTPPort)
	assert.False(t, cfg.Decode.PayloadOnly)
	assert.Equal(t, []string{"ibeacon", "moko_h4pro"}, cfg.Libraries)
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv("PARSER_CONFIG", "")
	t.Setenv("DECODER_LIBRARIES", "eddystone")
	_, err := loadConfig()
	assert.ErrorContains(t, err, "eddystone")

	t.Setenv("DECODER_LIBRARIES", "")
	t.Setenv("PARSER_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = loadConfig()
	assert.Error(t, err)
}

func TestDBConfig(t *testing.T) {
	d := DBConfig{User: "u", Password: "p", Name: "ble", Instance: "proj:region:inst", MaxConns: 10}
	require.NoError(t, d.Validate())
	assert.Equal(t, "user=u password=p database=ble sslmode=disable", d.DSN())

	d.Password = ""
	assert.Error(t, d.Validate())
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "record_overrun", failureReason(fmt.Errorf("wrapped: %w", advlib.ErrRecordOverrun)))
	assert.Equal(t, "uri_scheme", failureReason(advlib.ErrInvalidURIScheme))
	assert.Equal(t, "other", failureReason(errors.New("boom")))
}

func TestDeriveEventType(t *testing.T) {
	assert.Equal(t, "h4pro-t&h", deriveEventType("H4 Pro", &advlib.Properties{Extra: map[string]any{"message_type": "h4pro-t&h"}}))
	assert.Equal(t, "h4-pro/adv_nonconn_ind", deriveEventType("H4 Pro", &advlib.Properties{Type: "ADV_NONCONN_IND"}))
	assert.Equal(t, "unknown/adv", deriveEventType("", &advlib.Properties{}))
}

func TestNewCallbackEvent(t *testing.T) {
	rssi := -70
	in := MQTTMessage{MessageID: 7, GatewayMAC: "AABBCCDDEEFF", DeviceMAC: "0123456789ab", Payload: "020106", Timestamp: 1700000000000, RSSI: &rssi}
	props := &advlib.Properties{Flags: []int{1, 2}, URI: advlib.DefaultURI}

	evt := newCallbackEvent(in, deviceInfo{Name: "fridge", HWType: "H4 Pro"}, props)
	assert.Equal(t, "0123456789AB", evt.DeviceId)
	assert.Equal(t, "h4-pro/adv", evt.Type)
	assert.Equal(t, advlib.DefaultURI, evt.URI)
	assert.Equal(t, int64(7), evt.BackendID)
	assert.Equal(t, "fridge", evt.Data["device_name"])
	assert.Equal(t, -70, evt.Data["rssi"])

	b, err := json.Marshal(evt)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"parsed_json":{"flags":[1,2]`)
}

func TestMessageDecodeRequest(t *testing.T) {
	cfg := defaultConfig()
	cfg.Decode.PayloadOnly = false
	s := testServer(t, cfg)
	pdu := "4006ab8967452301020106"

	var in MQTTMessage
	require.NoError(t, json.Unmarshal([]byte(`{"payload":"`+pdu+`"}`), &in))
	assert.Nil(t, in.RawPDU)
	props, err := s.decoder.decode(messageDecodeRequest(in))
	require.NoError(t, err)
	assert.Equal(t, "0123456789ab", props.AdvA)
	assert.Equal(t, []int{1, 2}, props.Flags)

	require.NoError(t, json.Unmarshal([]byte(`{"payload":"020106","raw_pdu":false}`), &in))
	props, err = s.decoder.decode(messageDecodeRequest(in))
	require.NoError(t, err)
	assert.Empty(t, props.AdvA)
	assert.Equal(t, []int{1, 2}, props.Flags)

	cfg = defaultConfig()
	s = testServer(t, cfg)
	raw := true
	props, err = s.decoder.decode(messageDecodeRequest(MQTTMessage{Payload: pdu, RawPDU: &raw}))
	require.NoError(t, err)
	assert.Equal(t, "ADV_IND", props.Type)
}

func TestNormalizeAndValidate(t *testing.T) {
	m := MQTTMessage{MessageID: 1, DeviceMAC: "01:23:45:67:89:AB", GatewayMAC: "aa-bb-cc-dd-ee-ff", Payload: " 020106 ", Timestamp: 1}
	normalize(&m)
	assert.Equal(t, "0123456789ab", m.DeviceMAC)
	assert.Equal(t, "AABBCCDDEEFF", m.GatewayMAC)
	assert.Equal(t, "020106", m.Payload)
	assert.NoError(t, validate(&m))

	m.Payload = "02010"
	assert.ErrorContains(t, validate(&m), "hex-like")
	m.Payload = "020106"
	m.Timestamp = 0
	assert.ErrorContains(t, validate(&m), "timestamp")
}

func TestMacHexToBytea(t *testing.T) {
	b, err := macHexToBytea("AA:BB:CC:DD:EE:FF")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}, b)

	_, err = macHexToBytea("aabbcc")
	assert.Error(t, err)
	_, err = macHexToBytea("zz")
	assert.Error(t, err)
}

func TestSlugDeviceFamily(t *testing.T) {
	assert.Equal(t, "h4-pro", slugDeviceFamily("H4 Pro"))
	assert.Equal(t, "a-b", slugDeviceFamily("--A__B--"))
	assert.Equal(t, "unknown", slugDeviceFamily("!!"))
}
