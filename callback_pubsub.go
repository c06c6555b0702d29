package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/pubsub/v2"

	"github.com/emmanuel-e2/ble-parser/advlib"
)

type CallbackEvent struct {
	DeviceId  string         `json:"deviceId"`
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	GatewayID string         `json:"gateway_id,omitempty"`
	URI       string         `json:"uri,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	BackendID int64          `json:"backend_id,omitempty"`
}

var (
	psClient      *pubsub.Client
	cbPublisher   *pubsub.Publisher
	orderingOn    bool
	callbackTopic string
)

func initPubSub(ctx context.Context, cc CallbackConfig) error {
	projectID := os.Getenv("GCP_PROJECT_ID")
	callbackTopic = os.Getenv("CALLBACK_TOPIC")
	if projectID == "" || callbackTopic == "" {
		return fmt.Errorf("missing GCP_PROJECT_ID or CALLBACK_TOPIC env var")
	}
	orderingOn = getenvBool("CALLBACK_ORDERING", false)

	cl, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("pubsub.NewClient: %w", err)
	}
	psClient = cl

	// Topic ID ("ble-callbacks") or full name.
	pub := cl.Publisher(callbackTopic)
	pub.PublishSettings.DelayThreshold = cc.DelayThreshold
	pub.PublishSettings.Timeout = cc.Timeout
	pub.EnableMessageOrdering = orderingOn

	cbPublisher = pub
	log.Printf("Pub/Sub v2 initialized: topic=%s ordering=%v", callbackTopic, orderingOn)
	return nil
}

func closePubSub() {
	if cbPublisher != nil {
		cbPublisher.Stop()
	}
	if psClient != nil {
		_ = psClient.Close()
	}
}

// newCallbackEvent describes one decoded advertisement for downstream consumers.
func newCallbackEvent(in MQTTMessage, dev deviceInfo, props *advlib.Properties) CallbackEvent {
	evt := CallbackEvent{
		DeviceId:  strings.ToUpper(in.DeviceMAC),
		Type:      deriveEventType(dev.HWType, props),
		Timestamp: in.Timestamp,
		GatewayID: strings.ToUpper(in.GatewayMAC),
		URI:       props.URI,
		Data: map[string]any{
			"parsed_json": props,
			"raw_data":    in.Payload,
		},
		BackendID: in.MessageID,
	}
	if dev.Name != "" {
		evt.Data["device_name"] = dev.Name
	}
	if in.RSSI != nil {
		evt.Data["rssi"] = *in.RSSI
	}
	return evt
}

// deriveEventType prefers a message type set by a decoder library, then
// falls back to "<device family>/<pdu type or adv>".
func deriveEventType(devHW string, props *advlib.Properties) string {
	if props != nil {
		for _, k := range []string{"message_type", "messageType", "type"} {
			if v, ok := props.Extra[k].(string); ok && v != "" {
				return v
			}
		}
	}
	kind := "adv"
	if props != nil && props.Type != "" {
		kind = strings.ToLower(props.Type)
	}
	return slugDeviceFamily(devHW) + "/" + kind
}

func publishCallback(ctx context.Context, evt CallbackEvent) error {
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}
	evt.DeviceId = strings.ToUpper(evt.DeviceId)

	b, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal callback event: %w", err)
	}

	msg := &pubsub.Message{
		Data: b,
		Attributes: map[string]string{
			"source":     "ble-parser",
			"type":       evt.Type,
			"deviceId":   evt.DeviceId,
			"gateway_id": evt.GatewayID,
		},
	}
	if evt.URI != "" {
		msg.Attributes["uri"] = evt.URI
	}
	if orderingOn {
		// Per-device ordering (requires subscription has ordering enabled)
		msg.OrderingKey = evt.DeviceId
	}
	id, err := cbPublisher.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	log.Printf("publishCallback ok topic=%s id=%s bytes=%d", callbackTopic, id, len(b))
	return nil
}
