package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emmanuel-e2/ble-parser/advlib"
)

var pg *pgxpool.Pool

// connectDB opens the pool through the Cloud SQL connector.
func connectDB(ctx context.Context, dbc DBConfig) error {
	if err := dbc.Validate(); err != nil {
		return err
	}

	opts := []cloudsqlconn.Option{}
	if dbc.PrivateIP {
		opts = append(opts, cloudsqlconn.WithDefaultDialOptions(cloudsqlconn.WithPrivateIP()))
	}
	d, err := cloudsqlconn.NewDialer(ctx, opts...)
	if err != nil {
		return fmt.Errorf("cloudsql dialer: %w", err)
	}

	cfg, err := pgxpool.ParseConfig(dbc.DSN())
	if err != nil {
		return fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}
	cfg.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
		return d.Dial(ctx, dbc.Instance)
	}
	cfg.MinConns = 0
	cfg.MaxConns = dbc.MaxConns
	cfg.MaxConnIdleTime = 5 * time.Minute

	pg, err = pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}
	if err := pg.Ping(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	log.Printf("CONNECTED TO DATABASE instance=%s db=%s", dbc.Instance, dbc.Name)
	return nil
}

// macHexToBytea converts a mac in hex (with or without separators) to raw 6 bytes.
func macHexToBytea(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	// Accept forms like "AA:BB:CC:DD:EE:FF", "aa-bb-...", "aabbccddeeff"
	s = strings.NewReplacer(":", "", "-", "", ".", "", " ", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex mac %q: %w", s, err)
	}
	if len(b) != 6 {
		return nil, fmt.Errorf("mac must be 6 bytes, got %d", len(b))
	}
	return b, nil
}

type gatewayInfo struct {
	Name     string
	HWType   string
	ClientID string
}

type deviceInfo struct {
	Name   string
	ID     string
	HWType string
}

// lookupGateway returns the zero value when the gateway is unknown.
func lookupGateway(ctx context.Context, mac string) gatewayInfo {
	var gw gatewayInfo
	bmac, err := macHexToBytea(mac)
	if err != nil {
		log.Printf("lookupGateway: %v", err)
		return gw
	}
	row := pg.QueryRow(ctx,
		`SELECT gateway_name, gateway_hw_type, client_id
			FROM gateways
			WHERE gateway_mac = $1`, bmac)
	if err := row.Scan(&gw.Name, &gw.HWType, &gw.ClientID); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("lookupGateway: %v", err)
	}
	return gw
}

// lookupDevice returns the zero value when the device is unknown.
func lookupDevice(ctx context.Context, mac string) deviceInfo {
	var dev deviceInfo
	bmac, err := macHexToBytea(mac)
	if err != nil {
		log.Printf("lookupDevice: %v", err)
		return dev
	}
	row := pg.QueryRow(ctx,
		`SELECT device_name, device_id, device_hw_type
			FROM devices
			WHERE device_mac = $1`, bmac)
	if err := row.Scan(&dev.Name, &dev.ID, &dev.HWType); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("lookupDevice: %v", err)
	}
	return dev
}

// storeParsedJSON stores the decoded advertisement on the backend_message row (id == message_id).
func storeParsedJSON(ctx context.Context, backendID int64, props *advlib.Properties) error {
	b, err := json.Marshal(props)
	if err != nil {
		return err
	}
	ct, err := pg.Exec(ctx, `UPDATE backend_message SET parser_json = $2 WHERE id = $1`, backendID, b)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("no backend_message row found for id=%d", backendID)
	}
	return nil
}
