// Package config loads the engine's ini-style startup configuration (§10.3),
// mirroring the reference prototype's config loader one level of abstraction
// up: gopkg.in/ini.v1 takes the place of its hand-rolled ini macro-loader.
package config

import (
	"strings"

	"gopkg.in/ini.v1"

	"github.com/primefix/fix-engine/internal/fxerr"
)

const (
	defaultHeartBtInt        = 15
	defaultReconnectInterval = 30
)

// ConnectionType selects which role the engine plays on the socket.
type ConnectionType string

const (
	Initiator ConnectionType = "initiator"
	Acceptor  ConnectionType = "acceptor"
)

// Config is the parsed [default]/[session] configuration (§6).
type Config struct {
	ConnectionType ConnectionType
	EnableCmdLine  bool

	SocketConnectHost string
	SocketConnectPort int
	SocketAcceptAddr  string
	SocketAcceptPort  int

	HeartBtInt        int
	ReconnectInterval int

	UseDataDictionary     bool
	DataDictionary        string
	DataPayloadDictionary string

	AdminMessages []string

	SequenceStorePath string
	OrderStorePath    string
	AuditStorePath    string
}

// Load parses path into a Config, applying the §6 defaults for
// heart_bt_int and reconnect_interval when absent or zero.
func Load(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, &fxerr.ConfigError{Detail: "loading config " + path + ": " + err.Error()}
	}

	def := f.Section("default")
	sess := f.Section("session")

	c := &Config{
		ConnectionType: ConnectionType(def.Key("connection_type").MustString(string(Initiator))),
		EnableCmdLine:  def.Key("enable_cmd_line").MustBool(false),

		SocketConnectHost: sess.Key("socket_connect_host").MustString(""),
		SocketConnectPort: sess.Key("socket_connect_port").MustInt(0),
		SocketAcceptAddr:  sess.Key("socket_accept_address").MustString(""),
		SocketAcceptPort:  sess.Key("socket_accept_port").MustInt(0),

		HeartBtInt:        sess.Key("heart_bt_int").MustInt(defaultHeartBtInt),
		ReconnectInterval: sess.Key("reconnect_interval").MustInt(defaultReconnectInterval),

		UseDataDictionary:     sess.Key("use_data_dictionary").MustString("N") == "Y",
		DataDictionary:        sess.Key("data_dictionary").MustString(""),
		DataPayloadDictionary: sess.Key("data_payload_dictionary").MustString(""),

		SequenceStorePath: sess.Key("sequence_store").MustString("sequence.json"),
		OrderStorePath:    sess.Key("order_store").MustString("orders.db"),
		AuditStorePath:    sess.Key("audit_store").MustString(""),
	}

	if c.HeartBtInt <= 0 {
		c.HeartBtInt = defaultHeartBtInt
	}
	if c.ReconnectInterval <= 0 {
		c.ReconnectInterval = defaultReconnectInterval
	}

	if raw := sess.Key("admin_messages").MustString(""); raw != "" {
		for _, m := range strings.Split(raw, ",") {
			if m = strings.TrimSpace(m); m != "" {
				c.AdminMessages = append(c.AdminMessages, m)
			}
		}
	}

	if c.ConnectionType != Initiator && c.ConnectionType != Acceptor {
		return nil, &fxerr.ConfigError{Detail: "connection_type must be initiator or acceptor, got " + string(c.ConnectionType)}
	}

	return c, nil
}

// AuditEnabled reports whether an audit_store path was configured (§12.5).
func (c *Config) AuditEnabled() bool {
	return c.AuditStorePath != ""
}
