// Command fixengine is the process entry point: it loads configuration,
// seeds the dictionaries, opens the durable stores, and runs one session as
// either an initiator or an acceptor (§6, §10.2). All behavior is
// config-file driven; the only flag lets an operator point at a config file
// outside the default `<cwd>/config/setting.conf` location.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/primefix/fix-engine/internal/audit"
	"github.com/primefix/fix-engine/internal/codec"
	"github.com/primefix/fix-engine/internal/config"
	"github.com/primefix/fix-engine/internal/console"
	"github.com/primefix/fix-engine/internal/dictionary"
	"github.com/primefix/fix-engine/internal/orderstore"
	"github.com/primefix/fix-engine/internal/router"
	"github.com/primefix/fix-engine/internal/sequencestore"
	"github.com/primefix/fix-engine/internal/session"
	"github.com/primefix/fix-engine/internal/transport"
)

// orderStoreCapacity is the fixed size, in bytes, of the memory-mapped order
// ledger backing file (§4.5). Not configurable from setting.conf: the
// distilled spec only names the ledger's path, not its capacity.
const orderStoreCapacity = 4 << 20

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", filepath.Join("config", "setting.conf"), "path to setting.conf")
	flag.Parse()

	cwd, err := os.Getwd()
	if err != nil {
		log.Printf("fixengine: getwd: %v", err)
		return 1
	}
	log.Printf("fixengine: current working directory: %s", cwd)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("fixengine: %v", err)
		return 1
	}
	log.Printf("fixengine: loaded config from %s (role=%s)", *configPath, cfg.ConnectionType)

	eng, cleanup, err := bootstrap(cfg)
	if err != nil {
		log.Printf("fixengine: startup failed: %v", err)
		return 1
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stream, err := connectOrAccept(cfg)
	if err != nil {
		log.Printf("fixengine: %v", err)
		return 1
	}
	eng.Stream = stream

	if cfg.EnableCmdLine {
		go console.Run(ctx, os.Stdin, eng)
	}

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("fixengine: fatal: %v", err)
		return 1
	}

	log.Printf("fixengine: clean shutdown")
	return 0
}

// bootstrap loads the dictionaries and seed templates, opens the sequence,
// order, and audit stores, and assembles the session engine. It mirrors the
// reference prototype's main.rs initialize_message_maps/get_sequence_store/
// get_order_store sequence, one level of abstraction up.
func bootstrap(cfg *config.Config) (*session.Engine, func(), error) {
	fieldDictPath := cfg.DataDictionary
	msgDictPath := cfg.DataPayloadDictionary
	if !cfg.UseDataDictionary {
		fieldDictPath = filepath.Join("reference", "FIX4_2.xml")
		msgDictPath = filepath.Join("reference", "FIX4_2_Payload.xml")
	}

	dict, err := dictionary.Load(fieldDictPath, msgDictPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading dictionaries: %w", err)
	}
	log.Printf("fixengine: loaded %d fields, %d message definitions", len(dict.FieldsByNumber), len(dict.MessagesByName))

	templates, err := codec.LoadTemplates(filepath.Join("reference", "predefined_msg.json"))
	if err != nil {
		return nil, nil, fmt.Errorf("loading seed templates: %w", err)
	}
	cod := codec.New(dict, templates)

	seq, err := sequencestore.Open(cfg.SequenceStorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening sequence store: %w", err)
	}
	log.Printf("fixengine: sequence store at %s (incoming=%d outgoing=%d)", cfg.SequenceStorePath, seq.GetIncoming(), seq.GetOutgoing())

	orders, err := orderstore.Open(cfg.OrderStorePath, orderStoreCapacity)
	if err != nil {
		return nil, nil, fmt.Errorf("opening order store: %w", err)
	}
	log.Printf("fixengine: order store at %s", cfg.OrderStorePath)

	var trail *audit.Trail
	if cfg.AuditEnabled() {
		trail, err = audit.Open(cfg.AuditStorePath)
		if err != nil {
			_ = orders.Close()
			return nil, nil, fmt.Errorf("opening audit store: %w", err)
		}
		log.Printf("fixengine: audit trail at %s", cfg.AuditStorePath)
	}

	isInitiator := cfg.ConnectionType == config.Initiator
	rtr := router.New(orders, trail, isInitiator)

	eng := session.New(cod, dict, seq, rtr, nil, cfg.AdminMessages, isInitiator, cfg.HeartBtInt, cfg.ReconnectInterval)

	cleanup := func() {
		if err := orders.Close(); err != nil {
			log.Printf("fixengine: closing order store: %v", err)
		}
		if err := trail.Close(); err != nil {
			log.Printf("fixengine: closing audit store: %v", err)
		}
	}
	return eng, cleanup, nil
}

// connectOrAccept dials out as an initiator or blocks for one inbound
// connection as an acceptor (§6, one session per process — no multi-session
// routing).
func connectOrAccept(cfg *config.Config) (*transport.Stream, error) {
	if cfg.ConnectionType == config.Initiator {
		addr := fmt.Sprintf("%s:%d", cfg.SocketConnectHost, cfg.SocketConnectPort)
		return transport.Connect(addr, 0)
	}

	addr := fmt.Sprintf("%s:%d", cfg.SocketAcceptAddr, cfg.SocketAcceptPort)
	ln, err := transport.Listen(addr)
	if err != nil {
		return nil, err
	}
	defer ln.Close()
	return ln.Accept()
}
