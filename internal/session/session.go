// Package session implements the engine of §4.6: the Logon handshake, the
// heartbeat ticker, and the sequence-discipline switch that gates every
// incoming message before it reaches internal/router.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/primefix/fix-engine/builder"
	"github.com/primefix/fix-engine/internal/codec"
	"github.com/primefix/fix-engine/internal/dictionary"
	"github.com/primefix/fix-engine/internal/fixmap"
	"github.com/primefix/fix-engine/internal/fxerr"
	"github.com/primefix/fix-engine/internal/router"
	"github.com/primefix/fix-engine/internal/sequencestore"
	"github.com/primefix/fix-engine/internal/transport"
	"github.com/primefix/fix-engine/internal/validator"
)

// ErrSessionClosed signals a clean shutdown (peer Logout, local cancellation)
// as opposed to a protocol or I/O failure.
var ErrSessionClosed = errors.New("session: closed")

// Engine ties the codec, sequence store, router, and transport together into
// one running session.
type Engine struct {
	Codec       *codec.Codec
	Dict        *dictionary.Dictionary
	Sequences   *sequencestore.Store
	Router      *router.Router
	Stream      *transport.Stream
	AdminTypes  map[string]bool
	IsInitiator bool

	Ctx *Context
}

// New constructs an Engine. heartBtIntSeconds is the configured heartbeat
// interval in seconds (§6 heart_bt_int); reconnectIntervalSeconds likewise.
func New(c *codec.Codec, dict *dictionary.Dictionary, seq *sequencestore.Store, rtr *router.Router, stream *transport.Stream, adminTypes []string, isInitiator bool, heartBtIntSeconds, reconnectIntervalSeconds int) *Engine {
	admin := make(map[string]bool, len(adminTypes))
	for _, t := range adminTypes {
		admin[t] = true
	}
	return &Engine{
		Codec:       c,
		Dict:        dict,
		Sequences:   seq,
		Router:      rtr,
		Stream:      stream,
		AdminTypes:  admin,
		IsInitiator: isInitiator,
		Ctx:         NewContext(time.Duration(heartBtIntSeconds)*time.Second, time.Duration(reconnectIntervalSeconds)*time.Second),
	}
}

// Run drives the session until ctx is canceled or a fatal error occurs. It
// spawns the reader, the heartbeat ticker, and two placeholder workers
// reserved for future per-leg logic (§5).
func (e *Engine) Run(ctx context.Context) error {
	if e.IsInitiator {
		e.Ctx.SetState(LogonSent)
		if err := e.send("Logon", builder.BuildLogon(strconv.Itoa(int(e.Ctx.HeartBtInt().Seconds())))); err != nil {
			return fmt.Errorf("session: sending initial Logon: %w", err)
		}
		e.Ctx.MarkLogonSent()
	} else {
		e.Ctx.SetState(WaitingLogon)
	}

	errCh := make(chan error, 2)
	go e.readerLoop(ctx, errCh)
	go e.heartbeatLoop(ctx, errCh)
	go e.placeholderWorker(ctx, "client-session")
	go e.placeholderWorker(ctx, "venue-session")

	select {
	case <-ctx.Done():
		_ = e.Stream.Close()
		return ctx.Err()
	case err := <-errCh:
		_ = e.Stream.Close()
		if errors.Is(err, ErrSessionClosed) {
			return nil
		}
		return err
	}
}

// placeholderWorker is a no-op goroutine documenting the seam for a future
// multi-leg order router (§5); it is carried forward unchanged in shape from
// the reference prototype.
func (e *Engine) placeholderWorker(ctx context.Context, name string) {
	<-ctx.Done()
	log.Printf("session: %s worker shutting down", name)
}

func (e *Engine) heartbeatLoop(ctx context.Context, errCh chan<- error) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.checkHeartbeat(); err != nil {
				e.Ctx.SetState(LogoutPending)
				if sendErr := e.send("Logout", builder.BuildLogout("heartbeat failure: "+err.Error())); sendErr != nil {
					log.Printf("session: failed to send graceful Logout after heartbeat error: %v", sendErr)
				}
				errCh <- err
				return
			}
		}
	}
}

func (e *Engine) checkHeartbeat() error {
	if time.Since(e.Ctx.LastSentTime()) < e.Ctx.HeartBtInt() {
		return nil
	}
	if !e.Ctx.ReceivedLogon() {
		return e.send("Logon", builder.BuildLogon(strconv.Itoa(int(e.Ctx.HeartBtInt().Seconds()))))
	}
	return e.send("Heartbeat", builder.BuildHeartbeat(""))
}

// readerLoop blocks on stream reads and drives the sequence discipline of
// §4.6. A peer-idle timeout of 2 x heart_bt_int (§12.2) is armed before every
// read so a silent peer is noticed even without malformed traffic.
func (e *Engine) readerLoop(ctx context.Context, errCh chan<- error) {
	idle := 2 * e.Ctx.HeartBtInt()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := e.Stream.SetReadDeadline(idle); err != nil {
			errCh <- fmt.Errorf("session: arming peer-idle deadline: %w", err)
			return
		}

		line, err := e.Stream.Receive()
		if err != nil {
			e.Ctx.SetState(LogoutPending)
			errCh <- fmt.Errorf("session: peer went silent or disconnected: %w", err)
			return
		}

		msgTypeName, fm := e.Codec.Decode(router.FromWire(line))
		if !validator.Validate(fm, e.Dict) {
			log.Printf("session: dropping invalid %s message", msgTypeName)
			continue
		}

		if err := e.handleSequencedMessage(msgTypeName, fm); err != nil {
			if errors.Is(err, ErrSessionClosed) {
				e.Ctx.SetState(Disconnected)
			}
			errCh <- err
			return
		}
	}
}

func (e *Engine) handleSequencedMessage(msgTypeName string, fm *fixmap.FieldMap) error {
	observedStr, _ := fm.Get("MsgSeqNum")
	observed, err := strconv.ParseUint(observedStr, 10, 64)
	if err != nil {
		log.Printf("session: dropping %s with unparseable MsgSeqNum %q", msgTypeName, observedStr)
		return nil
	}

	expected := e.Sequences.GetIncoming()

	switch {
	case observed == expected:
		if err := e.Sequences.IncrementIncoming(); err != nil {
			return fmt.Errorf("session: persisting incoming sequence: %w", err)
		}
		return e.dispatch(msgTypeName, fm)

	case observed > expected:
		if msgTypeName == "SequenceReset" {
			return e.applySequenceReset(fm)
		}
		log.Printf("session: sequence gap, expecting %d but received %d, requesting resend", expected, observed)
		return e.send("ResendRequest", builder.BuildResendRequest(strconv.FormatUint(expected, 10), "0"))

	default:
		seqErr := &fxerr.SequenceTooLowError{Expected: expected, Received: observed}
		log.Printf("session: %s, terminating", seqErr)
		if sendErr := e.send("Logout", builder.BuildLogout(seqErr.Error())); sendErr != nil {
			log.Printf("session: failed to send Logout for low sequence: %v", sendErr)
		}
		return fmt.Errorf("session: %w", seqErr)
	}
}

func (e *Engine) dispatch(msgTypeName string, fm *fixmap.FieldMap) error {
	if msgTypeName == "Logon" {
		return e.handleLogon(fm)
	}
	if msgTypeName == "Logout" {
		return ErrSessionClosed
	}
	if msgTypeName == "SequenceReset" {
		return e.applySequenceReset(fm)
	}

	if e.isAdmin(msgTypeName) {
		for _, reply := range e.Router.HandleAdmin(msgTypeName, fm, e.Sequences.GetIncoming()) {
			if err := e.send(reply.MsgType, reply.Overrides); err != nil {
				return err
			}
		}
		return nil
	}

	for _, reply := range e.Router.HandleApplication(msgTypeName, fm) {
		if err := e.send(reply.MsgType, reply.Overrides); err != nil {
			return err
		}
	}
	return nil
}

// handleLogon implements the handshake of §4.6, matching the reference
// prototype's short-circuit: if this side has already sent its own Logon,
// an incoming Logon is treated purely as acknowledgement (no reply), and
// only the initiator's received-flag is set.
func (e *Engine) handleLogon(fm *fixmap.FieldMap) error {
	if e.Ctx.SentLogon() {
		if e.IsInitiator {
			e.Ctx.MarkReceivedLogon()
		}
		return nil
	}

	heartBtInt := e.Ctx.HeartBtInt()
	e.Ctx.MarkLoggedOn()
	return e.send("Logon", builder.BuildLogon(strconv.Itoa(int(heartBtInt.Seconds()))))
}

func (e *Engine) applySequenceReset(fm *fixmap.FieldMap) error {
	newSeqNoStr, ok := fm.Get("NewSeqNo")
	if !ok {
		log.Printf("session: SequenceReset missing NewSeqNo, ignoring")
		return nil
	}
	newSeqNo, err := strconv.ParseUint(newSeqNoStr, 10, 64)
	if err != nil {
		log.Printf("session: SequenceReset has non-numeric NewSeqNo %q, ignoring", newSeqNoStr)
		return nil
	}
	log.Printf("session: resetting outgoing sequence %d -> %d", e.Sequences.GetOutgoing(), newSeqNo)
	return e.Sequences.SetOutgoing(newSeqNo)
}

func (e *Engine) isAdmin(msgTypeName string) bool {
	return e.AdminTypes[msgTypeName]
}

// HandleLine feeds one hand-crafted line from the debug console (§12.6)
// through the same decode/validate/dispatch path a socket read uses. raw is
// expected in '|'-placeholder form, matching how an operator would type a
// test message.
func (e *Engine) HandleLine(raw string) error {
	msgTypeName, fm := e.Codec.Decode(raw)
	if !validator.Validate(fm, e.Dict) {
		return fmt.Errorf("session: console line failed validation: %s", raw)
	}
	return e.handleSequencedMessage(msgTypeName, fm)
}

// send encodes overrides against the template keyed by msgType, converts it
// to SOH wire form, writes it, and advances the outgoing sequence counter
// only after a successful write (§5: a crash between write and increment may
// duplicate a sequence on recovery; the peer's resend protocol covers it).
func (e *Engine) send(msgType string, overrides *fixmap.FieldMap) error {
	seq := e.Sequences.GetOutgoing()
	encoded, err := e.Codec.EncodeFromTemplate(msgType, overrides, seq)
	if err != nil {
		return fmt.Errorf("session: encoding %s: %w", msgType, err)
	}
	if err := e.Stream.Send(router.ToWire(encoded)); err != nil {
		return fmt.Errorf("session: sending %s: %w", msgType, err)
	}
	if err := e.Sequences.IncrementOutgoing(); err != nil {
		return fmt.Errorf("session: persisting outgoing sequence: %w", err)
	}
	e.Ctx.SetLastSentTime(time.Now())
	return nil
}
