package session

import (
	"sync"
	"time"
)

// Context holds the session flags and intervals §5 calls out as a single
// mutex-guarded struct, rather than a scatter of package-level atomics: the
// fields are read and written together often enough (Logon handshake,
// heartbeat ticker) that one lock covering all of them is simpler than a
// lock-free field-by-field scheme.
type Context struct {
	mu sync.Mutex

	state State

	sentLogon     bool
	receivedLogon bool

	heartBtInt        time.Duration
	reconnectInterval time.Duration
	lastSentTime      time.Time
}

// NewContext constructs a Context in Disconnected state with the given
// heartbeat and reconnect intervals.
func NewContext(heartBtInt, reconnectInterval time.Duration) *Context {
	return &Context{
		state:             Disconnected,
		heartBtInt:        heartBtInt,
		reconnectInterval: reconnectInterval,
		lastSentTime:      time.Now(),
	}
}

func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Context) SetState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func (c *Context) SentLogon() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sentLogon
}

func (c *Context) ReceivedLogon() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receivedLogon
}

// MarkLogonSent records that this side has sent its own Logon.
func (c *Context) MarkLogonSent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sentLogon = true
}

// MarkLoggedOn records a completed handshake: both flags true and state
// advanced to LoggedOn.
func (c *Context) MarkLoggedOn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sentLogon = true
	c.receivedLogon = true
	c.state = LoggedOn
}

// MarkReceivedLogon records only the received side of the handshake, for
// the initiator's echoed-Logon acknowledgement path (§4.6).
func (c *Context) MarkReceivedLogon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receivedLogon = true
	c.state = LoggedOn
}

func (c *Context) ReconnectInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconnectInterval
}

func (c *Context) HeartBtInt() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.heartBtInt
}

func (c *Context) LastSentTime() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSentTime
}

func (c *Context) SetLastSentTime(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSentTime = t
}
