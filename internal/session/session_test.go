package session

import (
	"net"
	"testing"
	"time"

	"github.com/primefix/fix-engine/internal/audit"
	"github.com/primefix/fix-engine/internal/codec"
	"github.com/primefix/fix-engine/internal/dictionary"
	"github.com/primefix/fix-engine/internal/fixmap"
	"github.com/primefix/fix-engine/internal/orderstore"
	"github.com/primefix/fix-engine/internal/router"
	"github.com/primefix/fix-engine/internal/sequencestore"
	"github.com/primefix/fix-engine/internal/transport"
)

func testDictionary() *dictionary.Dictionary {
	fieldsByNumber := map[int]*dictionary.FieldDefinition{
		8:  {Number: 8, Name: "BeginString", Type: dictionary.TypeString},
		9:  {Number: 9, Name: "BodyLength", Type: dictionary.TypeInt},
		34: {Number: 34, Name: "MsgSeqNum", Type: dictionary.TypeInt},
		35: {Number: 35, Name: "MsgType", Type: dictionary.TypeString, Enums: map[string]string{
			"A": "Logon", "0": "Heartbeat", "5": "Logout", "1": "TestRequest",
			"2": "ResendRequest", "4": "SequenceReset", "D": "NewOrderSingle",
			"8": "ExecutionReport", "F": "OrderCancelRequest", "G": "OrderCancelReplaceRequest",
			"9": "OrderCancelReject", "j": "BusinessMessageReject",
		}, EnumsByName: map[string]string{
			"Logon": "A", "Heartbeat": "0", "Logout": "5", "TestRequest": "1",
			"ResendRequest": "2", "SequenceReset": "4", "NewOrderSingle": "D",
			"ExecutionReport": "8", "OrderCancelRequest": "F", "OrderCancelReplaceRequest": "G",
			"OrderCancelReject": "9", "BusinessMessageReject": "j",
		}},
		49:  {Number: 49, Name: "SenderCompID", Type: dictionary.TypeString},
		56:  {Number: 56, Name: "TargetCompID", Type: dictionary.TypeString},
		52:  {Number: 52, Name: "SendingTime", Type: dictionary.TypeString},
		108: {Number: 108, Name: "HeartBtInt", Type: dictionary.TypeInt},
		10:  {Number: 10, Name: "CheckSum", Type: dictionary.TypeString},
		11:  {Number: 11, Name: "ClOrdID", Type: dictionary.TypeString},
		112: {Number: 112, Name: "TestReqID", Type: dictionary.TypeString},
		7:   {Number: 7, Name: "BeginSeqNo", Type: dictionary.TypeInt},
		16:  {Number: 16, Name: "EndSeqNo", Type: dictionary.TypeInt},
		36:  {Number: 36, Name: "NewSeqNo", Type: dictionary.TypeInt},
	}
	byName := make(map[string]*dictionary.FieldDefinition, len(fieldsByNumber))
	for _, fd := range fieldsByNumber {
		byName[fd.Name] = fd
	}

	messages := map[string]*dictionary.MessageDefinition{
		dictionary.HeaderKey: {Name: dictionary.HeaderKey, Required: map[string]bool{"MsgType": true}},
		"Logon":                     {Name: "Logon", MsgType: "A", Required: map[string]bool{}},
		"Heartbeat":                 {Name: "Heartbeat", MsgType: "0", Required: map[string]bool{}},
		"Logout":                    {Name: "Logout", MsgType: "5", Required: map[string]bool{}},
		"TestRequest":               {Name: "TestRequest", MsgType: "1", Required: map[string]bool{}},
		"ResendRequest":             {Name: "ResendRequest", MsgType: "2", Required: map[string]bool{}},
		"SequenceReset":             {Name: "SequenceReset", MsgType: "4", Required: map[string]bool{}},
		"NewOrderSingle":            {Name: "NewOrderSingle", MsgType: "D", Required: map[string]bool{}},
		"ExecutionReport":           {Name: "ExecutionReport", MsgType: "8", Required: map[string]bool{}},
		"OrderCancelRequest":        {Name: "OrderCancelRequest", MsgType: "F", Required: map[string]bool{}},
		"OrderCancelReplaceRequest": {Name: "OrderCancelReplaceRequest", MsgType: "G", Required: map[string]bool{}},
		"OrderCancelReject":         {Name: "OrderCancelReject", MsgType: "9", Required: map[string]bool{}},
		"BusinessMessageReject":     {Name: "BusinessMessageReject", MsgType: "j", Required: map[string]bool{}},
	}

	return &dictionary.Dictionary{
		FieldsByNumber: fieldsByNumber,
		FieldsByName:   byName,
		MessagesByName: messages,
	}
}

func baseTemplate(msgType string) *fixmap.FieldMap {
	tmpl := fixmap.New()
	tmpl.Set("BeginString", "FIX.4.2")
	tmpl.Set("BodyLength", "")
	tmpl.Set("MsgType", msgType)
	tmpl.Set("MsgSeqNum", "")
	tmpl.Set("SenderCompID", "ENGINE")
	tmpl.Set("TargetCompID", "VENUE")
	tmpl.Set("SendingTime", "")
	tmpl.Set("CheckSum", "")
	return tmpl
}

func testTemplates() map[string]*fixmap.FieldMap {
	templates := map[string]*fixmap.FieldMap{}
	for _, name := range []string{
		"Logon", "Heartbeat", "Logout", "TestRequest", "ResendRequest",
		"SequenceReset", "NewOrderSingle", "ExecutionReport",
		"OrderCancelRequest", "OrderCancelReplaceRequest", "OrderCancelReject",
		"BusinessMessageReject",
	} {
		templates[name] = baseTemplate(name)
	}
	templates["Logon"].Set("HeartBtInt", "")
	templates["TestRequest"].Set("TestReqID", "")
	templates["ResendRequest"].Set("BeginSeqNo", "")
	templates["ResendRequest"].Set("EndSeqNo", "0")
	templates["SequenceReset"].Set("NewSeqNo", "")
	return templates
}

func newTestEngine(t *testing.T, isInitiator bool) (*Engine, *transport.Stream, *sequencestore.Store) {
	t.Helper()
	dict := testDictionary()
	c := codec.New(dict, testTemplates())

	seqPath := t.TempDir() + "/seq.json"
	seq, err := sequencestore.Open(seqPath)
	if err != nil {
		t.Fatalf("unexpected error opening sequence store: %v", err)
	}
	t.Cleanup(func() { seq.SetIncoming(0) })

	orderPath := t.TempDir() + "/orders.db"
	orders, err := orderstore.Open(orderPath, 1<<16)
	if err != nil {
		t.Fatalf("unexpected error opening order store: %v", err)
	}
	t.Cleanup(func() { orders.Close() })

	rtr := router.New(orders, (*audit.Trail)(nil), isInitiator)

	local, remote := net.Pipe()
	t.Cleanup(func() { local.Close(); remote.Close() })

	stream := transport.NewStream(local)
	adminTypes := []string{"Logon", "Logout", "Heartbeat", "TestRequest", "ResendRequest", "SequenceReset"}

	e := New(c, dict, seq, rtr, stream, adminTypes, isInitiator, 30, 60)
	return e, transport.NewStream(remote), seq
}

func TestHandleLine_GapTriggersResendRequest(t *testing.T) {
	e, peer, seq := newTestEngine(t, false)
	_ = peer

	if err := seq.SetIncoming(5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fm := fixmap.New()
	fm.Set("BeginString", "FIX.4.2")
	fm.Set("BodyLength", "10")
	fm.Set("MsgType", "NewOrderSingle")
	fm.Set("MsgSeqNum", "8")

	encoded, err := e.Codec.EncodeFromFieldmap(fm, 8)
	if err != nil {
		t.Fatalf("unexpected error encoding test fixture: %v", err)
	}

	go func() {
		_ = e.HandleLine(encoded)
	}()

	raw, err := peer.Receive()
	if err != nil {
		t.Fatalf("unexpected error receiving resend request: %v", err)
	}
	if !contains(raw, "7=5") {
		t.Errorf("expected ResendRequest with BeginSeqNo(7)=5, got %q", raw)
	}
	if seq.GetIncoming() != 5 {
		t.Errorf("expected incoming to remain 5 after a gap, got %d", seq.GetIncoming())
	}
}

func TestHandleLine_LowSequenceLogsOutAndReturnsFatalError(t *testing.T) {
	e, peer, seq := newTestEngine(t, false)

	if err := seq.SetIncoming(5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fm := fixmap.New()
	fm.Set("MsgType", "NewOrderSingle")
	fm.Set("MsgSeqNum", "3")
	encoded, err := e.Codec.EncodeFromFieldmap(fm, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- e.HandleLine(encoded) }()

	raw, err := peer.Receive()
	if err != nil {
		t.Fatalf("unexpected error receiving logout: %v", err)
	}
	if !contains(raw, "35=5") {
		t.Errorf("expected a Logout message (MsgType tag 35 = 5), got %q", raw)
	}

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("expected a fatal error for a sequence that is too low")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for HandleLine to return")
	}
}

func TestHandleLine_SequenceResetSetsOutgoing(t *testing.T) {
	e, _, seq := newTestEngine(t, false)

	fm := fixmap.New()
	fm.Set("MsgType", "SequenceReset")
	fm.Set("MsgSeqNum", "99")
	fm.Set("NewSeqNo", "10")
	encoded, err := e.Codec.EncodeFromFieldmap(fm, 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := e.HandleLine(encoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq.GetOutgoing() != 10 {
		t.Errorf("expected outgoing set to 10, got %d", seq.GetOutgoing())
	}
	if seq.GetIncoming() != 1 {
		t.Errorf("expected incoming unchanged by a SequenceReset gap, got %d", seq.GetIncoming())
	}
}

func TestLogonHandshake_AcceptorRepliesWithOwnLogon(t *testing.T) {
	e, peer, seq := newTestEngine(t, false)

	fm := fixmap.New()
	fm.Set("MsgType", "Logon")
	fm.Set("MsgSeqNum", "1")
	fm.Set("HeartBtInt", "30")
	encoded, err := e.Codec.EncodeFromFieldmap(fm, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	go func() { _ = e.HandleLine(encoded) }()

	raw, err := peer.Receive()
	if err != nil {
		t.Fatalf("unexpected error receiving logon reply: %v", err)
	}
	if !contains(raw, "35=A") {
		t.Errorf("expected Logon reply (MsgType tag 35 = A), got %q", raw)
	}
	if !e.Ctx.ReceivedLogon() {
		t.Error("expected ReceivedLogon to be true after the handshake")
	}
	if seq.GetIncoming() != 2 {
		t.Errorf("expected incoming advanced to 2, got %d", seq.GetIncoming())
	}
}

func TestInitiatorLogonEcho_SuppressesReply(t *testing.T) {
	e, peer, _ := newTestEngine(t, true)
	e.Ctx.MarkLogonSent()

	fm := fixmap.New()
	fm.Set("MsgType", "Logon")
	fm.Set("MsgSeqNum", "1")
	encoded, err := e.Codec.EncodeFromFieldmap(fm, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan struct{})
	go func() {
		_ = e.HandleLine(encoded)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("HandleLine did not return")
	}

	if !e.Ctx.ReceivedLogon() {
		t.Error("expected the echoed Logon to set ReceivedLogon")
	}

	_ = peer.Close()
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}
