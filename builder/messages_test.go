package builder

import "testing"

func TestBuildLogon_SetsHeartBtInt(t *testing.T) {
	fm := BuildLogon("15")
	v, ok := fm.Get("HeartBtInt")
	if !ok || v != "15" {
		t.Errorf("expected HeartBtInt=15, got %q (ok=%v)", v, ok)
	}
}

func TestBuildHeartbeat_OmitsTestReqIDWhenEmpty(t *testing.T) {
	fm := BuildHeartbeat("")
	if fm.Has("TestReqID") {
		t.Error("expected TestReqID to be omitted when empty")
	}
}

func TestBuildHeartbeat_EchoesTestReqID(t *testing.T) {
	fm := BuildHeartbeat("TR-1")
	v, ok := fm.Get("TestReqID")
	if !ok || v != "TR-1" {
		t.Errorf("expected TestReqID=TR-1, got %q (ok=%v)", v, ok)
	}
}

func TestBuildResendRequest_EndSeqNoZeroMeansInfinity(t *testing.T) {
	fm := BuildResendRequest("5", "0")
	v, _ := fm.Get("EndSeqNo")
	if v != "0" {
		t.Errorf("expected EndSeqNo=0, got %q", v)
	}
}

func TestBuildSequenceReset_GapFillFlag(t *testing.T) {
	withGap := BuildSequenceReset("10", true)
	if v, ok := withGap.Get("GapFillFlag"); !ok || v != "Y" {
		t.Errorf("expected GapFillFlag=Y, got %q (ok=%v)", v, ok)
	}

	without := BuildSequenceReset("10", false)
	if without.Has("GapFillFlag") {
		t.Error("expected GapFillFlag to be omitted")
	}
}

func TestNewOrderFields_Missing(t *testing.T) {
	complete := NewOrderFields{
		ClOrdID: "1", Account: "a", Symbol: "BTC-USD", Side: "1",
		OrderQty: "1", Price: "1", OrdType: "2", TransactTime: "t",
	}
	if m := complete.Missing(); m != "" {
		t.Errorf("expected no missing field, got %q", m)
	}

	incomplete := complete
	incomplete.Price = ""
	if m := incomplete.Missing(); m != "Price" {
		t.Errorf("expected missing field Price, got %q", m)
	}
}

func TestBuildExecutionReport_SetsAllFields(t *testing.T) {
	fm := BuildExecutionReport("exec-1", "42", "cl-1", "0", "0", "BTC-USD", "1", "1.0", "50000")
	for _, key := range []string{"ExecID", "OrderID", "ClOrdID", "ExecType", "OrdStatus", "Symbol", "Side", "OrderQty", "Price"} {
		if !fm.Has(key) {
			t.Errorf("expected key %s to be set", key)
		}
	}
}
