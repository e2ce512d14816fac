package codec

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/primefix/fix-engine/internal/dictionary"
	"github.com/primefix/fix-engine/internal/fixmap"
)

func testDictionary() *dictionary.Dictionary {
	fieldsByNumber := map[int]*dictionary.FieldDefinition{
		8:  {Number: 8, Name: "BeginString", Type: dictionary.TypeString},
		9:  {Number: 9, Name: "BodyLength", Type: dictionary.TypeInt},
		35: {Number: 35, Name: "MsgType", Type: dictionary.TypeString, Enums: map[string]string{"A": "Logon", "0": "Heartbeat"}, EnumsByName: map[string]string{"Logon": "A", "Heartbeat": "0"}},
		34: {Number: 34, Name: "MsgSeqNum", Type: dictionary.TypeInt},
		49: {Number: 49, Name: "SenderCompID", Type: dictionary.TypeString},
		56: {Number: 56, Name: "TargetCompID", Type: dictionary.TypeString},
		52: {Number: 52, Name: "SendingTime", Type: dictionary.TypeString},
		98: {Number: 98, Name: "EncryptMethod", Type: dictionary.TypeInt},
		108: {Number: 108, Name: "HeartBtInt", Type: dictionary.TypeInt},
		10: {Number: 10, Name: "CheckSum", Type: dictionary.TypeString},
		11: {Number: 11, Name: "ClOrdID", Type: dictionary.TypeString},
	}
	byName := make(map[string]*dictionary.FieldDefinition, len(fieldsByNumber))
	for _, fd := range fieldsByNumber {
		byName[fd.Name] = fd
	}
	return &dictionary.Dictionary{FieldsByNumber: fieldsByNumber, FieldsByName: byName}
}

func testLogonTemplate() *fixmap.FieldMap {
	tmpl := fixmap.New()
	tmpl.Set("BeginString", "FIX.4.2")
	tmpl.Set("BodyLength", "")
	tmpl.Set("MsgType", "Logon")
	tmpl.Set("MsgSeqNum", "")
	tmpl.Set("SenderCompID", "")
	tmpl.Set("TargetCompID", "")
	tmpl.Set("SendingTime", "")
	tmpl.Set("EncryptMethod", "0")
	tmpl.Set("HeartBtInt", "30")
	tmpl.Set("CheckSum", "")
	return tmpl
}

func TestCodec_EncodeFromTemplate_ChecksumIsStandard(t *testing.T) {
	dict := testDictionary()
	c := New(dict, map[string]*fixmap.FieldMap{"Logon": testLogonTemplate()})

	overrides := fixmap.New()
	overrides.Set("SenderCompID", "ENGINE")
	overrides.Set("TargetCompID", "VENUE")

	out, err := c.EncodeFromTemplate("Logon", overrides, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	idx := strings.LastIndex(out, "10=")
	if idx < 0 {
		t.Fatalf("expected a CheckSum field in %q", out)
	}
	beforeChecksum := out[:idx]
	wantSum := 0
	for _, b := range []byte(strings.ReplaceAll(beforeChecksum, "|", "\x01")) {
		wantSum += int(b)
	}
	wantSum %= 256

	gotSumStr := strings.TrimSuffix(out[idx+len("10="):], "|")
	gotSum, err := strconv.Atoi(gotSumStr)
	if err != nil {
		t.Fatalf("checksum field is not numeric: %q", out)
	}
	if gotSum != wantSum {
		t.Errorf("checksum = %d, want %d (standard sum mod 256, not reference +1 bug)", gotSum, wantSum)
	}
}

func TestCodec_EncodeFromTemplate_BodyLengthExcludesBeginAndBody(t *testing.T) {
	dict := testDictionary()
	c := New(dict, map[string]*fixmap.FieldMap{"Logon": testLogonTemplate()})

	overrides := fixmap.New()
	overrides.Set("SenderCompID", "ENGINE")
	overrides.Set("TargetCompID", "VENUE")

	out, err := c.EncodeFromTemplate("Logon", overrides, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fields := strings.Split(strings.TrimSuffix(out, "|"), "|")
	if len(fields) < 2 || !strings.HasPrefix(fields[1], "9=") {
		t.Fatalf("expected BodyLength as second field in %q", out)
	}
	declared, err := strconv.Atoi(strings.TrimPrefix(fields[1], "9="))
	if err != nil {
		t.Fatalf("BodyLength not numeric: %q", fields[1])
	}

	bodyStart := strings.Index(out, "|") + 1
	bodyStart = strings.Index(out[bodyStart:], "|") + bodyStart + 1
	bodyEnd := strings.LastIndex(out, "10=")

	actual := len(out[bodyStart:bodyEnd])
	if declared != actual {
		t.Errorf("BodyLength = %d, want %d (octets between BodyLength and CheckSum)", declared, actual)
	}
}

func TestCodec_EncodeFromTemplate_MsgSeqNumAndEnumSubstitution(t *testing.T) {
	dict := testDictionary()
	c := New(dict, map[string]*fixmap.FieldMap{"Logon": testLogonTemplate()})

	out, err := c.EncodeFromTemplate("Logon", fixmap.New(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "34=42|") {
		t.Errorf("expected MsgSeqNum=42 in %q", out)
	}
	if !strings.Contains(out, "35=A|") {
		t.Errorf("expected MsgType enum substituted to wire code A in %q", out)
	}
}

func TestCodec_Decode_RoundTripsTemplate(t *testing.T) {
	dict := testDictionary()
	c := New(dict, map[string]*fixmap.FieldMap{"Logon": testLogonTemplate()})

	overrides := fixmap.New()
	overrides.Set("SenderCompID", "ENGINE")
	overrides.Set("TargetCompID", "VENUE")

	out, err := c.EncodeFromTemplate("Logon", overrides, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	name, fm := c.Decode(out)
	if name != "Logon" {
		t.Errorf("expected decoded type name Logon, got %s", name)
	}
	if v, _ := fm.Get("SenderCompID"); v != "ENGINE" {
		t.Errorf("expected SenderCompID=ENGINE, got %s", v)
	}
	if v, _ := fm.Get("MsgSeqNum"); v != "7" {
		t.Errorf("expected MsgSeqNum=7, got %s", v)
	}
	if sendingTime, ok := fm.Get("SendingTime"); ok {
		if _, err := time.Parse(sendingTimeFormat, sendingTime); err != nil {
			t.Errorf("expected SendingTime to be a valid timestamp: %v", err)
		}
	}
}

func TestCodec_Decode_UnknownTag(t *testing.T) {
	dict := testDictionary()
	c := New(dict, nil)

	name, fm := c.Decode("8=FIX.4.2|9999=oops|")
	if name != "UnknownTag" {
		t.Errorf("expected UnknownTag, got %s", name)
	}
	if v, _ := fm.Get("Unknown tag"); v != "oops" {
		t.Errorf("expected Unknown tag=oops, got %s", v)
	}
}

func TestCodec_Decode_InvalidTagNumber(t *testing.T) {
	dict := testDictionary()
	c := New(dict, nil)

	name, fm := c.Decode("8=FIX.4.2|notanumber=oops|")
	if name != "InvalidTagNumber" {
		t.Errorf("expected InvalidTagNumber, got %s", name)
	}
	if v, _ := fm.Get("Invalid tag number"); v != "oops" {
		t.Errorf("expected Invalid tag number=oops, got %s", v)
	}
}

func TestCodec_Decode_FirstOccurrenceWinsOnDuplicateTag(t *testing.T) {
	dict := testDictionary()
	c := New(dict, nil)

	_, fm := c.Decode("11=first|11=second|")
	if v, _ := fm.Get("ClOrdID"); v != "first" {
		t.Errorf("expected first occurrence to win, got %s", v)
	}
}
