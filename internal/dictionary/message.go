package dictionary

import "encoding/xml"

// Category distinguishes session-layer admin traffic from application
// traffic for dispatch purposes (§4.6).
type Category int

const (
	CategoryAdmin Category = iota
	CategoryApp
)

// HeaderKey and TrailerKey are the synthetic message-dictionary keys used for
// the pseudo header/trailer definitions (§3, §4.1).
const (
	HeaderKey  = "<"
	TrailerKey = ">"
)

// MessageDefinition is the dictionary entry for one FIX message type: its
// name, wire code, category, the set of fields it requires, and the ordered
// list of all fields it may carry.
type MessageDefinition struct {
	Name     string
	MsgType  string
	Category Category
	Required map[string]bool
	Fields   []string
}

// xmlPayloadDoc mirrors the <fix><header/><messages/><trailer/></fix> shape
// of the message dictionary.
type xmlPayloadDoc struct {
	XMLName  xml.Name        `xml:"fix"`
	Header   *xmlMessageTag  `xml:"header"`
	Messages []xmlMessageTag `xml:"messages>message"`
	Trailer  *xmlMessageTag  `xml:"trailer"`
}

type xmlMessageTag struct {
	Name    string          `xml:"name,attr"`
	MsgType string          `xml:"msgtype,attr"`
	MsgCat  string          `xml:"msgcat,attr"`
	Fields  []xmlFieldUsage `xml:"field"`
}

type xmlFieldUsage struct {
	Name     string `xml:"name,attr"`
	Required string `xml:"required,attr"`
}
