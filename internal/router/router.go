// Package router implements §4.6's admin/application dispatch and §4.7's
// thin message-routing seam: given a decoded message type and fieldmap, it
// decides what (if anything) the session should send back, and maintains
// the order ledger and audit trail as a side effect.
//
// Admin handlers that mutate session state directly (Logon handshake,
// SequenceReset's outgoing-counter reset, Logout-driven shutdown) stay in
// internal/session, which owns that state; this package only produces
// replies and touches the order/audit stores.
package router

import (
	"log"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/primefix/fix-engine/builder"
	"github.com/primefix/fix-engine/constants"
	"github.com/primefix/fix-engine/internal/audit"
	"github.com/primefix/fix-engine/internal/fixmap"
	"github.com/primefix/fix-engine/internal/orderstore"
)

const soh = "\x01"

// ToWire converts a '|'-placeholder encoded message to its SOH-separated
// wire form, the normalization this package's doc comment promises (§4.7).
func ToWire(s string) string { return strings.ReplaceAll(s, "|", soh) }

// FromWire converts a SOH-separated wire message to its '|'-placeholder
// in-memory form.
func FromWire(s string) string { return strings.ReplaceAll(s, soh, "|") }

// Reply is one outbound message a handler wants the session to encode and
// send, keyed by the template name the codec registers it under.
type Reply struct {
	MsgType   string
	Overrides *fixmap.FieldMap
}

// Router dispatches admin and business messages for one session.
type Router struct {
	Orders      *orderstore.Store
	Audit       *audit.Trail
	IsInitiator bool

	execSeq uint64
}

// New constructs a Router bound to the given order ledger and audit trail.
// audit may be nil (trail disabled).
func New(orders *orderstore.Store, trail *audit.Trail, isInitiator bool) *Router {
	return &Router{Orders: orders, Audit: trail, IsInitiator: isInitiator}
}

// HandleAdmin dispatches an admin-category message (other than Logon,
// SequenceReset, and Logout, which the session handles directly since they
// mutate session state). incoming is the session's next-expected incoming
// sequence number, used verbatim as the reference prototype's gap-fill
// SequenceReset reply does.
func (r *Router) HandleAdmin(msgType string, fm *fixmap.FieldMap, incoming uint64) []Reply {
	switch msgType {
	case "Heartbeat", "TestRequest":
		testReqID, _ := fm.Get("TestReqID")
		return []Reply{{MsgType: "Heartbeat", Overrides: builder.BuildHeartbeat(testReqID)}}

	case "ResendRequest":
		return []Reply{{
			MsgType:   "SequenceReset",
			Overrides: builder.BuildSequenceReset(strconv.FormatUint(incoming, 10), false),
		}}

	default:
		return nil
	}
}

// HandleApplication dispatches a business-category message (§4.6 order
// lifecycle mapping). Initiator-role sessions silently drop everything here
// (they are the server's problem, logged at info level), matching the
// reference prototype's client-side behavior.
func (r *Router) HandleApplication(msgType string, fm *fixmap.FieldMap) []Reply {
	if r.IsInitiator {
		log.Printf("router: dropping unsolicited %s from peer (initiator role)", msgType)
		return nil
	}

	switch msgType {
	case "NewOrderSingle":
		return r.handleNewOrderSingle(fm)
	case "OrderCancelReplaceRequest":
		return r.handleOrderCancelReplace(fm)
	case "OrderCancelRequest":
		return r.handleOrderCancelRequest(fm)
	default:
		return []Reply{{
			MsgType:   "BusinessMessageReject",
			Overrides: builder.BuildBusinessMessageReject("", msgType, constants.BusinessRejectReasonUnsupportedMsgType, "unsupported message type"),
		}}
	}
}

func (r *Router) handleNewOrderSingle(fm *fixmap.FieldMap) []Reply {
	fields := builder.NewOrderFields{
		ClOrdID:      getField(fm, constants.FieldClOrdID),
		Account:      getField(fm, constants.FieldAccount),
		Symbol:       getField(fm, constants.FieldSymbol),
		Side:         getField(fm, constants.FieldSide),
		OrderQty:     getField(fm, constants.FieldOrderQty),
		Price:        getField(fm, constants.FieldPrice),
		OrdType:      getField(fm, constants.FieldOrdType),
		TransactTime: getField(fm, constants.FieldTransactTime),
	}

	if missing := fields.Missing(); missing != "" {
		log.Printf("router: NewOrderSingle missing %s, rejecting", missing)
		execID := r.nextExecID()
		r.recordAudit(orderIDFromClOrdID(fields.ClOrdID), fields.ClOrdID, constants.ExecTypeRejected, constants.OrdStatusRejected, fields.Symbol, fields.Side, fields.OrderQty, fields.Price, fields.TransactTime)
		return []Reply{{
			MsgType: "ExecutionReport",
			Overrides: builder.BuildExecutionReport(
				execID, fields.ClOrdID, fields.ClOrdID,
				constants.ExecTypeRejected, constants.OrdStatusRejected,
				fields.Symbol, fields.Side, fields.OrderQty, fields.Price,
			),
		}}
	}

	id := orderIDFromClOrdID(fields.ClOrdID)
	order := &orderstore.Order{
		ID:           id,
		ClOrdID:      fields.ClOrdID,
		Account:      fields.Account,
		Symbol:       fields.Symbol,
		Side:         orderstore.Side(fields.Side),
		Quantity:     fields.OrderQty,
		Price:        fields.Price,
		OrdType:      fields.OrdType,
		TransactTime: fields.TransactTime,
		OrdStatus:    orderstore.StatusNew,
	}
	if err := r.Orders.Add(order); err != nil {
		log.Printf("router: failed to add order %d: %v", id, err)
	}

	execID := r.nextExecID()
	r.recordAudit(id, fields.ClOrdID, constants.ExecTypeNew, constants.OrdStatusNew, fields.Symbol, fields.Side, fields.OrderQty, fields.Price, fields.TransactTime)

	return []Reply{{
		MsgType: "ExecutionReport",
		Overrides: builder.BuildExecutionReport(
			execID, fields.ClOrdID, fields.ClOrdID,
			constants.ExecTypeNew, constants.OrdStatusNew,
			fields.Symbol, fields.Side, fields.OrderQty, fields.Price,
		),
	}}
}

func (r *Router) handleOrderCancelReplace(fm *fixmap.FieldMap) []Reply {
	origClOrdID := getField(fm, constants.FieldOrigClOrdID)
	clOrdID := getField(fm, constants.FieldClOrdID)
	symbol := getField(fm, constants.FieldSymbol)
	side := getField(fm, constants.FieldSide)
	orderQty := getField(fm, constants.FieldOrderQty)
	price := getField(fm, constants.FieldPrice)
	ordType := getField(fm, constants.FieldOrdType)
	transactTime := getField(fm, constants.FieldTransactTime)

	if origClOrdID == "" || clOrdID == "" || symbol == "" || side == "" || orderQty == "" || price == "" || ordType == "" || transactTime == "" {
		log.Printf("router: OrderCancelReplaceRequest missing required fields, rejecting")
		return []Reply{{
			MsgType:   "OrderCancelReject",
			Overrides: builder.BuildOrderCancelReject(clOrdID, origClOrdID, "", constants.OrdRejReasonOther, constants.CxlRejResponseToReplace, "missing required field"),
		}}
	}

	id := orderIDFromClOrdID(origClOrdID)
	existing := r.Orders.Get(id)
	if existing == nil {
		log.Printf("router: OrderCancelReplaceRequest references unknown order %d (OrigClOrdID=%s)", id, origClOrdID)
		return []Reply{{
			MsgType:   "OrderCancelReject",
			Overrides: builder.BuildOrderCancelReject(clOrdID, origClOrdID, "", constants.OrdRejReasonUnknownOrder, constants.CxlRejResponseToReplace, "unknown order"),
		}}
	}

	existing.ClOrdID = clOrdID
	existing.Quantity = orderQty
	existing.Price = price
	existing.OrdStatus = orderstore.StatusReplaced
	if err := r.Orders.Update(existing); err != nil {
		log.Printf("router: failed to update order %d: %v", id, err)
	}

	execID := r.nextExecID()
	r.recordAudit(id, clOrdID, constants.ExecTypeReplaced, constants.OrdStatusReplaced, symbol, side, orderQty, price, transactTime)

	return []Reply{{
		MsgType: "ExecutionReport",
		Overrides: builder.BuildExecutionReport(
			execID, clOrdID, clOrdID,
			constants.ExecTypeReplaced, constants.OrdStatusReplaced,
			symbol, side, orderQty, price,
		),
	}}
}

func (r *Router) handleOrderCancelRequest(fm *fixmap.FieldMap) []Reply {
	origClOrdID := getField(fm, constants.FieldOrigClOrdID)
	clOrdID := getField(fm, constants.FieldClOrdID)
	symbol := getField(fm, constants.FieldSymbol)
	side := getField(fm, constants.FieldSide)
	transactTime := getField(fm, constants.FieldTransactTime)

	if origClOrdID == "" || clOrdID == "" || symbol == "" || side == "" || transactTime == "" {
		log.Printf("router: OrderCancelRequest missing required fields, rejecting")
		return []Reply{{
			MsgType:   "OrderCancelReject",
			Overrides: builder.BuildOrderCancelReject(clOrdID, origClOrdID, "", constants.OrdRejReasonOther, constants.CxlRejResponseToCancel, "missing required field"),
		}}
	}

	id := orderIDFromClOrdID(origClOrdID)
	existing := r.Orders.Get(id)
	if existing == nil {
		log.Printf("router: OrderCancelRequest references unknown order %d (OrigClOrdID=%s)", id, origClOrdID)
		return []Reply{{
			MsgType:   "OrderCancelReject",
			Overrides: builder.BuildOrderCancelReject(clOrdID, origClOrdID, "", constants.OrdRejReasonUnknownOrder, constants.CxlRejResponseToCancel, "unknown order"),
		}}
	}

	existing.OrdStatus = orderstore.StatusCanceled
	if err := r.Orders.Update(existing); err != nil {
		log.Printf("router: failed to update order %d: %v", id, err)
	}

	execID := r.nextExecID()
	r.recordAudit(id, clOrdID, constants.ExecTypeCanceled, constants.OrdStatusCanceled, symbol, side, existing.Quantity, existing.Price, transactTime)

	return []Reply{{
		MsgType: "ExecutionReport",
		Overrides: builder.BuildExecutionReport(
			execID, clOrdID, clOrdID,
			constants.ExecTypeCanceled, constants.OrdStatusCanceled,
			symbol, side, existing.Quantity, existing.Price,
		),
	}}
}

func (r *Router) recordAudit(orderID uint64, clOrdID, execType, ordStatus, symbol, side, qty, price, transactTime string) {
	if r.Audit == nil {
		return
	}
	if err := r.Audit.Record(audit.Record{
		OrderID: orderID, ClOrdID: clOrdID, ExecType: execType, OrdStatus: ordStatus,
		Symbol: symbol, Side: side, Quantity: qty, Price: price, TransactTime: transactTime,
	}); err != nil {
		log.Printf("router: failed to record audit entry for order %d: %v", orderID, err)
	}
}

func (r *Router) nextExecID() string {
	n := atomic.AddUint64(&r.execSeq, 1)
	return "EXEC-" + strconv.FormatUint(n, 10)
}

func getField(fm *fixmap.FieldMap, name string) string {
	v, _ := fm.Get(name)
	return v
}

// orderIDFromClOrdID derives the numeric order-store key from a ClOrdID
// (§3 Order: "id (from ClOrdID)"). Client order IDs that do not parse as an
// unsigned integer are hashed into the same id-space via FNV-1a, so
// non-numeric identifiers still key deterministically.
func orderIDFromClOrdID(clOrdID string) uint64 {
	if n, err := strconv.ParseUint(strings.TrimSpace(clOrdID), 10, 64); err == nil {
		return n
	}
	return fnv1a(clOrdID)
}

func fnv1a(s string) uint64 {
	const offset = 14695981039346656037
	const prime = 1099511628211
	var h uint64 = offset
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	return h
}
