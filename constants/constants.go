/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package constants

// --- Message Types (Tag 35) ---
const (
	MsgTypeLogon               = "A" // Logon
	MsgTypeLogout              = "5" // Logout
	MsgTypeHeartbeat           = "0" // Heartbeat
	MsgTypeTestRequest         = "1" // Test Request
	MsgTypeResendRequest       = "2" // Resend Request
	MsgTypeReject              = "3" // Session-level Reject
	MsgTypeSequenceReset       = "4" // Sequence Reset
	MsgTypeBusinessReject      = "j" // Business Message Reject
	MsgTypeNewOrderSingle      = "D" // New Order Single
	MsgTypeOrderCancelRequest  = "F" // Order Cancel Request
	MsgTypeOrderCancelReplace  = "G" // Order Cancel/Replace Request
	MsgTypeOrderCancelReject   = "9" // Order Cancel Reject
	MsgTypeExecutionReport     = "8" // Execution Report
)

// --- Protocol Constants ---
const (
	FixBeginString      = "FIX.4.2"
	FixTimeFormat       = "20060102-15:04:05.000"
	MsgSeqNumInit       = "1"
	DefaultHeartBtInt   = "15"
	GapFillYes          = "Y"
)

// --- Order Types (Tag 40) ---
const (
	OrdTypeMarket    = "1" // Market
	OrdTypeLimit     = "2" // Limit
	OrdTypeStop      = "3" // Stop
	OrdTypeStopLimit = "4" // Stop Limit
)

// --- Side (Tag 54) ---
const (
	SideBuy  = "1" // Buy
	SideSell = "2" // Sell
)

// --- Time In Force (Tag 59) ---
const (
	TimeInForceGTC = "1" // Good Till Cancel
	TimeInForceIOC = "3" // Immediate or Cancel
	TimeInForceFOK = "4" // Fill or Kill
	TimeInForceGTD = "6" // Good Till Date
)

// --- Order Status (Tag 39) ---
const (
	OrdStatusNew      = "0" // New
	OrdStatusFilled   = "2" // Filled
	OrdStatusCanceled = "4" // Canceled
	OrdStatusReplaced = "5" // Replaced
	OrdStatusRejected = "8" // Rejected
)

// --- Execution Type (Tag 150) ---
const (
	ExecTypeNew      = "0" // New Order
	ExecTypeCanceled = "4" // Canceled
	ExecTypeReplaced = "5" // Replaced
	ExecTypeRejected = "8" // Rejected
)

// --- Order Reject Reason (Tag 103) ---
const (
	OrdRejReasonBrokerOption = "0"  // Broker option
	OrdRejReasonUnknownOrder = "5"  // Unknown Order
	OrdRejReasonOther        = "99" // Other
)

// --- Cancel Reject Response To (Tag 434) ---
const (
	CxlRejResponseToCancel  = "1" // Order Cancel Request (F)
	CxlRejResponseToReplace = "2" // Order Cancel/Replace Request (G)
)

// --- Session Reject Reason (Tag 373) ---
const (
	SessionRejectReasonInvalidTag         = "0"
	SessionRejectReasonRequiredTagMissing = "1"
	SessionRejectReasonInvalidMsgType     = "11"
)

// --- Business Reject Reason (Tag 380) ---
const (
	BusinessRejectReasonUnknownID          = "1"
	BusinessRejectReasonUnsupportedMsgType = "3"
	BusinessRejectReasonCondRequiredMissing = "5"
)

// --- Standard FIX Field Names ---
// Field access throughout the engine goes through dictionary-resolved names
// (internal/fixmap), not numeric tags, so this package no longer carries a
// quickfix.Tag table (DESIGN.md: dropped teacher dependency).
const (
	FieldBeginString   = "BeginString"
	FieldBodyLength    = "BodyLength"
	FieldMsgType       = "MsgType"
	FieldMsgSeqNum     = "MsgSeqNum"
	FieldSenderCompID  = "SenderCompID"
	FieldTargetCompID  = "TargetCompID"
	FieldSendingTime   = "SendingTime"
	FieldCheckSum      = "CheckSum"
	FieldClOrdID       = "ClOrdID"
	FieldOrigClOrdID   = "OrigClOrdID"
	FieldAccount       = "Account"
	FieldSymbol        = "Symbol"
	FieldSide          = "Side"
	FieldOrderQty      = "OrderQty"
	FieldPrice         = "Price"
	FieldOrdType       = "OrdType"
	FieldTransactTime  = "TransactTime"
	FieldOrdStatus     = "OrdStatus"
	FieldExecType      = "ExecType"
	FieldExecID        = "ExecID"
	FieldOrderID       = "OrderID"
	FieldOrdRejReason  = "OrdRejReason"
	FieldCxlRejReason  = "CxlRejReason"
	FieldCxlRejRespTo  = "CxlRejResponseTo"
	FieldText          = "Text"
	FieldRefSeqNum     = "RefSeqNum"
	FieldRefMsgType    = "RefMsgType"
	FieldRefTagID      = "RefTagID"
	FieldSessionRejReason  = "SessionRejectReason"
	FieldBusinessRejReason = "BusinessRejectReason"
	FieldBeginSeqNo    = "BeginSeqNo"
	FieldEndSeqNo      = "EndSeqNo"
	FieldNewSeqNo      = "NewSeqNo"
	FieldGapFillFlag   = "GapFillFlag"
	FieldHeartBtInt    = "HeartBtInt"
	FieldTestReqID     = "TestReqID"
)
