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

// Package builder assembles the override fieldmaps that the codec merges
// over its message templates (§4.2 encode-from-template). Each Build
// function returns a *fixmap.FieldMap of only the fields that vary per call;
// SenderCompID/TargetCompID/BeginString/SendingTime live in the template and
// are filled in by the codec itself.
package builder

import (
	"github.com/primefix/fix-engine/constants"
	"github.com/primefix/fix-engine/internal/fixmap"
)

func overrides(pairs ...string) *fixmap.FieldMap {
	fm := fixmap.New()
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			fm.Set(pairs[i], pairs[i+1])
		}
	}
	return fm
}

// BuildLogon returns the overrides for a Logon (A) message.
func BuildLogon(heartBtInt string) *fixmap.FieldMap {
	return overrides(constants.FieldHeartBtInt, heartBtInt)
}

// BuildHeartbeat returns the overrides for a Heartbeat (0) message, echoing
// TestReqID when responding to a Test Request.
func BuildHeartbeat(testReqID string) *fixmap.FieldMap {
	return overrides(constants.FieldTestReqID, testReqID)
}

// BuildLogout returns the overrides for a Logout (5) message carrying a
// human-readable reason.
func BuildLogout(text string) *fixmap.FieldMap {
	return overrides(constants.FieldText, text)
}

// BuildResendRequest returns the overrides for a ResendRequest (2); endSeqNo
// of "0" means infinity per §4.6.
func BuildResendRequest(beginSeqNo, endSeqNo string) *fixmap.FieldMap {
	return overrides(constants.FieldBeginSeqNo, beginSeqNo, constants.FieldEndSeqNo, endSeqNo)
}

// BuildSequenceReset returns the overrides for a SequenceReset (4).
func BuildSequenceReset(newSeqNo string, gapFill bool) *fixmap.FieldMap {
	fm := overrides(constants.FieldNewSeqNo, newSeqNo)
	if gapFill {
		fm.Set(constants.FieldGapFillFlag, constants.GapFillYes)
	}
	return fm
}

// BuildReject returns the overrides for a session-level Reject (3).
func BuildReject(refSeqNum, refTagID, refMsgType, reason, text string) *fixmap.FieldMap {
	return overrides(
		constants.FieldRefSeqNum, refSeqNum,
		constants.FieldRefTagID, refTagID,
		constants.FieldRefMsgType, refMsgType,
		constants.FieldSessionRejReason, reason,
		constants.FieldText, text,
	)
}

// BuildBusinessMessageReject returns the overrides for a j (BusinessMessageReject).
func BuildBusinessMessageReject(refSeqNum, refMsgType, reason, text string) *fixmap.FieldMap {
	return overrides(
		constants.FieldRefSeqNum, refSeqNum,
		constants.FieldRefMsgType, refMsgType,
		constants.FieldBusinessRejReason, reason,
		constants.FieldText, text,
	)
}

// NewOrderFields are the fields read from an incoming NewOrderSingle (§4.6);
// all but Account must be present for the order to be accepted.
type NewOrderFields struct {
	ClOrdID      string
	Account      string
	Symbol       string
	Side         string
	OrderQty     string
	Price        string
	OrdType      string
	TransactTime string
}

// Missing reports the first required field found empty, or "" if all are
// present.
func (f NewOrderFields) Missing() string {
	switch {
	case f.ClOrdID == "":
		return constants.FieldClOrdID
	case f.Symbol == "":
		return constants.FieldSymbol
	case f.Side == "":
		return constants.FieldSide
	case f.OrderQty == "":
		return constants.FieldOrderQty
	case f.Price == "":
		return constants.FieldPrice
	case f.OrdType == "":
		return constants.FieldOrdType
	case f.TransactTime == "":
		return constants.FieldTransactTime
	default:
		return ""
	}
}

// BuildExecutionReport returns the overrides for an ExecutionReport (8).
func BuildExecutionReport(execID, orderID, clOrdID, execType, ordStatus, symbol, side, qty, price string) *fixmap.FieldMap {
	return overrides(
		constants.FieldExecID, execID,
		constants.FieldOrderID, orderID,
		constants.FieldClOrdID, clOrdID,
		constants.FieldExecType, execType,
		constants.FieldOrdStatus, ordStatus,
		constants.FieldSymbol, symbol,
		constants.FieldSide, side,
		constants.FieldOrderQty, qty,
		constants.FieldPrice, price,
	)
}

// BuildOrderCancelReject returns the overrides for an OrderCancelReject (9).
func BuildOrderCancelReject(clOrdID, origClOrdID, orderID, cxlRejReason, responseTo, text string) *fixmap.FieldMap {
	return overrides(
		constants.FieldClOrdID, clOrdID,
		constants.FieldOrigClOrdID, origClOrdID,
		constants.FieldOrderID, orderID,
		constants.FieldCxlRejReason, cxlRejReason,
		constants.FieldCxlRejRespTo, responseTo,
		constants.FieldText, text,
	)
}
