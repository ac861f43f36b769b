// Copyright 2023-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/zeebo/blake3"
)

// TransactionKind enumerates every ledger event type. The effects table below
// must cover every kind; ValidateEffectsTable enforces that at startup so a
// new kind cannot silently fall through with no effect.
type TransactionKind string

const (
	PurchaseTransaction         TransactionKind = "PURCHASE"
	SaleTransaction             TransactionKind = "SALE"
	InboundDeliveryTransaction  TransactionKind = "INBOUND_DELIVERY"
	OutboundDeliveryTransaction TransactionKind = "OUTBOUND_DELIVERY"
	SecurityTransferTransaction TransactionKind = "SECURITY_TRANSFER"
	CashTransferTransaction     TransactionKind = "CASH_TRANSFER"
	DepositTransaction          TransactionKind = "DEPOSIT"
	RemovalTransaction          TransactionKind = "REMOVAL"
	DividendTransaction         TransactionKind = "DIVIDEND"
	InterestTransaction         TransactionKind = "INTEREST"
	InterestChargeTransaction   TransactionKind = "INTEREST_CHARGE"
	TaxTransaction              TransactionKind = "TAX"
	TaxRefundTransaction        TransactionKind = "TAX_REFUND"
	FeeTransaction              TransactionKind = "FEE"
	FeeRefundTransaction        TransactionKind = "FEE_REFUND"
)

var (
	ErrUnknownTransactionKind = errors.New("unrecognized transaction kind")
	ErrEffectsTableIncomplete = errors.New("transaction effects table does not cover all kinds")
)

// Effect describes how a transaction kind moves shares and cash.
// SharesSign/CashSign are -1, 0 or +1 multipliers for the transaction's share
// count and amount. ExternalFlow marks changes to the investor's contributed
// capital; these dates partition TTWROR sub-periods.
type Effect struct {
	SharesSign   int
	CashSign     int
	ExternalFlow bool
	Transfer     bool
}

var kindEffects = map[TransactionKind]Effect{
	PurchaseTransaction:         {SharesSign: +1, CashSign: -1},
	SaleTransaction:             {SharesSign: -1, CashSign: +1},
	InboundDeliveryTransaction:  {SharesSign: +1, ExternalFlow: true},
	OutboundDeliveryTransaction: {SharesSign: -1, ExternalFlow: true},
	SecurityTransferTransaction: {Transfer: true},
	CashTransferTransaction:     {Transfer: true},
	DepositTransaction:          {CashSign: +1, ExternalFlow: true},
	RemovalTransaction:          {CashSign: -1, ExternalFlow: true},
	DividendTransaction:         {CashSign: +1},
	InterestTransaction:         {CashSign: +1},
	InterestChargeTransaction:   {CashSign: -1},
	TaxTransaction:              {CashSign: -1},
	TaxRefundTransaction:        {CashSign: +1},
	FeeTransaction:              {CashSign: -1},
	FeeRefundTransaction:        {CashSign: +1},
}

var allKinds = []TransactionKind{
	PurchaseTransaction, SaleTransaction,
	InboundDeliveryTransaction, OutboundDeliveryTransaction,
	SecurityTransferTransaction, CashTransferTransaction,
	DepositTransaction, RemovalTransaction,
	DividendTransaction, InterestTransaction, InterestChargeTransaction,
	TaxTransaction, TaxRefundTransaction,
	FeeTransaction, FeeRefundTransaction,
}

// EffectOf returns the share/cash effect for the given kind
func EffectOf(kind TransactionKind) (Effect, error) {
	effect, ok := kindEffects[kind]
	if !ok {
		return Effect{}, fmt.Errorf("%w: %s", ErrUnknownTransactionKind, kind)
	}
	return effect, nil
}

// ValidateEffectsTable checks that every declared kind has an effect entry
func ValidateEffectsTable() error {
	for _, kind := range allKinds {
		if _, ok := kindEffects[kind]; !ok {
			return fmt.Errorf("%w: missing %s", ErrEffectsTableIncomplete, kind)
		}
	}
	if len(kindEffects) != len(allKinds) {
		return ErrEffectsTableIncomplete
	}
	return nil
}

// Transaction is an immutable ledger event. Ordering is by Date with file
// order as the tie break for same-day events, so replay is deterministic.
type Transaction struct {
	SourceID       string          `json:"-"`
	Date           time.Time       `json:"date"`
	Kind           TransactionKind `json:"kind"`
	Amount         float64         `json:"amount"`
	Currency       string          `json:"currency"`
	Shares         float64         `json:"shares,omitempty"`
	SecurityID     string          `json:"security,omitempty"`
	SecurityName   string          `json:"security_name,omitempty"`
	Account        string          `json:"account,omitempty"`
	CounterAccount string          `json:"counter_account,omitempty"`
	Note           string          `json:"note,omitempty"`
}

// ExternalFlow reports whether the transaction changes contributed capital
func (trx *Transaction) ExternalFlow() bool {
	effect, ok := kindEffects[trx.Kind]
	return ok && effect.ExternalFlow
}

// SignedFlow returns the external flow amount with its sign: positive for
// money entering the portfolio, negative for money leaving it. Zero for
// internal transactions.
func (trx *Transaction) SignedFlow() float64 {
	effect, ok := kindEffects[trx.Kind]
	if !ok || !effect.ExternalFlow {
		return 0
	}
	switch {
	case effect.CashSign != 0:
		return float64(effect.CashSign) * trx.Amount
	case effect.SharesSign != 0:
		// deliveries move value in kind; Amount carries the market value
		return float64(effect.SharesSign) * trx.Amount
	}
	return 0
}

// ComputeSourceID assigns a deterministic content hash to the transaction.
// Re-syncing the same ledger always yields the same IDs, which keeps
// recomputation idempotent.
func (trx *Transaction) ComputeSourceID() {
	h := blake3.New()
	fmt.Fprintf(h, "%s:%s:%.8f:%s:%.8f:%s:%s:%s",
		trx.Date.Format("2006-01-02"), trx.Kind, trx.Amount, trx.Currency,
		trx.Shares, trx.SecurityID, trx.Account, trx.Note)
	trx.SourceID = fmt.Sprintf("%x", h.Sum(nil))
}
