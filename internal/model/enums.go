package model

import (
	"fmt"
	"strings"
)

// Closed enumerations shared by the ledger, register and receivables tables.
// Values arriving from outside go through the Parse* helpers exactly once; every
// consumer after that relies on the typed value.

type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodPix      PaymentMethod = "pix"
	MethodCard     PaymentMethod = "card"
	MethodTransfer PaymentMethod = "transfer"
	MethodWallet   PaymentMethod = "wallet"
)

// PaymentMethods lists every method in display order.
var PaymentMethods = []PaymentMethod{MethodCash, MethodPix, MethodCard, MethodTransfer, MethodWallet}

type SourceType string

const (
	SourceSale     SourceType = "sale"
	SourceRefund   SourceType = "refund"
	SourcePurchase SourceType = "purchase"
	SourceManual   SourceType = "manual"
	SourceTransfer SourceType = "transfer"
)

type AccountType string

const (
	AccountBank   AccountType = "BANK"
	AccountCard   AccountType = "CARD"
	AccountWallet AccountType = "WALLET"
	AccountCash   AccountType = "CASH"
)

type RegisterStatus string

const (
	RegisterOpen   RegisterStatus = "OPEN"
	RegisterClosed RegisterStatus = "CLOSED"
)

// AdjustmentType: SANGRIA withdraws cash from an open register, SUPRIMENTO injects it.
type AdjustmentType string

const (
	AdjustmentSangria    AdjustmentType = "SANGRIA"
	AdjustmentSuprimento AdjustmentType = "SUPRIMENTO"
)

type InstallmentStatus string

const (
	InstallmentPending  InstallmentStatus = "PENDING"
	InstallmentReceived InstallmentStatus = "RECEIVED"
)

type PayableStatus string

const (
	PayablePending PayableStatus = "PENDING"
	PayablePaid    PayableStatus = "PAID"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

// DiscrepancySeverity: "NONE" | "WARNING" | "CRITICAL"
type DiscrepancySeverity string

const (
	SeverityNone     DiscrepancySeverity = "NONE"
	SeverityWarning  DiscrepancySeverity = "WARNING"
	SeverityCritical DiscrepancySeverity = "CRITICAL"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToUpper(strings.TrimSpace(s))); d {
	case DirectionIn, DirectionOut:
		return d, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range PaymentMethods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

func ParseSourceType(s string) (SourceType, error) {
	switch t := SourceType(strings.ToLower(strings.TrimSpace(s))); t {
	case SourceSale, SourceRefund, SourcePurchase, SourceManual, SourceTransfer:
		return t, nil
	}
	return "", fmt.Errorf("unknown source type %q", s)
}

func ParseAccountType(s string) (AccountType, error) {
	switch t := AccountType(strings.ToUpper(strings.TrimSpace(s))); t {
	case AccountBank, AccountCard, AccountWallet, AccountCash:
		return t, nil
	}
	return "", fmt.Errorf("unknown account type %q", s)
}

func ParseRegisterStatus(s string) (RegisterStatus, error) {
	switch st := RegisterStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case RegisterOpen, RegisterClosed:
		return st, nil
	}
	return "", fmt.Errorf("unknown register status %q", s)
}

func ParseAdjustmentType(s string) (AdjustmentType, error) {
	switch t := AdjustmentType(strings.ToUpper(strings.TrimSpace(s))); t {
	case AdjustmentSangria, AdjustmentSuprimento:
		return t, nil
	}
	return "", fmt.Errorf("unknown adjustment type %q", s)
}

func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToUpper(strings.TrimSpace(s))); f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return f, nil
	}
	return "", fmt.Errorf("unknown frequency %q", s)
}
