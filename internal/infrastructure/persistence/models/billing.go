package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/voltbill/backend/internal/domain/billing"
	"github.com/voltbill/backend/internal/domain/shared/valueobject"
)

// UnitModel maps billing.Unit to the units table
type UnitModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	Code         string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Category     string    `gorm:"type:varchar(30)"`
	Floor        string    `gorm:"type:varchar(10)"`
	OwnerName    string    `gorm:"type:varchar(200)"`
	OwnerContact string    `gorm:"type:varchar(100)"`
	IsActive     bool      `gorm:"not null;default:true;index"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UnitModel) TableName() string {
	return "units"
}

// ToDomain converts the persistence model to a domain Unit
func (m *UnitModel) ToDomain() *billing.Unit {
	return &billing.Unit{
		ID:           m.ID,
		Code:         m.Code,
		Category:     m.Category,
		Floor:        m.Floor,
		OwnerName:    m.OwnerName,
		OwnerContact: m.OwnerContact,
		IsActive:     m.IsActive,
	}
}

// MeterModel maps billing.Meter to the meters table
type MeterModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	SerialNumber string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	UnitID       uuid.UUID `gorm:"type:uuid;not null;index"`
	IsMotor      bool      `gorm:"not null;default:false"`
	Status       string    `gorm:"type:varchar(20);not null;default:'active'"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MeterModel) TableName() string {
	return "meters"
}

// ToDomain converts the persistence model to a domain Meter
func (m *MeterModel) ToDomain() *billing.Meter {
	return &billing.Meter{
		ID:           m.ID,
		SerialNumber: m.SerialNumber,
		UnitID:       m.UnitID,
		IsMotor:      m.IsMotor,
		Status:       billing.MeterStatus(m.Status),
	}
}

// ReadingModel maps billing.Reading to the meter_readings table
type ReadingModel struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	MeterID     int64           `gorm:"not null;index:idx_readings_meter_date,priority:1"`
	Value       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ReadingDate time.Time       `gorm:"not null;index:idx_readings_meter_date,priority:2"`
	Consumption decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	IsBilled    bool            `gorm:"not null;default:false;index"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReadingModel) TableName() string {
	return "meter_readings"
}

// ToDomain converts the persistence model to a domain Reading
func (m *ReadingModel) ToDomain() *billing.Reading {
	return &billing.Reading{
		ID:          m.ID,
		MeterID:     m.MeterID,
		Value:       m.Value,
		ReadingDate: m.ReadingDate,
		Consumption: m.Consumption,
		IsBilled:    m.IsBilled,
		CreatedAt:   m.CreatedAt,
	}
}

// FromDomainReading populates the model from a domain Reading
func FromDomainReading(r *billing.Reading) *ReadingModel {
	return &ReadingModel{
		ID:          r.ID,
		MeterID:     r.MeterID,
		Value:       r.Value,
		ReadingDate: r.ReadingDate,
		Consumption: r.Consumption,
		IsBilled:    r.IsBilled,
		CreatedAt:   r.CreatedAt,
	}
}

// BillModel maps billing.Bill to the bills table. The unique index on
// (unit_id, billing_period_start) backs the one-bill-per-period rule.
type BillModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key"`
	UnitID             uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_bills_unit_period,priority:1"`
	BillingPeriodStart time.Time       `gorm:"not null;uniqueIndex:idx_bills_unit_period,priority:2"`
	BillingPeriodEnd   time.Time       `gorm:"not null;index"`
	DueDate            time.Time       `gorm:"not null;index"`
	FlatUnits          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MotorUnits         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalUnits         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Status             string          `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentLinkURL     string          `gorm:"type:text"`
	PaymentLinkID      string          `gorm:"type:varchar(100);index"`
	PaymentDate        *time.Time
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BillModel) TableName() string {
	return "bills"
}

// ToDomain converts the persistence model to a domain Bill
func (m *BillModel) ToDomain() *billing.Bill {
	return &billing.Bill{
		ID:                 m.ID,
		UnitID:             m.UnitID,
		BillingPeriodStart: m.BillingPeriodStart,
		BillingPeriodEnd:   m.BillingPeriodEnd,
		DueDate:            m.DueDate,
		FlatUnits:          m.FlatUnits,
		MotorUnits:         m.MotorUnits,
		TotalUnits:         m.TotalUnits,
		TotalAmount:        valueobject.NewMoneyINR(m.TotalAmount),
		Status:             billing.BillStatus(m.Status),
		PaymentLinkURL:     m.PaymentLinkURL,
		PaymentLinkID:      m.PaymentLinkID,
		PaymentDate:        m.PaymentDate,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// FromDomainBill populates the model from a domain Bill
func FromDomainBill(b *billing.Bill) *BillModel {
	return &BillModel{
		ID:                 b.ID,
		UnitID:             b.UnitID,
		BillingPeriodStart: b.BillingPeriodStart,
		BillingPeriodEnd:   b.BillingPeriodEnd,
		DueDate:            b.DueDate,
		FlatUnits:          b.FlatUnits,
		MotorUnits:         b.MotorUnits,
		TotalUnits:         b.TotalUnits,
		TotalAmount:        b.TotalAmount.Amount(),
		Status:             string(b.Status),
		PaymentLinkURL:     b.PaymentLinkURL,
		PaymentLinkID:      b.PaymentLinkID,
		PaymentDate:        b.PaymentDate,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

// NotificationModel maps billing.Notification to the notifications table
type NotificationModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	BillID    *uuid.UUID `gorm:"type:uuid;index"`
	UnitID    *uuid.UUID `gorm:"type:uuid;index"`
	Kind      string     `gorm:"type:varchar(30);not null"`
	Channel   string     `gorm:"type:varchar(30);not null"`
	Message   string     `gorm:"type:text"`
	Status    string     `gorm:"type:varchar(10);not null"`
	SentAt    time.Time  `gorm:"not null"`
	CreatedAt time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToDomain converts the persistence model to a domain Notification
func (m *NotificationModel) ToDomain() *billing.Notification {
	return &billing.Notification{
		ID:        m.ID,
		BillID:    m.BillID,
		UnitID:    m.UnitID,
		Kind:      billing.NotificationKind(m.Kind),
		Channel:   m.Channel,
		Message:   m.Message,
		Status:    billing.NotificationStatus(m.Status),
		SentAt:    m.SentAt,
		CreatedAt: m.CreatedAt,
	}
}

// FromDomainNotification populates the model from a domain Notification
func FromDomainNotification(n *billing.Notification) *NotificationModel {
	return &NotificationModel{
		ID:        n.ID,
		BillID:    n.BillID,
		UnitID:    n.UnitID,
		Kind:      string(n.Kind),
		Channel:   n.Channel,
		Message:   n.Message,
		Status:    string(n.Status),
		SentAt:    n.SentAt,
		CreatedAt: n.CreatedAt,
	}
}

// PaymentEventModel maps billing.PaymentEvent to the payment_events
// table. ProviderEventID is unique to back replay deduplication.
type PaymentEventModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	BillID          *uuid.UUID      `gorm:"type:uuid;index"`
	ProviderEventID string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	EventType       string          `gorm:"type:varchar(50);not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Payload         string          `gorm:"type:text"`
	ReceivedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentEventModel) TableName() string {
	return "payment_events"
}

// ToDomain converts the persistence model to a domain PaymentEvent
func (m *PaymentEventModel) ToDomain() *billing.PaymentEvent {
	return &billing.PaymentEvent{
		ID:              m.ID,
		BillID:          m.BillID,
		ProviderEventID: m.ProviderEventID,
		EventType:       m.EventType,
		Amount:          valueobject.NewMoneyINR(m.Amount),
		Payload:         m.Payload,
		ReceivedAt:      m.ReceivedAt,
	}
}

// FromDomainPaymentEvent populates the model from a domain PaymentEvent
func FromDomainPaymentEvent(e *billing.PaymentEvent) *PaymentEventModel {
	return &PaymentEventModel{
		ID:              e.ID,
		BillID:          e.BillID,
		ProviderEventID: e.ProviderEventID,
		EventType:       e.EventType,
		Amount:          e.Amount.Amount(),
		Payload:         e.Payload,
		ReceivedAt:      e.ReceivedAt,
	}
}

// UnitPricingModel is one row of the pricing table keyed by canonical
// unit code.
type UnitPricingModel struct {
	Code        string          `gorm:"type:varchar(50);primary_key"`
	RatePerUnit decimal.Decimal `gorm:"type:decimal(8,2);not null"`
	FixedCharge decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UnitPricingModel) TableName() string {
	return "unit_pricing"
}
