package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	domainbilling "github.com/voltbill/backend/internal/domain/billing"
	"github.com/voltbill/backend/internal/domain/shared/valueobject"
	"github.com/voltbill/backend/internal/domain/tariff"
	"github.com/voltbill/backend/internal/infrastructure/advisor"
	"github.com/voltbill/backend/internal/infrastructure/messaging"
	"github.com/voltbill/backend/internal/infrastructure/payment"
	"github.com/voltbill/backend/internal/infrastructure/resilience"
	"go.uber.org/zap"
)

// JobResult is the structured outcome of one scheduled job run.
// Per-item failures are counted, never propagated.
type JobResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// Service orchestrates bill creation and the scheduled job bodies:
// monthly generation, payment reminders, overdue marking.
type Service struct {
	bills         domainbilling.BillRepository
	units         domainbilling.UnitRepository
	readings      domainbilling.ReadingRepository
	notifications domainbilling.NotificationRepository
	resolver      *tariff.Resolver
	payments      payment.Provider
	sender        messaging.Sender
	advisor       advisor.Advisor
	retry         *resilience.Retry
	breaker       *resilience.CircuitBreaker

	reminderWindowDays int
	dueDays            int

	validate *validator.Validate
	logger   *zap.Logger
}

// ServiceConfig holds the collaborators of a Service
type ServiceConfig struct {
	Bills         domainbilling.BillRepository
	Units         domainbilling.UnitRepository
	Readings      domainbilling.ReadingRepository
	Notifications domainbilling.NotificationRepository
	Resolver      *tariff.Resolver
	Payments      payment.Provider
	Sender        messaging.Sender
	Advisor       advisor.Advisor
	Retry         *resilience.Retry
	Breaker       *resilience.CircuitBreaker

	ReminderWindowDays int
	DueDays            int

	Logger *zap.Logger
}

// NewService creates a billing Service
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retry == nil {
		cfg.Retry = resilience.NewRetry(logger)
	}
	if cfg.Breaker == nil {
		cfg.Breaker = resilience.NewCircuitBreaker(5, time.Minute, logger)
	}
	if cfg.Advisor == nil {
		cfg.Advisor = advisor.NewDisabled()
	}
	if cfg.ReminderWindowDays <= 0 {
		cfg.ReminderWindowDays = 3
	}

	return &Service{
		bills:              cfg.Bills,
		units:              cfg.Units,
		readings:           cfg.Readings,
		notifications:      cfg.Notifications,
		resolver:           cfg.Resolver,
		payments:           cfg.Payments,
		sender:             cfg.Sender,
		advisor:            cfg.Advisor,
		retry:              cfg.Retry,
		breaker:            cfg.Breaker,
		reminderWindowDays: cfg.ReminderWindowDays,
		dueDays:            cfg.DueDays,
		validate:           validator.New(),
		logger:             logger,
	}
}

// CreateBillInput is the manual bill-creation request. Either UnitID
// or Identifier must name the unit; Identifier may be a meter serial,
// a numeric meter id, or a unit code.
type CreateBillInput struct {
	UnitID      *uuid.UUID
	Identifier  string    `validate:"required_without=UnitID"`
	PeriodStart time.Time `validate:"required"`
	PeriodEnd   time.Time `validate:"required"`

	FlatUnits           decimal.Decimal
	MotorUnits          decimal.Decimal
	TotalBlockUnits     decimal.Decimal
	PreviousOutstanding decimal.Decimal
}

// CreateBill prices and computes one bill, stores it, then issues a
// payment link and a new-bill notice. Link and notice failures are
// logged, not fatal; the stored bill is returned either way.
func (s *Service) CreateBill(ctx context.Context, input CreateBillInput) (*domainbilling.Bill, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	identifier := input.Identifier
	if input.UnitID != nil {
		unit, err := s.units.FindByID(ctx, *input.UnitID)
		if err != nil {
			return nil, err
		}
		identifier = pricingIdentifier(unit)
	}

	pricing, err := s.resolver.Resolve(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("resolve pricing for %q: %w", identifier, err)
	}

	breakdown := tariff.Compute(
		input.FlatUnits, input.MotorUnits, input.TotalBlockUnits,
		pricing.RatePerUnit, pricing.FixedCharge, input.PreviousOutstanding,
	)

	bill, err := s.bills.CreateBill(ctx, domainbilling.BillCreateInput{
		UnitID:         input.UnitID,
		UnitIdentifier: input.Identifier,
		PeriodStart:    input.PeriodStart,
		PeriodEnd:      input.PeriodEnd,
		DueDate:        s.dueDate(input.PeriodEnd),
		FlatUnits:      breakdown.FlatUnits,
		MotorUnits:     breakdown.MotorUnits,
		TotalUnits:     breakdown.TotalUnits,
		TotalAmount:    totalMoney(breakdown),
	})
	if err != nil {
		return nil, err
	}

	unit, uerr := s.units.FindByID(ctx, bill.UnitID)
	if uerr != nil {
		s.logger.Warn("bill stored but unit lookup failed, skipping link and notice",
			zap.String("bill_id", bill.ID.String()), zap.Error(uerr))
		return bill, nil
	}
	s.issuePaymentLink(ctx, bill, unit)
	s.notifyBillIssued(ctx, bill, unit)
	return bill, nil
}

// GenerateMonthlyBills creates one bill per active unit for the given
// period. Consumption is the delta of the two most recent readings per
// meter, floored at zero; the shared motor usage is apportioned by
// each unit's share of its block's total. One unit's failure never
// aborts the batch.
func (s *Service) GenerateMonthlyBills(ctx context.Context, periodStart, periodEnd time.Time) (JobResult, error) {
	if err := s.bills.AssertPeriodUnlocked(periodStart, periodEnd); err != nil {
		return JobResult{}, err
	}

	unitMeters, err := s.units.ListActiveWithMeters(ctx)
	if err != nil {
		return JobResult{}, fmt.Errorf("list active units: %w", err)
	}

	result := JobResult{Total: len(unitMeters)}

	// First pass: flat consumption per unit and block totals per
	// shared motor meter.
	flatUnits := make(map[uuid.UUID]decimal.Decimal, len(unitMeters))
	blockTotals := make(map[int64]decimal.Decimal)
	for _, um := range unitMeters {
		if um.FlatMeter == nil {
			continue
		}
		delta, derr := s.consumptionFor(ctx, um.FlatMeter.ID)
		if derr != nil {
			continue
		}
		flatUnits[um.Unit.ID] = delta
		if um.MotorMeter != nil {
			blockTotals[um.MotorMeter.ID] = blockTotals[um.MotorMeter.ID].Add(delta)
		}
	}

	for _, um := range unitMeters {
		if err := s.generateUnitBill(ctx, um, flatUnits, blockTotals, periodStart, periodEnd); err != nil {
			result.Failed++
			s.logger.Warn("monthly generation failed for unit",
				zap.String("unit_code", um.Unit.Code),
				zap.Error(err))
			continue
		}
		result.Succeeded++
	}

	s.logger.Info("monthly bill generation finished",
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Int("total", result.Total))
	return result, nil
}

func (s *Service) generateUnitBill(ctx context.Context, um domainbilling.UnitMeters, flatUnits map[uuid.UUID]decimal.Decimal, blockTotals map[int64]decimal.Decimal, periodStart, periodEnd time.Time) error {
	if um.FlatMeter == nil {
		return fmt.Errorf("unit %s has no active meter", um.Unit.Code)
	}

	flat := flatUnits[um.Unit.ID]
	motor := decimal.Zero
	block := decimal.Zero
	if um.MotorMeter != nil {
		m, err := s.consumptionFor(ctx, um.MotorMeter.ID)
		if err != nil {
			return err
		}
		motor = m
		block = blockTotals[um.MotorMeter.ID]
	}

	pricing, err := s.resolver.Resolve(ctx, pricingIdentifier(&um.Unit))
	if err != nil {
		return err
	}
	breakdown := tariff.Compute(flat, motor, block, pricing.RatePerUnit, pricing.FixedCharge, decimal.Zero)

	unitID := um.Unit.ID
	bill, err := s.bills.CreateBill(ctx, domainbilling.BillCreateInput{
		UnitID:      &unitID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		DueDate:     s.dueDate(periodEnd),
		FlatUnits:   breakdown.FlatUnits,
		MotorUnits:  breakdown.MotorUnits,
		TotalUnits:  breakdown.TotalUnits,
		TotalAmount: totalMoney(breakdown),
	})
	if err != nil {
		return err
	}

	s.markReadingsBilled(ctx, um, periodEnd)
	s.issuePaymentLink(ctx, bill, &um.Unit)
	s.notifyBillIssued(ctx, bill, &um.Unit)
	return nil
}

// markReadingsBilled flags the readings a generated bill consumed so
// they drop out of the unbilled scan. A failure leaves them eligible
// for the next run and is only logged.
func (s *Service) markReadingsBilled(ctx context.Context, um domainbilling.UnitMeters, periodEnd time.Time) {
	for _, meter := range []*domainbilling.Meter{um.FlatMeter, um.MotorMeter} {
		if meter == nil {
			continue
		}
		if _, err := s.readings.MarkBilledThrough(ctx, meter.ID, periodEnd); err != nil {
			s.logger.Warn("readings could not be marked billed",
				zap.Int64("meter_id", meter.ID),
				zap.Error(err))
		}
	}
}

// SendPaymentReminders notifies holders of pending bills due within
// the reminder window. Bills already marked overdue are left to the
// overdue job so nobody is messaged twice. Reminders never change
// bill status.
func (s *Service) SendPaymentReminders(ctx context.Context, today time.Time) (JobResult, error) {
	due, err := s.bills.FindDueWithin(ctx, s.reminderWindowDays, today)
	if err != nil {
		return JobResult{}, fmt.Errorf("find bills due within %d days: %w", s.reminderWindowDays, err)
	}

	result := JobResult{Total: len(due)}
	for _, bill := range due {
		if err := s.sendReminder(ctx, bill, today); err != nil {
			result.Failed++
			s.logger.Warn("reminder failed",
				zap.String("bill_id", bill.ID.String()),
				zap.Error(err))
			continue
		}
		result.Succeeded++
	}

	s.logger.Info("payment reminders finished",
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Int("total", result.Total))
	return result, nil
}

func (s *Service) sendReminder(ctx context.Context, bill *domainbilling.Bill, today time.Time) error {
	unit, err := s.units.FindByID(ctx, bill.UnitID)
	if err != nil {
		return err
	}

	tier := domainbilling.TierForDaysUntilDue(bill.DaysUntilDue(today))

	msg, err := s.advisor.GenerateMessage(ctx, string(domainbilling.NotificationKindReminder), advisor.MessageContext{
		UnitCode:  unit.Code,
		Amount:    bill.TotalAmount.StringFixed(2),
		DueDate:   bill.DueDate.Format("2006-01-02"),
		DaysUntil: bill.DaysUntilDue(today),
	})
	if err != nil {
		msg = fmt.Sprintf("Payment reminder for %s: ₹%s due %s.",
			unit.Code, bill.TotalAmount.StringFixed(2), bill.DueDate.Format("2006-01-02"))
	}

	title := fmt.Sprintf("Payment reminder (%s)", tier)
	return s.deliver(ctx, domainbilling.NotificationKindReminder, bill, unit, title, msg)
}

// MarkOverdueBills transitions pending bills past their due date to
// overdue and sends an overdue notice for each.
func (s *Service) MarkOverdueBills(ctx context.Context, today time.Time) (JobResult, error) {
	overdue, err := s.bills.FindOverdue(ctx, today)
	if err != nil {
		return JobResult{}, fmt.Errorf("find overdue bills: %w", err)
	}

	result := JobResult{Total: len(overdue)}
	for _, bill := range overdue {
		updated, uerr := s.bills.UpdateStatus(ctx, bill.ID, domainbilling.BillStatusOverdue, nil)
		if uerr != nil {
			result.Failed++
			s.logger.Warn("overdue transition failed",
				zap.String("bill_id", bill.ID.String()),
				zap.Error(uerr))
			continue
		}
		result.Succeeded++

		unit, uerr := s.units.FindByID(ctx, updated.UnitID)
		if uerr != nil {
			s.logger.Warn("overdue notice skipped, unit lookup failed",
				zap.String("bill_id", bill.ID.String()), zap.Error(uerr))
			continue
		}
		msg, merr := s.advisor.GenerateMessage(ctx, string(domainbilling.NotificationKindOverdue), advisor.MessageContext{
			UnitCode: unit.Code,
			Amount:   updated.TotalAmount.StringFixed(2),
			DueDate:  updated.DueDate.Format("2006-01-02"),
		})
		if merr != nil {
			msg = fmt.Sprintf("Bill for %s is overdue.", unit.Code)
		}
		if derr := s.deliver(ctx, domainbilling.NotificationKindOverdue, updated, unit, "Bill overdue", msg); derr != nil {
			s.logger.Warn("overdue notice delivery failed",
				zap.String("bill_id", bill.ID.String()), zap.Error(derr))
		}
	}

	s.logger.Info("overdue marking finished",
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Int("total", result.Total))
	return result, nil
}

// CollectMeterReadings is a stub for future meter polling. It only
// logs intent.
func (s *Service) CollectMeterReadings(ctx context.Context) (JobResult, error) {
	s.logger.Info("meter reading collection triggered, polling not implemented yet")
	return JobResult{}, nil
}

func (s *Service) consumptionFor(ctx context.Context, meterID int64) (decimal.Decimal, error) {
	recent, err := s.readings.RecentByMeter(ctx, meterID, 2)
	if err != nil {
		return decimal.Zero, err
	}
	if len(recent) < 2 {
		return decimal.Zero, nil
	}
	return domainbilling.ConsumptionBetween(recent[1].Value, recent[0].Value), nil
}

func (s *Service) issuePaymentLink(ctx context.Context, bill *domainbilling.Bill, unit *domainbilling.Unit) {
	var link *payment.PaymentLink
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		return s.breaker.Do(ctx, func(ctx context.Context) error {
			var perr error
			link, perr = s.payments.CreatePaymentLink(ctx, payment.CreatePaymentLinkInput{
				Amount:      bill.TotalAmount,
				Description: fmt.Sprintf("Electricity bill %s (%s)", unit.Code, bill.BillingPeriodEnd.Format("Jan 2006")),
				Metadata: map[string]string{
					"bill_id":   bill.ID.String(),
					"unit_id":   unit.ID.String(),
					"unit_code": unit.Code,
				},
			})
			return perr
		})
	})
	if err != nil {
		s.logger.Warn("payment link creation failed",
			zap.String("bill_id", bill.ID.String()),
			zap.Error(err))
		return
	}

	if err := s.bills.AttachPaymentLink(ctx, bill.ID, link.URL, link.ID); err != nil {
		s.logger.Warn("payment link could not be attached",
			zap.String("bill_id", bill.ID.String()),
			zap.Error(err))
		return
	}
	bill.AttachPaymentLink(link.URL, link.ID)
}

func (s *Service) notifyBillIssued(ctx context.Context, bill *domainbilling.Bill, unit *domainbilling.Unit) {
	msg, err := s.advisor.GenerateMessage(ctx, string(domainbilling.NotificationKindBillIssued), advisor.MessageContext{
		UnitCode:    unit.Code,
		Amount:      bill.TotalAmount.StringFixed(2),
		DueDate:     bill.DueDate.Format("2006-01-02"),
		PeriodLabel: bill.BillingPeriodEnd.Format("January 2006"),
	})
	if err != nil {
		msg = fmt.Sprintf("Your electricity bill for %s is ready.", unit.Code)
	}
	if err := s.deliver(ctx, domainbilling.NotificationKindBillIssued, bill, unit, "New electricity bill", msg); err != nil {
		s.logger.Warn("new bill notice delivery failed",
			zap.String("bill_id", bill.ID.String()),
			zap.Error(err))
	}
}

// deliver sends one message and logs a Notification row for the
// attempt regardless of the outcome.
func (s *Service) deliver(ctx context.Context, kind domainbilling.NotificationKind, bill *domainbilling.Bill, unit *domainbilling.Unit, title, body string) error {
	sendErr := s.retry.Do(ctx, func(ctx context.Context) error {
		return s.breaker.Do(ctx, func(ctx context.Context) error {
			result, err := s.sender.Send(ctx, messaging.Message{
				Title:        title,
				Body:         body,
				RecipientRef: unit.OwnerContact,
			})
			if err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("send rejected by %s channel", s.sender.Channel())
			}
			return nil
		})
	})

	status := domainbilling.NotificationStatusSent
	if sendErr != nil {
		status = domainbilling.NotificationStatusFailed
	}
	billID := bill.ID
	unitID := unit.ID
	notification := &domainbilling.Notification{
		BillID:  &billID,
		UnitID:  &unitID,
		Kind:    kind,
		Channel: s.sender.Channel(),
		Message: body,
		Status:  status,
		SentAt:  time.Now(),
	}
	if err := s.notifications.Insert(ctx, notification); err != nil {
		s.logger.Error("notification audit row could not be written",
			zap.String("bill_id", bill.ID.String()),
			zap.Error(err))
	}
	return sendErr
}

func (s *Service) dueDate(periodEnd time.Time) time.Time {
	return periodEnd.AddDate(0, 0, s.dueDays)
}

func pricingIdentifier(unit *domainbilling.Unit) string {
	if unit.Category != "" {
		return unit.Category + "-" + unit.Code
	}
	return unit.Code
}

func totalMoney(b tariff.BillBreakdown) valueobject.Money {
	return valueobject.NewMoneyINR(b.TotalAmount)
}
