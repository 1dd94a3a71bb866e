package bakery

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sagradodoce/internal/costing"
	applog "sagradodoce/internal/log"
	"sagradodoce/models"
)

// CashEntrySpec is a manual cash movement.
type CashEntrySpec struct {
	Description string               `json:"description"`
	Amount      decimal.Decimal      `json:"amount"`
	Direction   models.CashDirection `json:"direction"`
	Category    string               `json:"category"`
	// OccurredAt defaults to now.
	OccurredAt *time.Time `json:"occurred_at,omitempty"`
}

// CashRange bounds ledger queries. Zero values leave that side open; To is exclusive.
type CashRange struct {
	From time.Time
	To   time.Time
}

// CashSummary totals the ledger over a range.
type CashSummary struct {
	From    *time.Time      `json:"from,omitempty"`
	To      *time.Time      `json:"to,omitempty"`
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
	Balance decimal.Decimal `json:"balance"`
	Entries int             `json:"entries"`
}

// RecordCashEntry appends a movement to the cash ledger.
func (s *Service) RecordCashEntry(ctx context.Context, spec CashEntrySpec) (*models.CashEntry, error) {
	description, err := requireName("description", spec.Description)
	if err != nil {
		return nil, err
	}
	if !spec.Amount.IsPositive() {
		return nil, invalid("amount must be greater than zero")
	}
	if spec.Direction != models.CashIn && spec.Direction != models.CashOut {
		return nil, invalid("direction must be %q or %q", models.CashIn, models.CashOut)
	}

	entry := models.CashEntry{
		Description: description,
		Amount:      spec.Amount.Round(costing.MoneyPlaces),
		Direction:   spec.Direction,
		Category:    strings.TrimSpace(spec.Category),
		OccurredAt:  s.opts.Now(),
	}
	if spec.OccurredAt != nil {
		entry.OccurredAt = spec.OccurredAt.UTC()
	}

	if err := s.transact(ctx, "record cash entry", func(tx *gorm.DB) error {
		return tx.Create(&entry).Error
	}); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "cash entry recorded", "id", entry.ID, "direction", entry.Direction, "amount", entry.Amount.String())
	return &entry, nil
}

// ListCashEntries returns ledger entries in the range, newest first.
func (s *Service) ListCashEntries(ctx context.Context, r CashRange) ([]models.CashEntry, error) {
	var entries []models.CashEntry
	if err := s.cashQuery(ctx, r).Order("occurred_at desc, id desc").Find(&entries).Error; err != nil {
		return nil, storageError("list cash entries", err)
	}
	return entries, nil
}

// CashSummary sums inflows and outflows in the range.
func (s *Service) CashSummary(ctx context.Context, r CashRange) (*CashSummary, error) {
	var entries []models.CashEntry
	if err := s.cashQuery(ctx, r).Find(&entries).Error; err != nil {
		return nil, storageError("summarize cash", err)
	}

	summary := &CashSummary{Inflow: decimal.Zero, Outflow: decimal.Zero, Entries: len(entries)}
	if !r.From.IsZero() {
		from := r.From
		summary.From = &from
	}
	if !r.To.IsZero() {
		to := r.To
		summary.To = &to
	}
	for _, entry := range entries {
		switch entry.Direction {
		case models.CashIn:
			summary.Inflow = summary.Inflow.Add(entry.Amount)
		case models.CashOut:
			summary.Outflow = summary.Outflow.Add(entry.Amount)
		}
	}
	summary.Balance = summary.Inflow.Sub(summary.Outflow)
	return summary, nil
}

func (s *Service) cashQuery(ctx context.Context, r CashRange) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.CashEntry{})
	if !r.From.IsZero() {
		query = query.Where("occurred_at >= ?", r.From)
	}
	if !r.To.IsZero() {
		query = query.Where("occurred_at < ?", r.To)
	}
	return query
}
