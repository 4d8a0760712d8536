// Package service implements the expense operations behind the web handlers:
// validated inserts, batch deletion and the filtered overview with summary
// statistics.
package service

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/RahulSJav/Expenses/internal/log"
	"github.com/RahulSJav/Expenses/internal/models"
	"github.com/RahulSJav/Expenses/internal/storage"
)

var (
	// ErrInvalidSelection indicates a category or description that does not
	// match any value already present in the store.
	ErrInvalidSelection = errors.New("invalid category or description selected")
	// ErrInvalidFormat indicates an unparseable date or amount.
	ErrInvalidFormat = errors.New("invalid date or amount format")
	// ErrNoSelection indicates a delete request with no ids.
	ErrNoSelection = errors.New("no expenses selected")
)

// DateLayout is the calendar-date form used for expense dates.
const DateLayout = "2006-01-02"

// Service coordinates expense operations against the store.
type Service struct {
	db  *storage.DB
	log *log.Logger
}

// New creates an expense service.
func New(db *storage.DB, logger *log.Logger) *Service {
	return &Service{db: db, log: logger.WithComponent(log.ComponentExpenses)}
}

// Add validates and inserts a new expense for the given user.
//
// Category and description must already appear among the distinct values in
// the store (exact, case-sensitive match): the add form is a closed
// vocabulary, so the very first record has to come in through the seed tool.
// The date must parse as YYYY-MM-DD and the amount as a decimal number.
// Nothing is inserted unless every check passes.
func (s *Service) Add(userID int64, category, description, amountStr, dateStr string) error {
	categories, err := s.db.DistinctCategories()
	if err != nil {
		return fmt.Errorf("fetch categories: %w", err)
	}
	descriptions, err := s.db.DistinctDescriptions()
	if err != nil {
		return fmt.Errorf("fetch descriptions: %w", err)
	}

	if !slices.Contains(categories, category) || !slices.Contains(descriptions, description) {
		return ErrInvalidSelection
	}

	date, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return ErrInvalidFormat
	}
	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil {
		return ErrInvalidFormat
	}

	expense := models.Expense{
		UserID:      &userID,
		Category:    category,
		Description: description,
		Amount:      amount,
		Date:        date.Format(DateLayout),
	}
	if err := s.db.CreateExpense(&expense); err != nil {
		return err
	}

	s.log.Info("expense added",
		"id", expense.ID,
		"user_id", userID,
		"category", category,
		"amount", amount)
	return nil
}

// Delete removes the expenses identified by ids in one batch. Ids that match
// no record are skipped; an empty selection is rejected without touching the
// store. Deletion is not scoped to the requesting user.
func (s *Service) Delete(ids []string) error {
	if len(ids) == 0 {
		return ErrNoSelection
	}
	if err := s.db.DeleteExpenses(ids); err != nil {
		return err
	}
	s.log.Info("expenses deleted", "selected", len(ids))
	return nil
}

// Overview is the result of a filtered listing: the matching records, their
// summary statistics, and the global vocabulary for the filter controls.
type Overview struct {
	Expenses     []models.Expense
	TotalAmount  float64
	TotalRecords int
	UniqueDays   int

	// Always computed over the full store, independent of the filter.
	Categories   []string
	Descriptions []string
}

// Overview retrieves the expenses matching the filter and computes summary
// statistics over exactly that set. UniqueDays counts distinct calendar
// dates among matches that carry a date.
func (s *Service) Overview(f storage.Filter) (*Overview, error) {
	expenses, err := s.db.ListExpenses(f)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	o := &Overview{
		Expenses:     expenses,
		TotalRecords: len(expenses),
	}

	days := make(map[string]struct{})
	for _, e := range expenses {
		o.TotalAmount += e.Amount
		if e.Date != "" {
			days[e.Date] = struct{}{}
		}
	}
	o.UniqueDays = len(days)

	if o.Categories, err = s.db.DistinctCategories(); err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	if o.Descriptions, err = s.db.DistinctDescriptions(); err != nil {
		return nil, fmt.Errorf("fetch descriptions: %w", err)
	}

	return o, nil
}
