package customers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"gorm.io/gorm"

	"github.com/electrogest/electrogest-backend/internal/audit"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
	"github.com/electrogest/electrogest-backend/pkg/security"
)

// DuplicatePolicy decides what happens when an imported row matches an
// existing customer by tax id.
type DuplicatePolicy string

const (
	// DuplicateCreateNew skips rows whose tax id already exists.
	DuplicateCreateNew DuplicatePolicy = "create_new"
	// DuplicateOverwrite replaces every supplied field on the existing row.
	DuplicateOverwrite DuplicatePolicy = "overwrite"
	// DuplicateFillEmpty only fills fields the existing row is missing.
	DuplicateFillEmpty DuplicatePolicy = "fill_empty"
)

func (p DuplicatePolicy) IsValid() bool {
	switch p {
	case DuplicateCreateNew, DuplicateOverwrite, DuplicateFillEmpty:
		return true
	}
	return false
}

// ImportInput wraps a CSV stream plus the duplicate policy.
type ImportInput struct {
	Reader io.Reader
	Policy DuplicatePolicy
}

// RowError reports one rejected CSV line.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ImportSummary reports the outcome of a batch import.
type ImportSummary struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Skipped int        `json:"skipped"`
	Errors  []RowError `json:"errors"`
}

// expected CSV header, order-insensitive, only name is mandatory
var importColumns = map[string]bool{
	"name":    true,
	"tax_id":  true,
	"email":   true,
	"phone":   true,
	"address": true,
	"notes":   true,
}

// Import reads a CSV with a header line and applies one of the duplicate
// policies per row. Row failures are collected, not fatal.
func (s *service) Import(ctx context.Context, actor string, input ImportInput) (*ImportSummary, error) {
	if input.Reader == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "csv body is required")
	}
	if !input.Policy.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid duplicate policy")
	}

	reader := csv.NewReader(input.Reader)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "csv header is required")
	}
	columns, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			summary.Errors = append(summary.Errors, RowError{Line: line, Message: "malformed csv row"})
			continue
		}

		row := rowInput(columns, record)
		if err := s.importRow(ctx, input.Policy, row, summary); err != nil {
			summary.Errors = append(summary.Errors, RowError{Line: line, Message: err.Error()})
		}
	}

	s.trail.Record(ctx, audit.RecordInput{
		Actor:  actor,
		Module: enums.AuditModuleCustomers,
		Action: "imported",
		Detail: fmt.Sprintf("policy %s created %d updated %d skipped %d errors %d",
			input.Policy, summary.Created, summary.Updated, summary.Skipped, len(summary.Errors)),
	})
	return summary, nil
}

func (s *service) importRow(ctx context.Context, policy DuplicatePolicy, row CreateInput, summary *ImportSummary) error {
	cleaned := security.CleanTaxID(row.TaxID)

	var existing *View
	if cleaned != "" {
		if err := security.ValidateTaxID(cleaned); err != nil {
			return fmt.Errorf("invalid tax id")
		}
		found, err := s.repo.FindByTaxID(ctx, cleaned)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup failed")
		}
		if err == nil {
			view := ToView(found)
			existing = &view
		}
	}

	if existing == nil {
		if _, err := s.Create(ctx, "import", row); err != nil {
			return importMessage(err)
		}
		summary.Created++
		return nil
	}

	switch policy {
	case DuplicateCreateNew:
		summary.Skipped++
		return nil
	case DuplicateOverwrite:
		update := UpdateInput{Name: &row.Name}
		update.Email = &row.Email
		update.Phone = &row.Phone
		update.Address = &row.Address
		update.Notes = &row.Notes
		if _, err := s.Update(ctx, "import", existing.ID, update); err != nil {
			return importMessage(err)
		}
		summary.Updated++
		return nil
	case DuplicateFillEmpty:
		update := UpdateInput{}
		filled := false
		if existing.Email == nil && strings.TrimSpace(row.Email) != "" {
			update.Email = &row.Email
			filled = true
		}
		if existing.Phone == nil && strings.TrimSpace(row.Phone) != "" {
			update.Phone = &row.Phone
			filled = true
		}
		if existing.Address == nil && strings.TrimSpace(row.Address) != "" {
			update.Address = &row.Address
			filled = true
		}
		if existing.Notes == nil && strings.TrimSpace(row.Notes) != "" {
			update.Notes = &row.Notes
			filled = true
		}
		if !filled {
			summary.Skipped++
			return nil
		}
		if _, err := s.Update(ctx, "import", existing.ID, update); err != nil {
			return importMessage(err)
		}
		summary.Updated++
		return nil
	}
	return fmt.Errorf("unsupported policy")
}

func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if !importColumns[key] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown column %q", key))
		}
		columns[key] = i
	}
	if _, ok := columns["name"]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name column is required")
	}
	return columns, nil
}

func rowInput(columns map[string]int, record []string) CreateInput {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	return CreateInput{
		Name:    field("name"),
		TaxID:   field("tax_id"),
		Email:   field("email"),
		Phone:   field("phone"),
		Address: field("address"),
		Notes:   field("notes"),
	}
}

func importMessage(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return errors.New(typed.Message())
	}
	return err
}
