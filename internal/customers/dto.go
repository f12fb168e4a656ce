package customers

import (
	"time"

	"github.com/electrogest/electrogest-backend/pkg/db/models"
	"github.com/electrogest/electrogest-backend/pkg/pagination"
	"github.com/electrogest/electrogest-backend/pkg/security"
)

// View is the transport shape of a customer, tax id formatted for display.
type View struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	TaxID     *string   `json:"tax_id,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListResult is one page of customers.
type ListResult struct {
	Customers []View          `json:"customers"`
	Page      pagination.Page `json:"page"`
}

// CreateInput holds the fields for a new customer.
type CreateInput struct {
	Name    string
	TaxID   string
	Email   string
	Phone   string
	Address string
	Notes   string
}

// UpdateInput carries the optional fields of a partial update.
type UpdateInput struct {
	Name    *string
	TaxID   *string
	Email   *string
	Phone   *string
	Address *string
	Notes   *string
	Active  *bool
}

func ToView(customer *models.Customer) View {
	view := View{
		ID:        customer.ID,
		Name:      customer.Name,
		Email:     customer.Email,
		Phone:     customer.Phone,
		Address:   customer.Address,
		Notes:     customer.Notes,
		IsActive:  customer.IsActive,
		CreatedAt: customer.CreatedAt,
		UpdatedAt: customer.UpdatedAt,
	}
	if customer.TaxID != nil {
		formatted := security.FormatTaxID(*customer.TaxID)
		view.TaxID = &formatted
	}
	return view
}

func ToViews(customers []models.Customer) []View {
	views := make([]View, 0, len(customers))
	for i := range customers {
		views = append(views, ToView(&customers[i]))
	}
	return views
}
