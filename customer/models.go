package customer

import (
	"github.com/biwswalker/movemate-ledger/id"
	"github.com/biwswalker/movemate-ledger/types"
)

type UserType string

const (
	UserTypeIndividual UserType = "INDIVIDUAL"
	UserTypeBusiness   UserType = "BUSINESS"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusBanned   Status = "banned"
)

type Customer struct {
	types.Entity
	ID         id.CustomerID     `json:"id"`
	UserNumber string            `json:"user_number"` // MMI26060001 / MMB26060001
	UserType   UserType          `json:"user_type"`
	Status     Status            `json:"status"`
	Title      string            `json:"title,omitempty"`
	FullName   string            `json:"full_name"`
	Email      string            `json:"email"`
	Phone      string            `json:"phone,omitempty"`
	TaxID      string            `json:"tax_id,omitempty"` // 13-digit Thai tax ID for business accounts
	Address    string            `json:"address,omitempty"`
	Province   string            `json:"province,omitempty"`
	District   string            `json:"district,omitempty"`
	PostalCode string            `json:"postal_code,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// IsBusiness reports whether the account is a registered business.
// Business accounts are subject to withholding tax on adjusted totals.
func (c *Customer) IsBusiness() bool {
	return c.UserType == UserTypeBusiness
}
