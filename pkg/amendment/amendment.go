package amendment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeInitial     Type = "initial"
	TypeChangeOrder Type = "change_order"
)

type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// ContractAmendment is an SOW or change order adjusting a project's contract value.
// Only approved amendments count toward the budget.
type ContractAmendment struct {
	Id            int
	ProjectId     int
	Reference     uuid.UUID
	Title         string
	Type          Type
	Value         decimal.Decimal
	Status        Status
	EffectiveDate *time.Time
	ApprovedAt    *time.Time
	ApprovedBy    string
}

func (a ContractAmendment) IsApproved() bool {
	return a.Status == StatusApproved
}

// IsEditable reports whether the amendment may still change. Approved, rejected
// and expired amendments are final.
func (a ContractAmendment) IsEditable() bool {
	return a.Status == StatusDraft || a.Status == StatusPending
}

func ParseType(s string) (Type, bool) {
	switch Type(s) {
	case TypeInitial, TypeChangeOrder:
		return Type(s), true
	}
	return "", false
}

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusExpired:
		return Status(s), true
	}
	return "", false
}
