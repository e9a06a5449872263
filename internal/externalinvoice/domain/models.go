package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExternalInvoice is the yearly total reported by the remote invoice endpoint.
type ExternalInvoice struct {
	Year        int             `json:"year"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// FailoverSnapshot is the last known set of external invoices for a supplier.
type FailoverSnapshot struct {
	Timestamp time.Time         `json:"timestamp"`
	Invoices  []ExternalInvoice `json:"invoices"`
}
