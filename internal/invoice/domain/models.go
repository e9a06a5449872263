// Package domain contains persistence models for locally stored invoices.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Invoice is an internal supplier invoice. Amount is stored as unconstrained
// NUMERIC on postgres and decimal(65,30) on mysql; sqlite keeps 15
// significant digits.
type Invoice struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	SupplierID  snowflake.ID    `gorm:"not null;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(65,30);not null;default:0"`
	InvoiceDate datatypes.Date  `gorm:"not null"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Year returns the calendar year of the invoice date.
func (i Invoice) Year() int {
	return time.Time(i.InvoiceDate).Year()
}
