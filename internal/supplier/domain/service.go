package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateSupplierRequest struct {
	Name       string
	IsExternal bool
}

type Service interface {
	Create(context.Context, CreateSupplierRequest) (Supplier, error)
	GetByID(context.Context, snowflake.ID) (Supplier, error)
}

var (
	ErrInvalidID   = errors.New("invalid_id")
	ErrInvalidName = errors.New("invalid_name")
	ErrNotFound    = errors.New("not_found")
)
