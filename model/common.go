package model

import (
	"github.com/ericlagergren/decimal/sql/postgres"
	jsoniter "github.com/json-iterator/go"
	"github.com/qgatssdev/nika/conv"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type PagingMeta struct {
	Page   int                    `json:"page"`
	Count  int64                  `json:"count"`
	Limit  int                    `json:"limit"`
	Order  string                 `json:"order"`
	Filter map[string]interface{} `json:"filter"`
}

// Offset of the first row of the current page
func (meta PagingMeta) Offset() int {
	if meta.Page <= 1 {
		return 0
	}
	return (meta.Page - 1) * meta.Limit
}

// NewPagingMeta normalizes the requested page and limit
func NewPagingMeta(page, limit int) PagingMeta {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return PagingMeta{Page: page, Limit: limit, Filter: map[string]interface{}{}}
}

func formatColumn(amount *postgres.Decimal) string {
	if amount == nil {
		return conv.Format(nil)
	}
	return conv.Format(amount.V)
}
