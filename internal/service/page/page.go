// Package page holds the pagination types shared by list endpoints.
package page

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

type Request struct {
	Page    int
	PerPage int
}

// Normalize clamps page to >= 1 and per-page to [1, MaxPerPage].
func (r Request) Normalize() Request {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PerPage < 1 {
		r.PerPage = DefaultPerPage
	}
	if r.PerPage > MaxPerPage {
		r.PerPage = MaxPerPage
	}
	return r
}

func (r Request) Offset() int {
	n := r.Normalize()
	return (n.Page - 1) * n.PerPage
}

type Result[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

// Find counts q, then loads one page of it into a Result.
func Find[T any](ctx context.Context, q *gorm.DB, req Request, order string) (*Result[T], error) {
	req = req.Normalize()

	var total int64
	if err := q.WithContext(ctx).Count(&total).Error; err != nil {
		return nil, err
	}

	rows := make([]T, 0, req.PerPage)
	if total > 0 {
		if err := q.WithContext(ctx).Order(order).Limit(req.PerPage).Offset(req.Offset()).Find(&rows).Error; err != nil {
			return nil, err
		}
	}

	return &Result[T]{
		Data:       rows,
		Total:      int(total),
		Page:       req.Page,
		PerPage:    req.PerPage,
		TotalPages: int((total + int64(req.PerPage) - 1) / int64(req.PerPage)),
	}, nil
}

// Like wraps s for a case-insensitive contains match, escaping LIKE wildcards.
func Like(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(s)) + "%"
}
