package db

import (
	"strconv"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type Page struct {
	Limit  int
	Offset int
}

// Normalize は範囲外の値を既定値に丸めたコピーを返す
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// NextOffset: 次ページの offset。0=終端
func (p Page) NextOffset(total int64) int {
	next := p.Offset + p.Limit
	if int64(next) >= total {
		return 0
	}
	return next
}

// ParsePage はクエリ文字列 limit/offset を読む（不正値は既定値）
func ParsePage(limit, offset string) Page {
	return Page{
		Limit:  parseIntDefault(limit, DefaultPageLimit),
		Offset: parseIntDefault(offset, 0),
	}.Normalize()
}

func parseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

type ListResult[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	NextOffset int   `json:"next_offset"`
}
