package catalog

import (
	"database/sql"
	"time"
)

// Book は books テーブルの1行
type Book struct {
	ID              int64
	ISBN            string
	Title           string
	Author          string
	Publisher       sql.NullString
	PublicationYear sql.NullInt64
	Stock           Stock
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// 一覧取得用の検索条件
type BookFilter struct {
	AvailableOnly bool
}
