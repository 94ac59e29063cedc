package catalog

import "time"

// 書籍登録リクエスト（管理者のみ）
type CreateBookRequest struct {
	ISBN            string  `json:"isbn" binding:"required"`
	Title           string  `json:"title" binding:"required"`
	Author          string  `json:"author" binding:"required"`
	Publisher       *string `json:"publisher,omitempty"`
	PublicationYear *int64  `json:"publication_year,omitempty"`
	TotalStock      int     `json:"total_stock"`
}

type BookResponse struct {
	ID              int64     `json:"id"`
	ISBN            string    `json:"isbn"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Publisher       *string   `json:"publisher,omitempty"`
	PublicationYear *int64    `json:"publication_year,omitempty"`
	TotalStock      int       `json:"total_stock"`
	AvailableStock  int       `json:"available_stock"`
	Available       bool      `json:"available"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (b Book) toDTO() BookResponse {
	resp := BookResponse{
		ID:             b.ID,
		ISBN:           b.ISBN,
		Title:          b.Title,
		Author:         b.Author,
		TotalStock:     b.Stock.Total,
		AvailableStock: b.Stock.Available,
		Available:      b.Stock.Available > 0,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
	if b.Publisher.Valid {
		v := b.Publisher.String
		resp.Publisher = &v
	}
	if b.PublicationYear.Valid {
		v := b.PublicationYear.Int64
		resp.PublicationYear = &v
	}
	return resp
}
