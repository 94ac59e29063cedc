package catalog

import (
	"context"
	"strings"
	"time"

	"LIBRA-backend/internal/platform/apperr"
	"LIBRA-backend/internal/platform/db"
)

type Service struct {
	store *Store
	now   func() time.Time
}

func NewService(conn *db.DB) *Service {
	return &Service{store: NewStore(conn), now: func() time.Time { return time.Now().UTC() }}
}

// Store は貸出処理（circulation）から在庫台帳として使う
func (s *Service) Store() *Store { return s.store }

func (s *Service) GetBook(ctx context.Context, id int64) (BookResponse, error) {
	b, err := s.store.GetBook(ctx, id)
	if err != nil {
		return BookResponse{}, err
	}
	return b.toDTO(), nil
}

func (s *Service) ListBooks(ctx context.Context, f BookFilter, p db.Page) (db.ListResult[BookResponse], error) {
	p = p.Normalize()
	books, total, err := s.store.ListBooks(ctx, f, p)
	if err != nil {
		return db.ListResult[BookResponse]{}, err
	}
	items := make([]BookResponse, 0, len(books))
	for _, b := range books {
		items = append(items, b.toDTO())
	}
	return db.ListResult[BookResponse]{Items: items, Total: total, NextOffset: p.NextOffset(total)}, nil
}

func (s *Service) CreateBook(ctx context.Context, in CreateBookRequest) (BookResponse, error) {
	if strings.TrimSpace(in.ISBN) == "" || strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Author) == "" {
		return BookResponse{}, apperr.Invalid("isbn, title, author are required")
	}
	stock, err := NewStock(in.TotalStock)
	if err != nil {
		return BookResponse{}, err
	}

	now := s.now()
	b := &Book{
		ISBN:      strings.TrimSpace(in.ISBN),
		Title:     strings.TrimSpace(in.Title),
		Author:    strings.TrimSpace(in.Author),
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Publisher != nil && strings.TrimSpace(*in.Publisher) != "" {
		b.Publisher.String, b.Publisher.Valid = strings.TrimSpace(*in.Publisher), true
	}
	if in.PublicationYear != nil {
		b.PublicationYear.Int64, b.PublicationYear.Valid = *in.PublicationYear, true
	}

	if err := s.store.InsertBook(ctx, b); err != nil {
		return BookResponse{}, err
	}
	return b.toDTO(), nil
}
