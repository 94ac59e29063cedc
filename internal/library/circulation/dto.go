package circulation

import "time"

type BorrowRequest struct {
	BookID int64   `json:"book_id" binding:"required"`
	Notes  *string `json:"notes,omitempty"`
}

type TransactionResponse struct {
	ID         int64      `json:"id"`
	ULID       string     `json:"transaction_ulid"`
	MemberID   int64      `json:"member_id"`
	BookID     int64      `json:"book_id"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
	Status     Status     `json:"status"`
	DaysLate   int        `json:"days_late"`
	FineAmount int64      `json:"fine_amount"`
	Notes      *string    `json:"notes,omitempty"`
	ReturnedBy *int64     `json:"returned_by,omitempty"`
}

// BookSummary は貸出・返却結果に添える書籍情報
type BookSummary struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

type BorrowResult struct {
	Transaction         TransactionResponse `json:"transaction"`
	Book                BookSummary         `json:"book"`
	BorrowDateFormatted string              `json:"borrow_date_formatted"`
	DueDateFormatted    string              `json:"due_date_formatted"`
	FinePerDay          int64               `json:"fine_per_day"`
	FinePerDayFormatted string              `json:"fine_per_day_formatted"`
	Warning             string              `json:"warning"`
	Message             string              `json:"-"`
}

type ReturnResult struct {
	Transaction         TransactionResponse `json:"transaction"`
	Book                BookSummary         `json:"book"`
	ReturnDateFormatted string              `json:"return_date_formatted"`
	DaysLate            int                 `json:"days_late"`
	FineAmount          int64               `json:"fine_amount"`
	FineFormatted       string              `json:"fine_formatted"`
	Message             string              `json:"-"`
}

// FineStatus は延滞金の照会結果（読み取りのみ）
type FineStatus struct {
	TransactionID int64  `json:"transaction_id"`
	Status        Status `json:"status"`
	DueDate       string `json:"due_date"`
	DaysRemaining int    `json:"days_remaining"`
	DaysLate      int    `json:"days_late"`
	CurrentFine   int64  `json:"current_fine"`
	FineFormatted string `json:"fine_formatted"`
	Settled       bool   `json:"settled"`
	Message       string `json:"-"`
}

func (t Transaction) toDTO(now time.Time) TransactionResponse {
	resp := TransactionResponse{
		ID:         t.ID,
		ULID:       t.ULID,
		MemberID:   t.MemberID,
		BookID:     t.BookID,
		BorrowDate: t.BorrowDate,
		DueDate:    t.DueDate,
		Status:     t.EffectiveStatus(now),
		DaysLate:   t.DaysLate,
		FineAmount: t.FineAmount,
	}
	if t.ReturnDate.Valid {
		v := t.ReturnDate.Time
		resp.ReturnDate = &v
	}
	if t.Notes.Valid {
		v := t.Notes.String
		resp.Notes = &v
	}
	if t.ReturnedBy.Valid {
		v := t.ReturnedBy.Int64
		resp.ReturnedBy = &v
	}
	return resp
}
