package circulation

import (
	"context"
	"log"
	"strings"
	"time"

	"LIBRA-backend/internal/library/catalog"
	"LIBRA-backend/internal/platform/apperr"
	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/db"
)

const maxNotesLength = 500

// BookLedger は在庫台帳。呼び出し側の Tx の中で使う
type BookLedger interface {
	LockBookTx(ctx context.Context, tx db.DBTX, id int64) (*catalog.Book, error)
	DecrementAvailableTx(ctx context.Context, tx db.DBTX, b *catalog.Book, now time.Time) error
	IncrementAvailableTx(ctx context.Context, tx db.DBTX, b *catalog.Book, now time.Time) error
}

// FineRecorder は延滞返却時に延滞金レコードを作る（返却と同じ Tx）
type FineRecorder interface {
	CreateFineTx(ctx context.Context, tx db.DBTX, transactionID int64, amount int64, now time.Time) error
}

type Service struct {
	db     *db.DB
	store  *Store
	books  BookLedger
	fines  FineRecorder
	policy Policy
	clock  Clock
	ids    IDGen
}

func NewService(conn *db.DB, books BookLedger, fines FineRecorder, policy Policy) *Service {
	return &Service{
		db:     conn,
		store:  NewStore(conn),
		books:  books,
		fines:  fines,
		policy: policy,
		clock:  realClock{},
		ids:    ulidGen{},
	}
}

// WithClock は時刻源を差し替える（テスト・バッチ用）
func (s *Service) WithClock(c Clock) *Service {
	s.clock = c
	return s
}

// DB の精度（マイクロ秒）に揃えた UTC 現在時刻
func (s *Service) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Microsecond)
}

func requireAuthenticated(p auth.Principal) error {
	if !p.Authenticated() {
		return apperr.Unauthorized("Unauthenticated")
	}
	return nil
}

func requireOwnerOrAdmin(p auth.Principal, t *Transaction) error {
	if !auth.IsOwnerOrAdmin(p, t.MemberID) {
		return apperr.Forbidden("You are not allowed to access this transaction")
	}
	return nil
}

func summarize(b *catalog.Book) BookSummary {
	return BookSummary{ID: b.ID, Title: b.Title, Author: b.Author, ISBN: b.ISBN}
}

// Borrow は貸出を1件作り、在庫を1減らす。
// 在庫確認・重複確認・登録・減算は同じ Tx で、書籍行をロックしてから行う
func (s *Service) Borrow(ctx context.Context, p auth.Principal, bookID int64, notes *string) (BorrowResult, error) {
	if err := requireAuthenticated(p); err != nil {
		return BorrowResult{}, err
	}
	var note string
	if notes != nil {
		note = strings.TrimSpace(*notes)
		if len(note) > maxNotesLength {
			return BorrowResult{}, apperr.Invalid("notes is too long")
		}
	}

	now := s.now()
	t := &Transaction{
		ULID:       s.ids.NewULID(now),
		MemberID:   p.ID,
		BookID:     bookID,
		BorrowDate: now,
		DueDate:    s.policy.DueDate(now),
		Status:     StatusBorrowed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if note != "" {
		t.Notes.String, t.Notes.Valid = note, true
	}

	var book *catalog.Book
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		b, err := s.books.LockBookTx(ctx, tx, bookID)
		if err != nil {
			return err
		}
		if b.Stock.Available <= 0 {
			return errUnavailable()
		}
		open, err := s.store.FindOpenTx(ctx, tx, p.ID, bookID)
		if err != nil {
			return err
		}
		if open != nil {
			return errAlreadyBorrowed()
		}
		if err := s.store.InsertTx(ctx, tx, t); err != nil {
			return err
		}
		if err := s.books.DecrementAvailableTx(ctx, tx, b, now); err != nil {
			return err
		}
		book = b
		return nil
	})
	if err != nil {
		return BorrowResult{}, err
	}

	log.Printf("[INFO] borrow tx=%s member=%d book=%d due=%s", t.ULID, t.MemberID, t.BookID, t.DueDate.Format(time.RFC3339))

	due := s.policy.FormatDate(t.DueDate)
	return BorrowResult{
		Transaction:         t.toDTO(now),
		Book:                summarize(book),
		BorrowDateFormatted: s.policy.FormatDate(t.BorrowDate),
		DueDateFormatted:    due,
		FinePerDay:          s.policy.FinePerDay,
		FinePerDayFormatted: s.policy.FormatMoney(s.policy.FinePerDay),
		Warning:             "Please return before " + due + " to avoid fine",
		Message:             "Book borrowed successfully",
	}, nil
}

// Return は貸出を返却済みにし、在庫を1戻す。延滞していれば延滞金レコードも作る。
// ロック順は 書籍 → 貸出。二重返却は条件付き UPDATE の0件更新で検出する
func (s *Service) Return(ctx context.Context, p auth.Principal, key string) (ReturnResult, error) {
	if err := requireAuthenticated(p); err != nil {
		return ReturnResult{}, err
	}

	now := s.now()
	var (
		t    *Transaction
		book *catalog.Book
	)
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		found, err := s.store.GetByKeyTx(ctx, tx, key, false)
		if err != nil {
			return err
		}
		b, err := s.books.LockBookTx(ctx, tx, found.BookID)
		if err != nil {
			return err
		}
		// ロック取得後に読み直す
		cur, err := s.store.GetByKeyTx(ctx, tx, key, true)
		if err != nil {
			return err
		}
		if err := requireOwnerOrAdmin(p, cur); err != nil {
			return err
		}
		if !cur.Open() {
			return errAlreadyReturned()
		}

		daysLate, fine := s.policy.Assess(cur.DueDate, now)
		cur.ReturnDate.Time, cur.ReturnDate.Valid = now, true
		cur.Status = StatusReturned
		cur.DaysLate = daysLate
		cur.FineAmount = fine
		cur.ReturnedBy.Int64, cur.ReturnedBy.Valid = p.ID, true
		cur.UpdatedAt = now

		if err := s.store.MarkReturnedTx(ctx, tx, cur); err != nil {
			return err
		}
		if err := s.books.IncrementAvailableTx(ctx, tx, b, now); err != nil {
			return err
		}
		if fine > 0 && s.fines != nil {
			if err := s.fines.CreateFineTx(ctx, tx, cur.ID, fine, now); err != nil {
				return err
			}
		}
		t, book = cur, b
		return nil
	})
	if err != nil {
		return ReturnResult{}, err
	}

	log.Printf("[INFO] return tx=%s member=%d book=%d by=%d days_late=%d fine=%d",
		t.ULID, t.MemberID, t.BookID, p.ID, t.DaysLate, t.FineAmount)

	res := ReturnResult{
		Transaction:         t.toDTO(now),
		Book:                summarize(book),
		ReturnDateFormatted: s.policy.FormatDate(now),
		DaysLate:            t.DaysLate,
		FineAmount:          t.FineAmount,
		FineFormatted:       s.policy.FormatMoney(t.FineAmount),
	}
	if t.FineAmount > 0 {
		res.Message = "Book returned late. Fine: " + res.FineFormatted
	} else {
		res.Message = "Book returned on time. Thank you!"
	}
	return res, nil
}

// CheckFine は現時点の延滞状況を返す。書き込みはしない
func (s *Service) CheckFine(ctx context.Context, p auth.Principal, key string) (FineStatus, error) {
	if err := requireAuthenticated(p); err != nil {
		return FineStatus{}, err
	}
	t, err := s.store.GetByKey(ctx, key)
	if err != nil {
		return FineStatus{}, err
	}
	if err := requireOwnerOrAdmin(p, t); err != nil {
		return FineStatus{}, err
	}

	now := s.now()
	fs := FineStatus{
		TransactionID: t.ID,
		DueDate:       s.policy.FormatDate(t.DueDate),
	}
	switch {
	case !t.Open():
		fs.Status = StatusReturned
		fs.Settled = true
		fs.DaysLate = t.DaysLate
		fs.CurrentFine = t.FineAmount
		fs.Message = "Book already returned"
	case !now.After(t.DueDate):
		fs.Status = StatusBorrowed
		fs.DaysRemaining = DaysBetween(now, t.DueDate, s.policy.loc())
		fs.Message = "No fine yet"
	default:
		fs.Status = StatusOverdue
		fs.DaysLate, fs.CurrentFine = s.policy.Assess(t.DueDate, now)
		fs.Message = "Book is overdue"
	}
	fs.FineFormatted = s.policy.FormatMoney(fs.CurrentFine)
	return fs, nil
}

func (s *Service) Get(ctx context.Context, p auth.Principal, key string) (TransactionResponse, error) {
	if err := requireAuthenticated(p); err != nil {
		return TransactionResponse{}, err
	}
	t, err := s.store.GetByKey(ctx, key)
	if err != nil {
		return TransactionResponse{}, err
	}
	if err := requireOwnerOrAdmin(p, t); err != nil {
		return TransactionResponse{}, err
	}
	return t.toDTO(s.now()), nil
}

// List: admin は全件（member_id で絞り込み可）、member は自分の分だけ
func (s *Service) List(ctx context.Context, p auth.Principal, f TransactionFilter, pg db.Page) (db.ListResult[TransactionResponse], error) {
	if err := requireAuthenticated(p); err != nil {
		return db.ListResult[TransactionResponse]{}, err
	}
	switch f.Status {
	case "", StatusBorrowed, StatusReturned, StatusOverdue, StatusLost:
	default:
		return db.ListResult[TransactionResponse]{}, apperr.Invalid("status must be one of borrowed, returned, overdue, lost")
	}
	if !p.IsAdmin() {
		id := p.ID
		f.MemberID = &id
	}

	pg = pg.Normalize()
	now := s.now()
	rows, total, err := s.store.List(ctx, f, pg, now)
	if err != nil {
		return db.ListResult[TransactionResponse]{}, err
	}
	items := make([]TransactionResponse, 0, len(rows))
	for _, t := range rows {
		items = append(items, t.toDTO(now))
	}
	return db.ListResult[TransactionResponse]{Items: items, Total: total, NextOffset: pg.NextOffset(total)}, nil
}

// SweepOverdue は保存 status を overdue に揃える。判定には使われないキャッシュの更新
func (s *Service) SweepOverdue(ctx context.Context) (int64, error) {
	n, err := s.store.SweepOverdue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	log.Printf("[INFO] sweep-overdue updated=%d", n)
	return n, nil
}
