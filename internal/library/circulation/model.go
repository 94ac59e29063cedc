package circulation

import (
	"database/sql"
	"time"
)

type Status string

const (
	StatusBorrowed Status = "borrowed"
	StatusReturned Status = "returned"
	StatusOverdue  Status = "overdue"
	StatusLost     Status = "lost"
)

// Transaction は transactions テーブルの1行。
// 保存されている status はキャッシュで、判定には EffectiveStatus を使う
type Transaction struct {
	ID         int64
	ULID       string
	MemberID   int64
	BookID     int64
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate sql.NullTime
	Status     Status
	DaysLate   int
	FineAmount int64
	Notes      sql.NullString
	ReturnedBy sql.NullInt64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Open: 未返却（return_date = NULL）か
func (t *Transaction) Open() bool { return !t.ReturnDate.Valid }

// EffectiveStatus は now 時点の状態。overdue は保存値に関係なく期限から導出する
func (t *Transaction) EffectiveStatus(now time.Time) Status {
	switch {
	case !t.Open():
		return StatusReturned
	case t.Status == StatusLost:
		return StatusLost
	case now.After(t.DueDate):
		return StatusOverdue
	default:
		return StatusBorrowed
	}
}

// 一覧取得用の検索条件
type TransactionFilter struct {
	MemberID *int64
	BookID   *int64
	Status   Status // borrowed | returned | overdue | lost | "" (全件)
	OpenOnly bool
}
