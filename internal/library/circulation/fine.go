package circulation

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"LIBRA-backend/internal/platform/db"
)

const displayDateLayout = "02 Jan 2006"

// Policy は貸出期間と延滞金の設定値。呼び出しごとに明示的に渡す
type Policy struct {
	BorrowDurationDays int
	FinePerDay         int64
	MaxFine            int64
	Location           *time.Location
	CurrencyPrefix     string
}

func PolicyFromConfig(c db.LibraryConfig) (Policy, error) {
	c = c.WithDefaults()
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return Policy{}, fmt.Errorf("library.timezone %q: %w", c.Timezone, err)
	}
	return Policy{
		BorrowDurationDays: c.BorrowDurationDays,
		FinePerDay:         c.FinePerDay,
		MaxFine:            c.MaxFine,
		Location:           loc,
		CurrencyPrefix:     c.CurrencyPrefix,
	}, nil
}

func (p Policy) loc() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// DueDate: 貸出日から BorrowDurationDays 日後（ローカル暦で加算）
func (p Policy) DueDate(borrowedAt time.Time) time.Time {
	return borrowedAt.In(p.loc()).AddDate(0, 0, p.BorrowDurationDays).UTC()
}

// Assess は返却（または現在）時刻 at における延滞日数と延滞金。
// at が期限を厳密に過ぎた場合のみ延滞とし、日数は暦日差で数える
func (p Policy) Assess(due, at time.Time) (daysLate int, fine int64) {
	if !at.After(due) {
		return 0, 0
	}
	daysLate = DaysBetween(due, at, p.loc())
	return daysLate, FineAmount(daysLate, p.FinePerDay, p.MaxFine)
}

// FineAmount = min(daysLate × rate, maxFine)。daysLate <= 0 なら 0
func FineAmount(daysLate int, rate, maxFine int64) int64 {
	if daysLate <= 0 || rate <= 0 || maxFine <= 0 {
		return 0
	}
	d := int64(daysLate)
	if rate > maxFine/d {
		return maxFine
	}
	return min(d*rate, maxFine)
}

// DaysBetween は loc の暦で見た a と b の日付の差（絶対値）。時刻部分は無視する
func DaysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	dbb := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	days := int(dbb.Sub(da).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}

// ---- 表示用 ----

// FormatMoney: 例) "Rp 30.000"
func (p Policy) FormatMoney(amount int64) string {
	printer := message.NewPrinter(language.Indonesian)
	return p.CurrencyPrefix + " " + printer.Sprintf("%d", amount)
}

func (p Policy) FormatDate(t time.Time) string {
	return t.In(p.loc()).Format(displayDateLayout)
}
