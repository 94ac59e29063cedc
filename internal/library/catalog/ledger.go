package catalog

import (
	"fmt"

	"LIBRA-backend/internal/platform/apperr"
)

// Stock は蔵書数と貸出可能数の組。0 <= Available <= Total を常に保つ
type Stock struct {
	Total     int `json:"total_stock"`
	Available int `json:"available_stock"`
}

func NewStock(total int) (Stock, error) {
	if total < 0 {
		return Stock{}, apperr.Invalid("total_stock must be >= 0")
	}
	return Stock{Total: total, Available: total}, nil
}

func (s Stock) Valid() bool { return s.Available >= 0 && s.Available <= s.Total }

// Decrement は貸出1冊分を引いた在庫を返す。
// 事前の在庫チェックで防がれているはずなので、ここで失敗するのは整合性違反
func (s Stock) Decrement() (Stock, error) {
	if !s.Valid() || s.Available-1 < 0 {
		return s, apperr.Invariant(fmt.Sprintf("available_stock would go negative (%d/%d)", s.Available, s.Total))
	}
	s.Available--
	return s, nil
}

// Increment は返却1冊分を戻した在庫を返す。Total を超えるならどこかでデータが壊れている
func (s Stock) Increment() (Stock, error) {
	if !s.Valid() || s.Available+1 > s.Total {
		return s, apperr.Invariant(fmt.Sprintf("available_stock would exceed total_stock (%d/%d)", s.Available, s.Total))
	}
	s.Available++
	return s, nil
}
