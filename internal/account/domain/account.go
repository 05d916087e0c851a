package domain

import (
	"github.com/google/uuid"
)

// AccountStatus 用來表示帳號狀態
type AccountStatus int

const (
	// AccountStatusActive 啟用
	AccountStatusActive AccountStatus = iota
	// AccountStatusBan 封鎖, 仍可出現在既有對話
	AccountStatusBan
	// AccountStatusDelete 刪除
	AccountStatusDelete
)

// Account 用來表示帳號 profile, 註冊與登入由 member service 負責
type Account struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Username  string
	Email     string
	Image     *string
	Status    AccountStatus
}

// IsDeleted account removed
func (a Account) IsDeleted() bool {
	return a.Status == AccountStatusDelete
}
