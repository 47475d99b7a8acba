package entities

import "time"

type LoginStatus string

const (
	LoginStatusSuccess LoginStatus = "success"
	LoginStatusFailed  LoginStatus = "failed"
	LoginStatusLocked  LoginStatus = "locked"
)

// LoginLog records one login attempt against an existing account.
type LoginLog struct {
	LogID       uint        `gorm:"primaryKey" json:"log_id"`
	UserID      string      `gorm:"index;size:64;not null" json:"user_id"`
	LoginTime   time.Time   `gorm:"index;not null" json:"login_time"`
	LoginStatus LoginStatus `gorm:"size:16;not null" json:"login_status"`
	IPAddress   string      `gorm:"size:64" json:"ip_address"`
}

type LoginLogView struct {
	LogID        uint        `json:"log_id"`
	UserID       string      `json:"user_id"`
	UserName     string      `json:"user_name"`
	IdentityType uint        `json:"identity_type"`
	LoginTime    time.Time   `json:"login_time"`
	LoginStatus  LoginStatus `json:"login_status"`
	IPAddress    string      `json:"ip_address"`
}
