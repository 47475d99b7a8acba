package entities

import "time"

// BorrowingStatus gates whether a borrower may take out new loans.
type BorrowingStatus string

const (
	BorrowingStatusActive    BorrowingStatus = "active"
	BorrowingStatusSuspended BorrowingStatus = "suspended"
)

// Identity types seeded into user_types on first start.
const (
	IdentityStudent       uint = 1
	IdentityGraduate      uint = 2
	IdentityTeacher       uint = 3
	IdentityAdministrator uint = 4
)

type UserType struct {
	TypeID   uint   `gorm:"primaryKey;autoIncrement:false" json:"type_id"`
	TypeName string `gorm:"size:64;not null" json:"type_name"`
}

type Borrower struct {
	UID              string          `gorm:"column:uid;primaryKey;size:64" json:"uid"`
	Name             string          `gorm:"size:128;not null" json:"name"`
	Phone            string          `gorm:"size:32" json:"phone"`
	IdentityType     uint            `gorm:"index;not null" json:"identity_type"`
	UserType         *UserType       `gorm:"foreignKey:IdentityType;references:TypeID" json:"-"`
	StudentID        *string         `gorm:"size:64" json:"student_id"`
	EmployeeID       *string         `gorm:"size:64" json:"employee_id"`
	BorrowedCount    int             `gorm:"not null;default:0;check:chk_borrowers_borrowed_count,borrowed_count >= 0" json:"borrowed_count"`
	RegistrationDate time.Time       `gorm:"not null" json:"registration_date"`
	BorrowingStatus  BorrowingStatus `gorm:"size:16;not null;default:active" json:"borrowing_status"`
}

// CanBorrow reports whether the borrower is allowed to take out a new loan.
func (b *Borrower) CanBorrow() bool {
	return b.BorrowingStatus == BorrowingStatusActive
}

// UserAuth holds credentials for a borrower. One row per borrower.
type UserAuth struct {
	UserID       string     `gorm:"primaryKey;size:64" json:"user_id"`
	Borrower     *Borrower  `gorm:"foreignKey:UserID;references:UID" json:"-"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	IsAdmin      bool       `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

func (UserAuth) TableName() string {
	return "user_auth"
}

// BorrowerProfile is the public view of a borrower returned by the API.
type BorrowerProfile struct {
	UID              string          `json:"uid"`
	Name             string          `json:"name"`
	Phone            string          `json:"phone"`
	IdentityType     uint            `json:"identity_type"`
	IdentityTypeName string          `json:"identity_type_name"`
	StudentID        *string         `json:"student_id"`
	EmployeeID       *string         `json:"employee_id"`
	BorrowedCount    int             `json:"borrowed_count"`
	RegistrationDate time.Time       `json:"registration_date"`
	BorrowingStatus  BorrowingStatus `json:"borrowing_status"`
	IsAdmin          bool            `json:"is_admin"`
}
