package entities

import "time"

type Publisher struct {
	PublisherID   string    `gorm:"primaryKey;size:64" json:"publisher_id"`
	PublisherName string    `gorm:"size:256;not null" json:"publisher_name"`
	Books         []Book    `gorm:"foreignKey:PublisherID;references:PublisherID" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

type Author struct {
	AuthorID   uint      `gorm:"primaryKey" json:"author_id"`
	AuthorName string    `gorm:"uniqueIndex;size:256;not null" json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// Book is a catalog title. Stock counts copies, not individual items:
// CurrentStock is the number of copies on the shelf right now.
type Book struct {
	BookID          string            `gorm:"primaryKey;size:64" json:"book_id"`
	Title           string            `gorm:"index;size:512;not null" json:"title"`
	ISBN            string            `gorm:"column:isbn;index;size:32" json:"isbn"`
	PublisherID     *string           `gorm:"index;size:64" json:"publisher_id,omitempty"`
	// Read side only; the foreign key is declared by Publisher.Books.
	Publisher       *Publisher        `gorm:"foreignKey:PublisherID;references:PublisherID;-:migration" json:"publisher,omitempty"`
	PublicationYear int               `json:"publication_year,omitempty"`
	TotalStock      int               `gorm:"not null;check:chk_books_total_stock,total_stock >= 0" json:"total_stock"`
	CurrentStock    int               `gorm:"not null;check:chk_books_current_stock,current_stock >= 0 AND current_stock <= total_stock" json:"current_stock"`
	Location        string            `gorm:"size:128" json:"location"`
	Authors         []Author          `gorm:"many2many:book_authors;foreignKey:BookID;joinForeignKey:BookID;references:AuthorID;joinReferences:AuthorID" json:"authors,omitempty"`
	Loans           []BorrowingRecord `gorm:"foreignKey:BookID;references:BookID;constraint:OnDelete:CASCADE" json:"-"`
	Fines           []FineRecord      `gorm:"foreignKey:BookID;references:BookID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// BookAuthor is the join row behind Book.Authors.
type BookAuthor struct {
	BookID   string `gorm:"primaryKey;size:64" json:"book_id"`
	AuthorID uint   `gorm:"primaryKey" json:"author_id"`
}
