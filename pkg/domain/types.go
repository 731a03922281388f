package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers; decoding accepts numbers and strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	PasswordSalt []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasCredentials reports whether both hash and salt are present.
func (u User) HasCredentials() bool {
	return len(u.PasswordHash) > 0 && len(u.PasswordSalt) > 0
}

// BookFields is the caller-supplied, mutable part of a book.
type BookFields struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
}

type Book struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	CreatedBy   string          `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// OwnedBy is the single ownership rule: the acting identity must equal
// the username recorded at creation. An empty identity owns nothing.
func (b Book) OwnedBy(identity string) bool {
	return identity != "" && b.CreatedBy == identity
}

// Apply overwrites the mutable fields. ID and CreatedBy are left untouched.
func (b *Book) Apply(f BookFields) {
	b.Name = f.Name
	b.Category = f.Category
	b.Price = f.Price
	b.Description = f.Description
}

// Fields returns the mutable subset of the book.
func (b Book) Fields() BookFields {
	return BookFields{
		Name:        b.Name,
		Category:    b.Category,
		Price:       b.Price,
		Description: b.Description,
	}
}
