package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bookstore/pkg/domain"
	"bookstore/pkg/store"
)

func ownedBy(identity string) store.BookPredicate {
	return func(b domain.Book) bool { return b.OwnedBy(identity) }
}

func normalizeIdentity(identity string) (string, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return "", ErrIdentityRequired
	}
	return identity, nil
}

// Bounds of the books.price numeric(12,2) column.
const priceScale = 2

var maxPriceExclusive = decimal.New(1, 10)

func validateFields(fields domain.BookFields) error {
	p := fields.Price
	if p.IsNegative() || p.GreaterThanOrEqual(maxPriceExclusive) || !p.Equal(p.Round(priceScale)) {
		return ErrInvalidPrice
	}
	return nil
}

// AddBook stores a new book owned by identity.
func (a *App) AddBook(ctx context.Context, identity string, fields domain.BookFields) (domain.Book, error) {
	identity, err := normalizeIdentity(identity)
	if err != nil {
		return domain.Book{}, err
	}
	if err := validateFields(fields); err != nil {
		return domain.Book{}, err
	}
	book := domain.Book{CreatedBy: identity}
	book.Apply(fields)
	created, err := a.store.CreateBook(ctx, book)
	if err != nil {
		return domain.Book{}, fmt.Errorf("create book: %w", err)
	}
	return created, nil
}

// GetBooks lists the books identity created, oldest first.
func (a *App) GetBooks(ctx context.Context, identity string) ([]domain.Book, error) {
	identity, err := normalizeIdentity(identity)
	if err != nil {
		return nil, err
	}
	books, err := a.store.ListBooksByCreator(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// GetBookByID returns any book by id regardless of owner.
func (a *App) GetBookByID(ctx context.Context, id int64) (domain.Book, bool, error) {
	book, ok, err := a.store.GetBook(ctx, id)
	if err != nil {
		return domain.Book{}, false, fmt.Errorf("get book: %w", err)
	}
	return book, ok, nil
}

// UpdateBook overwrites the mutable fields of a book identity owns.
func (a *App) UpdateBook(ctx context.Context, id int64, fields domain.BookFields, identity string) (domain.Book, error) {
	identity, err := normalizeIdentity(identity)
	if err != nil {
		return domain.Book{}, err
	}
	if err := validateFields(fields); err != nil {
		return domain.Book{}, err
	}
	updated, ok, err := a.store.UpdateBookIf(ctx, id, fields, ownedBy(identity))
	if err != nil {
		return domain.Book{}, fmt.Errorf("update book: %w", err)
	}
	if !ok {
		return domain.Book{}, ErrForbidden
	}
	return updated, nil
}

// DeleteBook removes a book identity owns. It reports false when the book
// is absent or belongs to someone else.
func (a *App) DeleteBook(ctx context.Context, id int64, identity string) (bool, error) {
	identity, err := normalizeIdentity(identity)
	if err != nil {
		return false, err
	}
	deleted, err := a.store.DeleteBookIf(ctx, id, ownedBy(identity))
	if err != nil {
		return false, fmt.Errorf("delete book: %w", err)
	}
	return deleted, nil
}
