package store

import (
	"context"
	"errors"

	"bookstore/pkg/domain"
)

// ErrUsernameTaken is returned by CreateUser when the username already exists.
var ErrUsernameTaken = errors.New("username already exists")

// BookPredicate decides whether a conditional write may proceed.
type BookPredicate func(domain.Book) bool

// Store defines persistence operations for users and books.
type Store interface {
	// users
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, bool, error)

	// books
	CreateBook(ctx context.Context, b domain.Book) (domain.Book, error)
	ListBooksByCreator(ctx context.Context, username string) ([]domain.Book, error)
	GetBook(ctx context.Context, id int64) (domain.Book, bool, error)
	// UpdateBookIf overwrites the mutable fields of book id when allow
	// accepts the current record. The check and the write are atomic.
	// ok is false when the book is absent or allow rejects it.
	UpdateBookIf(ctx context.Context, id int64, fields domain.BookFields, allow BookPredicate) (domain.Book, bool, error)
	// DeleteBookIf removes book id when allow accepts the current record.
	DeleteBookIf(ctx context.Context, id int64, allow BookPredicate) (bool, error)
}

// SessionStore issues and resolves bearer tokens.
type SessionStore interface {
	NewSession(username string) (string, error)
	GetUsernameByToken(token string) (string, bool, error)
}
