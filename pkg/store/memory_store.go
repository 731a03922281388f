package store

import (
	"context"
	"sync"
	"time"

	"bookstore/pkg/domain"
)

// MemoryStore keeps users and books in-process. Used by tests and
// single-instance local runs.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]domain.User // username -> user
	books      map[int64]domain.Book
	orders     []int64
	nextUserID int64
	nextBookID int64
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]domain.User),
		books: make(map[int64]domain.Book),
	}
}

// CreateUser checks and inserts under the write lock.
func (m *MemoryStore) CreateUser(_ context.Context, u domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[u.Username]; exists {
		return domain.User{}, ErrUsernameTaken
	}
	m.nextUserID++
	u.ID = m.nextUserID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.PasswordHash = append([]byte(nil), u.PasswordHash...)
	u.PasswordSalt = append([]byte(nil), u.PasswordSalt...)
	m.users[u.Username] = u
	return u, nil
}

// GetUserByUsername looks up a user by username.
func (m *MemoryStore) GetUserByUsername(_ context.Context, username string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	return u, ok, nil
}

// CreateBook assigns the next ID and tracks insertion order.
func (m *MemoryStore) CreateBook(_ context.Context, b domain.Book) (domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextBookID++
	b.ID = m.nextBookID
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	m.books[b.ID] = b
	m.orders = append(m.orders, b.ID)
	return b, nil
}

// ListBooksByCreator returns books in insertion order.
func (m *MemoryStore) ListBooksByCreator(_ context.Context, username string) ([]domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Book, 0, len(m.orders))
	for _, id := range m.orders {
		if b, ok := m.books[id]; ok && b.CreatedBy == username {
			res = append(res, b)
		}
	}
	return res, nil
}

// GetBook retrieves a book by ID.
func (m *MemoryStore) GetBook(_ context.Context, id int64) (domain.Book, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[id]
	return b, ok, nil
}

// UpdateBookIf applies fields under the write lock when allow accepts.
func (m *MemoryStore) UpdateBookIf(_ context.Context, id int64, fields domain.BookFields, allow BookPredicate) (domain.Book, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok || (allow != nil && !allow(b)) {
		return domain.Book{}, false, nil
	}
	b.Apply(fields)
	b.UpdatedAt = time.Now().UTC()
	m.books[id] = b
	return b, true, nil
}

// DeleteBookIf removes the book under the write lock when allow accepts.
func (m *MemoryStore) DeleteBookIf(_ context.Context, id int64, allow BookPredicate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok || (allow != nil && !allow(b)) {
		return false, nil
	}
	delete(m.books, id)
	filtered := m.orders[:0]
	for _, item := range m.orders {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	m.orders = filtered
	return true, nil
}
