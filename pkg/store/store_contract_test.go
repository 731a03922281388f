package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"bookstore/pkg/domain"
)

func ownedBy(identity string) BookPredicate {
	return func(b domain.Book) bool { return b.OwnedBy(identity) }
}

// runStoreContract exercises the behavior every Store implementation shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("create user rejects duplicate username", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		first, err := s.CreateUser(ctx, domain.User{Username: "alice", PasswordHash: []byte{1}, PasswordSalt: []byte{2}})
		if err != nil {
			t.Fatalf("create user: %v", err)
		}
		if first.ID == 0 {
			t.Fatalf("expected assigned user id")
		}
		if _, err := s.CreateUser(ctx, domain.User{Username: "alice", PasswordHash: []byte{3}, PasswordSalt: []byte{4}}); !errors.Is(err, ErrUsernameTaken) {
			t.Fatalf("expected ErrUsernameTaken, got %v", err)
		}
		got, ok, err := s.GetUserByUsername(ctx, "alice")
		if err != nil || !ok {
			t.Fatalf("get user: ok=%v err=%v", ok, err)
		}
		if string(got.PasswordHash) != string([]byte{1}) || string(got.PasswordSalt) != string([]byte{2}) {
			t.Fatalf("duplicate insert overwrote credentials: %+v", got)
		}
	})

	t.Run("get missing user", func(t *testing.T) {
		s := newStore(t)
		if _, ok, err := s.GetUserByUsername(context.Background(), "nobody"); err != nil || ok {
			t.Fatalf("expected missing user, ok=%v err=%v", ok, err)
		}
	})

	t.Run("concurrent registration keeps usernames unique", func(t *testing.T) {
		s := newStore(t)
		const workers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			conflicts int
			others    []error
		)
		start := make(chan struct{})
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func(i int) {
				defer wg.Done()
				<-start
				_, err := s.CreateUser(context.Background(), domain.User{
					Username:     "racer",
					PasswordHash: []byte(fmt.Sprintf("hash-%d", i)),
					PasswordSalt: []byte("salt"),
				})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case errors.Is(err, ErrUsernameTaken):
					conflicts++
				default:
					others = append(others, err)
				}
			}(i)
		}
		close(start)
		wg.Wait()
		if len(others) > 0 {
			t.Fatalf("unexpected errors: %v", others)
		}
		if successes != 1 || conflicts != workers-1 {
			t.Fatalf("expected one success, got successes=%d conflicts=%d", successes, conflicts)
		}
	})

	t.Run("books are listed per creator in insertion order", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		titles := []string{"A", "B", "C"}
		for _, title := range titles {
			if _, err := s.CreateBook(ctx, domain.Book{Name: title, CreatedBy: "alice"}); err != nil {
				t.Fatalf("create book: %v", err)
			}
		}
		if _, err := s.CreateBook(ctx, domain.Book{Name: "other", CreatedBy: "bob"}); err != nil {
			t.Fatalf("create book: %v", err)
		}
		books, err := s.ListBooksByCreator(ctx, "alice")
		if err != nil {
			t.Fatalf("list books: %v", err)
		}
		if len(books) != len(titles) {
			t.Fatalf("expected %d books, got %d", len(titles), len(books))
		}
		for i, b := range books {
			if b.Name != titles[i] || b.CreatedBy != "alice" {
				t.Fatalf("book %d = %+v", i, b)
			}
		}
		empty, err := s.ListBooksByCreator(ctx, "carol")
		if err != nil {
			t.Fatalf("list books: %v", err)
		}
		if len(empty) != 0 {
			t.Fatalf("expected no books for carol, got %d", len(empty))
		}
	})

	t.Run("book round trip keeps price", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		created, err := s.CreateBook(ctx, domain.Book{
			Name:        "Dune",
			Category:    "SciFi",
			Price:       decimal.RequireFromString("19.99"),
			Description: "spice",
			CreatedBy:   "alice",
		})
		if err != nil {
			t.Fatalf("create book: %v", err)
		}
		if created.ID == 0 {
			t.Fatalf("expected assigned book id")
		}
		got, ok, err := s.GetBook(ctx, created.ID)
		if err != nil || !ok {
			t.Fatalf("get book: ok=%v err=%v", ok, err)
		}
		if got.Name != "Dune" || got.Category != "SciFi" || got.Description != "spice" || got.CreatedBy != "alice" {
			t.Fatalf("unexpected book: %+v", got)
		}
		if !got.Price.Equal(decimal.RequireFromString("19.99")) {
			t.Fatalf("price = %s, want 19.99", got.Price)
		}
		if _, ok, err := s.GetBook(ctx, created.ID+100); err != nil || ok {
			t.Fatalf("expected missing book, ok=%v err=%v", ok, err)
		}
	})

	t.Run("conditional update honors predicate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		created, err := s.CreateBook(ctx, domain.Book{Name: "X", Category: "c", CreatedBy: "alice"})
		if err != nil {
			t.Fatalf("create book: %v", err)
		}
		fields := domain.BookFields{Name: "Y", Category: "d", Price: decimal.NewFromInt(5), Description: "new"}

		if _, ok, err := s.UpdateBookIf(ctx, created.ID, fields, ownedBy("bob")); err != nil || ok {
			t.Fatalf("expected rejected update, ok=%v err=%v", ok, err)
		}
		unchanged, _, _ := s.GetBook(ctx, created.ID)
		if unchanged.Name != "X" || unchanged.Category != "c" {
			t.Fatalf("rejected update changed book: %+v", unchanged)
		}

		updated, ok, err := s.UpdateBookIf(ctx, created.ID, fields, ownedBy("alice"))
		if err != nil || !ok {
			t.Fatalf("expected update, ok=%v err=%v", ok, err)
		}
		if updated.ID != created.ID || updated.CreatedBy != "alice" || updated.Name != "Y" {
			t.Fatalf("unexpected updated book: %+v", updated)
		}
		stored, _, _ := s.GetBook(ctx, created.ID)
		if stored.Name != "Y" || stored.Category != "d" || stored.Description != "new" || !stored.Price.Equal(decimal.NewFromInt(5)) {
			t.Fatalf("stored book not updated: %+v", stored)
		}

		if _, ok, err := s.UpdateBookIf(ctx, created.ID+100, fields, ownedBy("alice")); err != nil || ok {
			t.Fatalf("expected missing book update to fail, ok=%v err=%v", ok, err)
		}
	})

	t.Run("conditional delete honors predicate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		created, err := s.CreateBook(ctx, domain.Book{Name: "X", CreatedBy: "alice"})
		if err != nil {
			t.Fatalf("create book: %v", err)
		}
		if deleted, err := s.DeleteBookIf(ctx, created.ID, ownedBy("bob")); err != nil || deleted {
			t.Fatalf("expected rejected delete, deleted=%v err=%v", deleted, err)
		}
		if _, ok, _ := s.GetBook(ctx, created.ID); !ok {
			t.Fatalf("rejected delete removed book")
		}
		if deleted, err := s.DeleteBookIf(ctx, created.ID, ownedBy("alice")); err != nil || !deleted {
			t.Fatalf("expected delete, deleted=%v err=%v", deleted, err)
		}
		if deleted, err := s.DeleteBookIf(ctx, created.ID, ownedBy("alice")); err != nil || deleted {
			t.Fatalf("expected second delete to report false, deleted=%v err=%v", deleted, err)
		}
		books, err := s.ListBooksByCreator(ctx, "alice")
		if err != nil {
			t.Fatalf("list books: %v", err)
		}
		if len(books) != 0 {
			t.Fatalf("expected no books after delete, got %d", len(books))
		}
	})
}
