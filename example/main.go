package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/TechXTT/dbsession"
	"github.com/TechXTT/dbsession/pkg/config"
	"github.com/TechXTT/dbsession/pkg/runtime"
)

type user struct {
	ID        uuid.UUID `db:"id"`
	FirstName string    `db:"first_name"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

type post struct {
	ID     int64     `db:"id"`
	UserID uuid.UUID `db:"user_id"`
	Title  string    `db:"title"`
}

func main() {
	ctx := context.Background()

	// 1) Open an in-memory SQLite database and a session on it
	cfg := &config.Config{Driver: "sqlite", DSN: ":memory:", BindStyle: "auto"}
	db, err := runtime.Open(cfg)
	if err != nil {
		panic(fmt.Errorf("open: %w", err))
	}
	defer db.Close()

	opts, err := runtime.SessionOptions(cfg, nil)
	if err != nil {
		panic(err)
	}
	s, err := dbsession.Open(ctx, db, opts...)
	if err != nil {
		panic(fmt.Errorf("session: %w", err))
	}
	defer s.Close(ctx)

	// 2) Schema
	for _, stmt := range []string{
		`CREATE TABLE users (id TEXT PRIMARY KEY, first_name TEXT NOT NULL, email TEXT NOT NULL, created_at DATETIME NOT NULL)`,
		`CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id TEXT NOT NULL REFERENCES users(id), title TEXT NOT NULL)`,
	} {
		if _, err := s.Execute(ctx, stmt); err != nil {
			panic(fmt.Errorf("schema: %w", err))
		}
	}

	// 3) Insert a user and a dependent post in one transaction
	if err := s.BeginTransaction(ctx, sql.LevelDefault); err != nil {
		panic(err)
	}
	alice := user{ID: uuid.New(), FirstName: "Alice", Email: "alice@example.com", CreatedAt: time.Now().UTC()}
	if _, err := s.Execute(ctx,
		`INSERT INTO users (id, first_name, email, created_at) VALUES (@id, @first_name, @email, @created_at)`,
		dbsession.MustParams(alice)...,
	); err != nil {
		_ = s.RollbackTransaction(ctx)
		panic(fmt.Errorf("insert user: %w", err))
	}
	if _, err := s.Execute(ctx,
		`INSERT INTO posts (user_id, title) VALUES (@UserID, @Title)`,
		dbsession.Named("UserID", alice.ID), dbsession.Named("Title", "Hello"),
	); err != nil {
		_ = s.RollbackTransaction(ctx)
		panic(fmt.Errorf("insert post: %w", err))
	}
	postID, err := dbsession.Scalar[int64](ctx, s, `SELECT last_insert_rowid()`)
	if err != nil {
		_ = s.RollbackTransaction(ctx)
		panic(err)
	}
	if err := s.CommitTransaction(ctx); err != nil {
		panic(fmt.Errorf("commit: %w", err))
	}
	fmt.Printf("Created user %s and post %d\n", alice.ID, postID)

	// 4) Read back, typed and dynamic
	users, err := dbsession.Query[user](ctx, s, `SELECT id, first_name, email, created_at FROM users`)
	if err != nil {
		panic(err)
	}
	posts, err := dbsession.Query[post](ctx, s, `SELECT id, user_id, title FROM posts WHERE user_id = @id`,
		dbsession.Named("id", alice.ID))
	if err != nil {
		panic(err)
	}
	for _, u := range users {
		fmt.Printf("User %s <%s> created %s\n", u.FirstName, u.Email, u.CreatedAt.Format(time.RFC3339))
	}
	for _, p := range posts {
		fmt.Printf("Post %d %q by %s\n", p.ID, p.Title, p.UserID)
	}

	rows, err := dbsession.Query[dbsession.Row](ctx, s, `SELECT title, NULL AS subtitle FROM posts`)
	if err != nil {
		panic(err)
	}
	if err := writeJSON(rows); err != nil {
		panic(err)
	}
}

func writeJSON(rows []dbsession.Row) error {
	for _, r := range rows {
		b, err := r.MarshalJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(b))
	}
	return nil
}
