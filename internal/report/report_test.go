package report

import (
	"bytes"
	"context"
	"testing"

	"github.com/mroshb/moodgram/internal/memstore"
	"github.com/mroshb/moodgram/internal/models"
	"github.com/mroshb/moodgram/internal/relationship"
	"github.com/mroshb/moodgram/pkg/errors"
	"github.com/xuri/excelize/v2"
)

type failingSource struct{}

func (failingSource) AllUsers(ctx context.Context) ([]models.User, error) {
	return nil, errors.New(errors.ErrCodeUnavailable, "store down")
}

func (failingSource) AllRelationships(ctx context.Context) ([]models.Relationship, error) {
	return nil, nil
}

func TestWrite(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	for _, u := range []models.User{
		{ID: "u1", Username: "alice", DisplayName: "Alice", IsAccountPublic: true},
		{ID: "u2", Username: "bob", DisplayName: "Bob"},
	} {
		u := u
		if err := store.CreateUser(ctx, &u); err != nil {
			t.Fatalf("CreateUser(%s) error = %v", u.ID, err)
		}
	}

	engine := relationship.NewEngine(store)
	if _, err := engine.ApplyAction(ctx, "u1", relationship.Target{ID: "u2"}, relationship.ActionFollow); err != nil {
		t.Fatalf("ApplyAction() error = %v", err)
	}

	var buf bytes.Buffer
	if err := Write(ctx, store, &buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	users, err := f.GetRows(SheetUsers)
	if err != nil {
		t.Fatalf("GetRows(users) error = %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("users sheet has %d rows, want header + 2", len(users))
	}
	if users[1][1] != "alice" || users[1][6] != "1" {
		t.Errorf("alice row = %v, want one request sent", users[1])
	}
	if users[2][1] != "bob" || users[2][7] != "1" {
		t.Errorf("bob row = %v, want one request received", users[2])
	}

	edges, err := f.GetRows(SheetRelationships)
	if err != nil {
		t.Fatalf("GetRows(relationships) error = %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("relationships sheet has %d rows, want header + 1", len(edges))
	}
	want := []string{"u1", "alice", "u2", "bob", "request", "FALSE"}
	for i, v := range want {
		if edges[1][i] != v {
			t.Errorf("edge column %d = %q, want %q", i, edges[1][i], v)
		}
	}
}

func TestWrite_SourceError(t *testing.T) {
	var buf bytes.Buffer
	err := Write(context.Background(), failingSource{}, &buf)
	if !errors.Is(err, errors.ErrCodeUnavailable) {
		t.Errorf("Write() error = %v, want UNAVAILABLE", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Write() wrote %d bytes on failure", buf.Len())
	}
}
