package services

import (
	"context"
	"testing"

	"github.com/mroshb/moodgram/internal/memstore"
	"github.com/mroshb/moodgram/internal/models"
	"github.com/mroshb/moodgram/internal/relationship"
	"github.com/mroshb/moodgram/pkg/errors"
)

// flakyStore fails the first n transactions with a conflict.
type flakyStore struct {
	*memstore.Store
	failures int
	calls    int
}

func (s *flakyStore) RunInTransaction(ctx context.Context, fn func(relationship.Tx) error) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New(errors.ErrCodeConflict, "simulated conflict")
	}
	return s.Store.RunInTransaction(ctx, fn)
}

func setup(t *testing.T, failures, maxRetries int) (*UserService, *SocialService, *flakyStore) {
	t.Helper()
	store := &flakyStore{Store: memstore.New(), failures: failures}
	users := NewUserService(store)
	social := NewSocialService(relationship.NewEngine(store), store, store, maxRetries)
	social.retryDelay = 0
	return users, social, store
}

func register(t *testing.T, users *UserService, username string, public bool) *models.User {
	t.Helper()
	u, err := users.Register(context.Background(), RegisterInput{Username: username, DisplayName: username, IsAccountPublic: public})
	if err != nil {
		t.Fatalf("Register(%q) error = %v", username, err)
	}
	return u
}

func TestUserService_Register(t *testing.T) {
	users, _, _ := setup(t, 0, 1)

	tests := []struct {
		name     string
		input    RegisterInput
		wantCode string
		wantName string
	}{
		{
			name:     "Valid",
			input:    RegisterInput{Username: "@Ana", DisplayName: "<i>Ana</i>"},
			wantName: "Ana",
		},
		{
			name:     "Display name defaults to username",
			input:    RegisterInput{Username: "bruno"},
			wantName: "bruno",
		},
		{
			name:     "Duplicate username",
			input:    RegisterInput{Username: "ANA"},
			wantCode: errors.ErrCodeAlreadyExists,
		},
		{
			name:     "Invalid username",
			input:    RegisterInput{Username: "a b"},
			wantCode: errors.ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := users.Register(context.Background(), tt.input)
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Fatalf("Register() error = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Register() error = %v", err)
			}
			if u.ID == "" {
				t.Error("Register() returned empty id")
			}
			if u.DisplayName != tt.wantName {
				t.Errorf("DisplayName = %q, want %q", u.DisplayName, tt.wantName)
			}
		})
	}

	got, err := users.GetByUsername(context.Background(), "@ana")
	if err != nil || got.Username != "ana" {
		t.Errorf("GetByUsername() = %v, %v, want ana", got, err)
	}
}

func TestSocialService_ActFollowsPrivacy(t *testing.T) {
	users, social, _ := setup(t, 0, 1)
	ctx := context.Background()
	a := register(t, users, "ana", true)
	b := register(t, users, "bruno", false)

	out, err := social.Act(ctx, a.ID, b.ID, relationship.ActionFollow)
	if err != nil {
		t.Fatalf("Act() error = %v", err)
	}
	if out.Status != models.StatusRequest {
		t.Errorf("Act() status = %q, want request", out.Status)
	}

	pending, err := social.PendingRequests(ctx, b.ID, 0)
	if err != nil {
		t.Fatalf("PendingRequests() error = %v", err)
	}
	if len(pending) != 1 || pending[0].SourceID != a.ID {
		t.Fatalf("PendingRequests() = %+v, want one from %s", pending, a.ID)
	}

	if _, err := social.Act(ctx, b.ID, a.ID, relationship.ActionApprove); err != nil {
		t.Fatalf("Act(approve) error = %v", err)
	}

	followers, _ := social.Followers(ctx, b.ID, 10)
	if len(followers) != 1 || followers[0].SourceID != a.ID {
		t.Errorf("Followers() = %+v, want one from %s", followers, a.ID)
	}
	following, _ := social.Following(ctx, a.ID, 10)
	if len(following) != 1 || following[0].TargetID != b.ID {
		t.Errorf("Following() = %+v, want one to %s", following, b.ID)
	}

	view, err := social.Between(ctx, b.ID, a.ID)
	if err != nil {
		t.Fatalf("Between() error = %v", err)
	}
	if view.Incoming.Status != models.StatusFollow || view.Outgoing.Status != models.StatusNone {
		t.Errorf("Between() = %+v, want incoming follow and outgoing none", view)
	}
}

func TestSocialService_PrivacyIsReadPerAttempt(t *testing.T) {
	users, social, _ := setup(t, 0, 1)
	ctx := context.Background()
	a := register(t, users, "ana", true)
	b := register(t, users, "bruno", false)

	if err := users.SetAccountPublic(ctx, b.ID, true); err != nil {
		t.Fatalf("SetAccountPublic() error = %v", err)
	}
	out, err := social.Act(ctx, a.ID, b.ID, relationship.ActionFollow)
	if err != nil {
		t.Fatalf("Act() error = %v", err)
	}
	if out.Status != models.StatusFollow {
		t.Errorf("Act() status = %q, want follow", out.Status)
	}
}

func TestSocialService_RetriesConflicts(t *testing.T) {
	tests := []struct {
		name       string
		failures   int
		maxRetries int
		wantErr    bool
		wantCalls  int
	}{
		{name: "Succeeds after retries", failures: 2, maxRetries: 3, wantCalls: 3},
		{name: "Retries exhausted", failures: 3, maxRetries: 3, wantErr: true, wantCalls: 3},
		{name: "No conflict", failures: 0, maxRetries: 3, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, social, store := setup(t, tt.failures, tt.maxRetries)
			a := register(t, users, "ana", true)
			b := register(t, users, "bruno", true)

			_, err := social.Act(context.Background(), a.ID, b.ID, relationship.ActionFollow)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Act() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, errors.ErrCodeConflict) {
				t.Errorf("Act() error = %v, want %s", err, errors.ErrCodeConflict)
			}
			if store.calls != tt.wantCalls {
				t.Errorf("transactions = %d, want %d", store.calls, tt.wantCalls)
			}

			wantFollow := int64(1)
			if tt.wantErr {
				wantFollow = 0
			}
			if got := store.Counters(a.ID).FollowCount; got != wantFollow {
				t.Errorf("FollowCount = %d, want %d", got, wantFollow)
			}
		})
	}
}

func TestSocialService_UnknownUsers(t *testing.T) {
	users, social, _ := setup(t, 0, 1)
	a := register(t, users, "ana", true)

	tests := []struct {
		name     string
		acting   string
		targetID string
	}{
		{name: "Unknown target", acting: a.ID, targetID: "missing"},
		{name: "Unknown acting", acting: "missing", targetID: a.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := social.Act(context.Background(), tt.acting, tt.targetID, relationship.ActionFollow)
			if !errors.Is(err, errors.ErrCodeNotFound) {
				t.Errorf("Act() error = %v, want %s", err, errors.ErrCodeNotFound)
			}
		})
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{in: 0, want: defaultListLimit},
		{in: -5, want: defaultListLimit},
		{in: 10, want: 10},
		{in: 10000, want: maxListLimit},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestReconciler_Run(t *testing.T) {
	users, social, store := setup(t, 0, 1)
	ctx := context.Background()

	a := register(t, users, "alice", true)
	b := register(t, users, "bob", true)
	if _, err := social.Act(ctx, a.ID, b.ID, relationship.ActionFollow); err != nil {
		t.Fatalf("Act() error = %v", err)
	}

	// counters bumped without a matching edge
	err := store.Store.RunInTransaction(ctx, func(tx relationship.Tx) error {
		return tx.IncrementCounters(ctx, b.ID, models.Counters{FollowCount: 2})
	})
	if err != nil {
		t.Fatalf("RunInTransaction() error = %v", err)
	}

	report, err := NewReconciler(store.Store).Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Checked != 2 {
		t.Errorf("Checked = %d, want 2", report.Checked)
	}
	if len(report.Drifts) != 1 || report.Drifts[0].UserID != b.ID {
		t.Fatalf("Drifts = %+v, want one drift for bob", report.Drifts)
	}
	if got := report.Drifts[0].Stored.FollowCount; got != 2 {
		t.Errorf("Stored.FollowCount = %d, want 2", got)
	}

	want := models.Counters{FollowByCount: 1}
	if got := store.Counters(b.ID); got != want {
		t.Errorf("bob counters = %+v, want %+v", got, want)
	}

	again, _ := NewReconciler(store.Store).Run(ctx)
	if len(again.Drifts) != 0 {
		t.Errorf("second Run() found drifts %+v, want none", again.Drifts)
	}
}
