package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/sakif/promptstore/internal/apperror"
	"github.com/sakif/promptstore/internal/model"
)

// =========================================================================
// FAKE REPOSITORY
// =========================================================================

// fakeMessageRepo is an in-memory repository.MessageRepository. It mirrors
// the sqlite implementation's contract, including the UNIQUE(owner, name)
// conflict on create and update.
type fakeMessageRepo struct {
	messages map[int64]*model.SystemMessage
	nextID   int64
	// simulated failures
	createErr error
	updateErr error
	deleteErr error
	// when true, Delete reports success but leaves the row in place —
	// exercising the service's post-delete verification
	deleteNoop bool
	// when >= 0, Update returns this affected count instead of the real one
	forceAffected int64
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		messages:      make(map[int64]*model.SystemMessage),
		forceAffected: -1,
	}
}

func (f *fakeMessageRepo) Create(_ context.Context, msg *model.SystemMessage) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, m := range f.messages {
		if m.OwnerID == msg.OwnerID && m.Name == msg.Name {
			return apperror.Conflict("a system message with this name already exists")
		}
	}
	f.nextID++
	msg.ID = f.nextID
	msg.CreatedAt = time.Now()
	stored := *msg
	f.messages[msg.ID] = &stored
	return nil
}

func (f *fakeMessageRepo) ListByOwner(_ context.Context, ownerID int64) ([]model.SystemMessage, error) {
	result := make([]model.SystemMessage, 0)
	for _, m := range f.messages {
		if m.OwnerID == ownerID {
			result = append(result, *m)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (f *fakeMessageRepo) Get(_ context.Context, ownerID, id int64) (*model.SystemMessage, error) {
	m, ok := f.messages[id]
	if !ok || m.OwnerID != ownerID {
		return nil, apperror.NotFound("system message", id)
	}
	result := *m
	return &result, nil
}

func (f *fakeMessageRepo) ExistsByName(_ context.Context, ownerID int64, name string, excludeID int64) (bool, error) {
	for _, m := range f.messages {
		if m.OwnerID == ownerID && m.Name == name && m.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMessageRepo) Update(_ context.Context, ownerID, id int64, name, content string) (int64, error) {
	if f.updateErr != nil {
		return 0, f.updateErr
	}
	m, ok := f.messages[id]
	if !ok || m.OwnerID != ownerID {
		return 0, nil
	}
	for _, other := range f.messages {
		if other.ID != id && other.OwnerID == ownerID && other.Name == name {
			return 0, apperror.Conflict("another system message with this name already exists")
		}
	}
	m.Name = name
	m.Content = content
	if f.forceAffected >= 0 {
		return f.forceAffected, nil
	}
	return 1, nil
}

func (f *fakeMessageRepo) Delete(_ context.Context, ownerID, id int64) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	m, ok := f.messages[id]
	if !ok || m.OwnerID != ownerID {
		return 0, nil
	}
	if f.deleteNoop {
		return 1, nil
	}
	delete(f.messages, id)
	return 1, nil
}

func newTestMessageService(t *testing.T) (*MessageService, *fakeMessageRepo) {
	t.Helper()
	repo := newFakeMessageRepo()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewMessageService(repo, logger), repo
}

// =========================================================================
// Create TESTS
// =========================================================================

func TestMessageCreate_Success(t *testing.T) {
	svc, _ := newTestMessageService(t)

	msg, err := svc.Create(context.Background(), 1, "greeting", "hello")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if msg.ID == 0 {
		t.Error("Create() did not assign an id")
	}
	if msg.OwnerID != 1 || msg.Name != "greeting" || msg.Content != "hello" {
		t.Errorf("Create() = %+v, want owner=1 name=greeting content=hello", msg)
	}
}

func TestMessageCreate_DuplicateName(t *testing.T) {
	svc, _ := newTestMessageService(t)

	if _, err := svc.Create(context.Background(), 1, "greeting", "hello"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, err := svc.Create(context.Background(), 1, "greeting", "different")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() duplicate error = %v, want ErrConflict", err)
	}

	// Same name under a different owner succeeds.
	if _, err := svc.Create(context.Background(), 2, "greeting", "hi"); err != nil {
		t.Errorf("Create() for different owner error = %v", err)
	}
}

func TestMessageCreate_Validation(t *testing.T) {
	svc, _ := newTestMessageService(t)

	if _, err := svc.Create(context.Background(), 1, "", "hello"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create(no name) error = %v, want ErrValidation", err)
	}
	if _, err := svc.Create(context.Background(), 1, "greeting", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create(no content) error = %v, want ErrValidation", err)
	}
}

func TestMessageCreate_ConstraintBackstop(t *testing.T) {
	svc, repo := newTestMessageService(t)

	// The advisory pre-check passes (repo looks empty to it), then the
	// insert conflicts — a lost race. The constraint's Conflict must
	// surface unchanged.
	repo.createErr = apperror.Conflict("a system message with this name already exists")

	_, err := svc.Create(context.Background(), 1, "greeting", "hello")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() error = %v, want ErrConflict from the constraint", err)
	}
}

// =========================================================================
// Get / List TESTS
// =========================================================================

func TestMessageGet_CrossOwnerIsolation(t *testing.T) {
	svc, _ := newTestMessageService(t)

	msg, err := svc.Create(context.Background(), 1, "greeting", "hello")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	// The response is NotFound, not Forbidden — user 2 must not learn the
	// record exists.
	_, err = svc.Get(context.Background(), 2, msg.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() as foreign owner error = %v, want ErrNotFound", err)
	}
}

func TestMessageList_OnlyOwnRecords(t *testing.T) {
	svc, _ := newTestMessageService(t)

	mustCreate := func(owner int64, name string) {
		t.Helper()
		if _, err := svc.Create(context.Background(), owner, name, "x"); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	mustCreate(1, "beta")
	mustCreate(1, "alpha")
	mustCreate(2, "gamma")

	messages, err := svc.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("len = %d, want 2", len(messages))
	}
	if messages[0].Name != "alpha" || messages[1].Name != "beta" {
		t.Errorf("order = [%s %s], want [alpha beta]", messages[0].Name, messages[1].Name)
	}
}

// =========================================================================
// Update TESTS
// =========================================================================

func TestMessageUpdate_Success(t *testing.T) {
	svc, _ := newTestMessageService(t)

	msg, err := svc.Create(context.Background(), 1, "greeting", "hello")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	updated, err := svc.Update(context.Background(), 1, msg.ID, "greeting2", "hi")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "greeting2" || updated.Content != "hi" {
		t.Errorf("Update() = {%q %q}, want {greeting2 hi}", updated.Name, updated.Content)
	}
}

func TestMessageUpdate_NotFoundOrForeign(t *testing.T) {
	svc, _ := newTestMessageService(t)

	msg, err := svc.Create(context.Background(), 1, "greeting", "hello")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	// Absent id.
	if _, err := svc.Update(context.Background(), 1, 999, "x", "y"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update(absent) error = %v, want ErrNotFound", err)
	}
	// Foreign owner — same answer.
	if _, err := svc.Update(context.Background(), 2, msg.ID, "x", "y"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update(foreign) error = %v, want ErrNotFound", err)
	}
}

func TestMessageUpdate_NameCollision(t *testing.T) {
	svc, _ := newTestMessageService(t)

	if _, err := svc.Create(context.Background(), 1, "first", "a"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	second, err := svc.Create(context.Background(), 1, "second", "b")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, err = svc.Update(context.Background(), 1, second.ID, "first", "b")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Update() collision error = %v, want ErrConflict", err)
	}
}

func TestMessageUpdate_KeepOwnNameIsNotACollision(t *testing.T) {
	svc, _ := newTestMessageService(t)

	msg, err := svc.Create(context.Background(), 1, "greeting", "hello")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	// Same name, new content — the pre-check excludes the target id.
	updated, err := svc.Update(context.Background(), 1, msg.ID, "greeting", "new content")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Content != "new content" {
		t.Errorf("Content = %q, want %q", updated.Content, "new content")
	}
}

func TestMessageUpdate_NoopReportsSuccess(t *testing.T) {
	svc, repo := newTestMessageService(t)

	msg, err := svc.Create(context.Background(), 1, "greeting", "hello")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	// Backend reports zero affected rows for an update whose new values
	// equal the old ones. The record exists with exactly the requested
	// state, so this is a successful no-op, not NotFound.
	repo.forceAffected = 0
	updated, err := svc.Update(context.Background(), 1, msg.ID, "greeting", "hello")
	if err != nil {
		t.Fatalf("Update() no-op error = %v, want success", err)
	}
	if updated.Name != "greeting" || updated.Content != "hello" {
		t.Errorf("Update() = {%q %q}, want unchanged values", updated.Name, updated.Content)
	}
}

// =========================================================================
// Delete TESTS
// =========================================================================

func TestMessageDelete_Success(t *testing.T) {
	svc, _ := newTestMessageService(t)

	msg, err := svc.Create(context.Background(), 1, "greeting", "hello")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := svc.Delete(context.Background(), 1, msg.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(context.Background(), 1, msg.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestMessageDelete_NotFoundOrForeign(t *testing.T) {
	svc, _ := newTestMessageService(t)

	msg, err := svc.Create(context.Background(), 1, "greeting", "hello")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := svc.Delete(context.Background(), 1, 999); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete(absent) error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(context.Background(), 2, msg.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete(foreign) error = %v, want ErrNotFound", err)
	}
	// The record survives both attempts.
	if _, err := svc.Get(context.Background(), 1, msg.ID); err != nil {
		t.Errorf("record should still exist: %v", err)
	}
}

func TestMessageDelete_VerifiesAbsence(t *testing.T) {
	svc, repo := newTestMessageService(t)

	msg, err := svc.Create(context.Background(), 1, "greeting", "hello")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	// The delete statement "succeeds" but the row is still there. The
	// post-delete verification must turn this into an internal error.
	repo.deleteNoop = true
	err = svc.Delete(context.Background(), 1, msg.ID)
	if err == nil {
		t.Fatal("Delete() should fail when the record survives the delete")
	}
	if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Delete() error = %v, want an internal error", err)
	}
}
