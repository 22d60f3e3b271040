package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/flowguide/pkg/graph"
	"github.com/matzehuels/flowguide/pkg/navigate"
)

func testState() navigate.State {
	url := "https://example.org/b"
	g := graph.Graph{
		Nodes: []graph.Node{
			{ID: "A", Label: "A", Style: graph.Style{graph.StyleFontSize: "12px"}},
			{ID: "B", Label: "B", Data: &url},
		},
		Edges: []graph.Edge{{Source: "A", Target: "B", Label: "ab"}},
	}
	return navigate.New(g).Init()
}

// storeContract exercises the behavior every backend must share.
func storeContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("MissingReturnsNil", func(t *testing.T) {
		sess, err := store.Get(ctx, GenerateID())
		if err != nil || sess != nil {
			t.Errorf("Get(missing) = %v, %v; want nil, nil", sess, err)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		sess := New(testState(), time.Hour)
		sess.State.RenderKey = 4
		if err := store.Set(ctx, sess); err != nil {
			t.Fatalf("Set: %v", err)
		}

		got, err := store.Get(ctx, sess.ID)
		if err != nil || got == nil {
			t.Fatalf("Get = %v, %v; want session", got, err)
		}
		if got.ID != sess.ID || got.State.RenderKey != 4 || got.State.Focus != "A" {
			t.Errorf("Get = %+v, want %+v", got, sess)
		}
		if !got.State.Graph.StructuralEqual(sess.State.Graph) {
			t.Error("stored graph differs from the original")
		}
		if got.State.Graph.Nodes[1].DocURL() != "https://example.org/b" {
			t.Errorf("doc link lost: %+v", got.State.Graph.Nodes[1])
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		sess := New(testState(), time.Hour)
		_ = store.Set(ctx, sess)
		sess.State.RenderKey = 9
		if err := store.Set(ctx, sess); err != nil {
			t.Fatal(err)
		}
		got, _ := store.Get(ctx, sess.ID)
		if got == nil || got.State.RenderKey != 9 {
			t.Errorf("Get after overwrite = %+v, want render key 9", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		sess := New(testState(), time.Hour)
		_ = store.Set(ctx, sess)
		if err := store.Delete(ctx, sess.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if got, _ := store.Get(ctx, sess.ID); got != nil {
			t.Error("Get after Delete should return nil")
		}
		if err := store.Delete(ctx, sess.ID); err != nil {
			t.Errorf("Delete of missing session: %v", err)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		sess := New(testState(), time.Hour)
		sess.ExpiresAt = time.Now().Add(-time.Minute)
		_ = store.Set(ctx, sess)
		if got, err := store.Get(ctx, sess.ID); got != nil || err != nil {
			t.Errorf("Get(expired) = %v, %v; want nil, nil", got, err)
		}
		if err := store.Cleanup(ctx); err != nil {
			t.Errorf("Cleanup: %v", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	storeContract(t, store)
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	sess := New(testState(), time.Hour)
	_ = store.Set(ctx, sess)
	sess.State.Graph.Nodes[0].Label = "changed after Set"

	got, _ := store.Get(ctx, sess.ID)
	if got.State.Graph.Nodes[0].Label != "A" {
		t.Error("stored session aliases the caller's state")
	}
	got.State.Roots[0] = "changed after Get"

	again, _ := store.Get(ctx, sess.ID)
	if again.State.Roots[0] != "A" {
		t.Error("returned session aliases the stored state")
	}
}

func TestMemoryStoreCleanup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	live := New(testState(), time.Hour)
	dead := New(testState(), time.Hour)
	dead.ExpiresAt = time.Now().Add(-time.Second)
	_ = store.Set(ctx, live)
	_ = store.Set(ctx, dead)

	if err := store.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	if store.Len() != 1 {
		t.Errorf("Len after Cleanup = %d, want 1", store.Len())
	}
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	defer store.Close()
	storeContract(t, store)
}

func TestFileStorePermissions(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	sess := New(testState(), time.Hour)
	if err := store.Set(ctx, sess); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(filepath.Join(dir, sess.ID+".json"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("session file mode = %o, want 600", perm)
	}
	if store.Path() != dir {
		t.Errorf("Path() = %q, want %q", store.Path(), dir)
	}
}

func TestFileStoreCleanup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	dead := New(testState(), time.Hour)
	dead.ExpiresAt = time.Now().Add(-time.Second)
	_ = store.Set(ctx, dead)
	_ = store.Set(ctx, New(testState(), time.Hour))

	if err := store.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("%d session files after Cleanup, want 1", len(entries))
	}
}

func TestFileStorePathTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got := store.sessionPath("../../etc/passwd"); filepath.Dir(got) != dir {
		t.Errorf("sessionPath escaped the store dir: %s", got)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{})
	if err != nil {
		t.Fatalf("Open(default): %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("Open(default) = %T, want *MemoryStore", s)
	}

	s, err = Open(ctx, Options{Backend: BackendFile, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open(file): %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("Open(file) = %T, want *FileStore", s)
	}

	if _, err := Open(ctx, Options{Backend: "etcd"}); err == nil {
		t.Error("Open should reject unknown backends")
	}
}

func TestSessionIDs(t *testing.T) {
	id := GenerateID()
	if !ValidID(id) {
		t.Errorf("ValidID(%q) = false, want true", id)
	}
	if id == GenerateID() {
		t.Error("GenerateID should not repeat")
	}
	for _, bad := range []string{"", "abc", "../../etc/passwd", id + "x"} {
		if ValidID(bad) {
			t.Errorf("ValidID(%q) = true, want false", bad)
		}
	}
}

func TestTouch(t *testing.T) {
	sess := New(testState(), time.Minute)
	sess.ExpiresAt = time.Now().Add(-time.Second)
	if !sess.IsExpired() {
		t.Fatal("session should be expired")
	}
	sess.Touch(time.Hour)
	if sess.IsExpired() {
		t.Error("Touch should extend the expiry")
	}
}

func TestRetryableError(t *testing.T) {
	// Retryable(nil) returns nil
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	// Non-nil error is wrapped
	err := Retryable(ErrUnavailable)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("Retryable should preserve the wrapped error")
	}

	// Non-wrapped errors are not retryable
	if IsRetryable(ErrUnavailable) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond

	// Success on first try
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should call once: %d", calls)
	}

	// Non-retryable error stops immediately
	errFatal := errors.New("fatal")
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return errFatal
	})
	if err != errFatal {
		t.Errorf("Should return non-retryable error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should not retry non-retryable error: %d", calls)
	}

	// Retryable error triggers retries
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrUnavailable)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("Should retry once: %d", calls)
	}

	// Persistent failures give up after three attempts
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return Retryable(ErrUnavailable)
	})
	if !errors.Is(err, ErrUnavailable) || calls != 3 {
		t.Errorf("err = %v after %d calls, want ErrUnavailable after 3", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
