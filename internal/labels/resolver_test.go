package labels

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/joshsymonds/mailsort/internal/gmail"
)

type fakeClient struct {
	labels       []gmail.Label
	createErr    error
	createCalls  []string
	listCalls    int
	createdLabel gmail.Label
}

func (f *fakeClient) ListUnread(ctx context.Context, max int) ([]gmail.MessageRef, error) {
	_ = ctx
	_ = max
	return nil, nil
}

func (f *fakeClient) GetMessage(ctx context.Context, id gmail.MessageID) (gmail.Message, error) {
	_ = ctx
	_ = id
	return gmail.Message{}, nil
}

func (f *fakeClient) ListLabels(ctx context.Context) ([]gmail.Label, error) {
	_ = ctx
	f.listCalls++
	return f.labels, nil
}

func (f *fakeClient) CreateLabel(ctx context.Context, name string) (gmail.Label, error) {
	_ = ctx
	f.createCalls = append(f.createCalls, name)
	if f.createErr != nil {
		return gmail.Label{}, f.createErr
	}
	if f.createdLabel.ID == "" {
		f.createdLabel = gmail.Label{ID: "Label_new", Name: name}
	}
	return f.createdLabel, nil
}

func (f *fakeClient) AddLabel(ctx context.Context, id gmail.MessageID, labelID gmail.LabelID) error {
	_ = ctx
	_ = id
	_ = labelID
	return nil
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveCacheHit(t *testing.T) {
	fake := &fakeClient{}
	cache := NewCache([]gmail.Label{{ID: "Label_1", Name: "Newsletter"}})
	r := NewResolver(fake, cache, slogDiscard())

	id, err := r.Resolve(context.Background(), "Newsletter")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if id != "Label_1" {
		t.Fatalf("got %s, want Label_1", id)
	}
	if len(fake.createCalls) != 0 {
		t.Fatalf("expected no create calls, got %d", len(fake.createCalls))
	}
}

func TestResolveCaseInsensitiveLookup(t *testing.T) {
	fake := &fakeClient{}
	cache := NewCache([]gmail.Label{{ID: "Label_1", Name: "newsletter"}})
	r := NewResolver(fake, cache, slogDiscard())

	id, err := r.Resolve(context.Background(), "  Newsletter ")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if id != "Label_1" {
		t.Fatalf("got %s, want Label_1", id)
	}
}

func TestResolveCreatesOnMissAndCaches(t *testing.T) {
	fake := &fakeClient{}
	cache := NewCache(nil)
	r := NewResolver(fake, cache, slogDiscard())

	id, err := r.Resolve(context.Background(), "Urgent")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if id != "Label_new" {
		t.Fatalf("got %s, want Label_new", id)
	}
	if len(fake.createCalls) != 1 || fake.createCalls[0] != "Urgent" {
		t.Fatalf("unexpected create calls: %v", fake.createCalls)
	}

	// Second resolve must come from the cache.
	again, err := r.Resolve(context.Background(), "Urgent")
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if again != id {
		t.Fatalf("cache returned %s, want %s", again, id)
	}
	if len(fake.createCalls) != 1 {
		t.Fatalf("expected 1 create call total, got %d", len(fake.createCalls))
	}
}

func TestResolveConflictRelistsAndRecovers(t *testing.T) {
	fake := &fakeClient{
		createErr: gmail.ErrLabelExists,
		labels:    []gmail.Label{{ID: "Label_7", Name: "Urgent"}},
	}
	r := NewResolver(fake, NewCache(nil), slogDiscard())

	id, err := r.Resolve(context.Background(), "Urgent")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if id != "Label_7" {
		t.Fatalf("got %s, want Label_7", id)
	}
	if fake.listCalls != 1 {
		t.Fatalf("expected 1 re-list, got %d", fake.listCalls)
	}
}

func TestResolveConflictUnresolvedFallsBackToInbox(t *testing.T) {
	fake := &fakeClient{createErr: gmail.ErrLabelExists}
	r := NewResolver(fake, NewCache(nil), slogDiscard())

	id, err := r.Resolve(context.Background(), "Urgent")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if id != gmail.LabelInbox {
		t.Fatalf("got %s, want %s", id, gmail.LabelInbox)
	}
}

func TestResolveNonConflictErrorSurfaces(t *testing.T) {
	fake := &fakeClient{createErr: errors.New("quota exceeded")}
	r := NewResolver(fake, NewCache(nil), slogDiscard())

	if _, err := r.Resolve(context.Background(), "Urgent"); err == nil {
		t.Fatalf("expected error")
	}
	if fake.listCalls != 0 {
		t.Fatalf("expected no re-list on non-conflict error, got %d", fake.listCalls)
	}
}

func TestManagedSet(t *testing.T) {
	listing := []gmail.Label{
		{ID: "Label_1", Name: "Newsletter"},
		{ID: "Label_2", Name: "urgent"},
		{ID: "Label_3", Name: "Receipts"},
		{ID: "Label_4", Name: "Spam or Ignore"},
		{ID: "INBOX", Name: "INBOX"},
	}
	managed := ManagedSet(listing, []string{"Newsletter", "Urgent"}, "Spam or Ignore")

	want := []gmail.LabelID{"Label_1", "Label_2", "Label_4"}
	if len(managed) != len(want) {
		t.Fatalf("managed set size %d, want %d", len(managed), len(want))
	}
	for _, id := range want {
		if _, ok := managed[id]; !ok {
			t.Fatalf("managed set missing %s", id)
		}
	}
}

func TestAlreadyProcessed(t *testing.T) {
	managed := map[gmail.LabelID]struct{}{"Label_1": {}, "Label_2": {}}

	tests := []struct {
		name   string
		labels []gmail.LabelID
		want   bool
	}{
		{name: "no-managed", labels: []gmail.LabelID{"INBOX", "UNREAD"}, want: false},
		{name: "one-managed", labels: []gmail.LabelID{"INBOX", "Label_1"}, want: true},
		{name: "two-managed", labels: []gmail.LabelID{"Label_1", "Label_2"}, want: true},
		{name: "empty", labels: nil, want: false},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			if got := AlreadyProcessed(tc.labels, managed); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}
