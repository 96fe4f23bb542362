package workitem

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wardbook/wardbook/pkg/apperr"
)

// -- Mock repositories --

type mockRepo struct {
	items map[uuid.UUID]*WorkItem
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*WorkItem)}
}

func (m *mockRepo) Insert(_ context.Context, item *WorkItem) error {
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, regno string, limit, offset int) ([]*WorkItem, int, error) {
	var result []*WorkItem
	for _, item := range m.items {
		if item.RegistrationNumber == regno {
			cp := *item
			result = append(result, &cp)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) matches(item *WorkItem, key NaturalKey, withSubtype bool) bool {
	if item.RegistrationNumber != key.RegistrationNumber ||
		!item.DateAndTime.Equal(key.DateAndTime) ||
		item.Payload.Kind != key.Kind ||
		item.Payload.Type != key.Type {
		return false
	}
	return !withSubtype || item.Payload.Subtype == key.Subtype
}

func (m *mockRepo) FindForEdit(_ context.Context, key NaturalKey) ([]*WorkItem, error) {
	var result []*WorkItem
	for _, item := range m.items {
		if m.matches(item, key, false) {
			cp := *item
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *mockRepo) FindExact(_ context.Context, key NaturalKey) ([]*WorkItem, error) {
	var result []*WorkItem
	for _, item := range m.items {
		if m.matches(item, key, true) {
			cp := *item
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *mockRepo) UpdateSubtype(_ context.Context, id uuid.UUID, kind PayloadKind, subtype string) (int64, error) {
	item, ok := m.items[id]
	if !ok || item.Payload.Kind != kind {
		return 0, nil
	}
	item.Payload.Subtype = subtype
	return 1, nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) (int64, error) {
	if _, ok := m.items[id]; !ok {
		return 0, nil
	}
	delete(m.items, id)
	return 1, nil
}

func (m *mockRepo) ReassignRegistration(_ context.Context, oldKey, newKey string) (int64, error) {
	var n int64
	for _, item := range m.items {
		if item.RegistrationNumber == oldKey {
			item.RegistrationNumber = newKey
			n++
		}
	}
	return n, nil
}

type mockStatusRepo struct {
	*mockRepo
}

func newMockStatusRepo() *mockStatusRepo {
	return &mockStatusRepo{mockRepo: newMockRepo()}
}

func (m *mockStatusRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) (int64, error) {
	item, ok := m.items[id]
	if !ok {
		return 0, nil
	}
	item.Status = status
	return 1, nil
}

func (m *mockStatusRepo) UpdateSubtypeAndStatus(_ context.Context, id uuid.UUID, kind PayloadKind, subtype, status string) (int64, error) {
	item, ok := m.items[id]
	if !ok || item.Payload.Kind != kind {
		return 0, nil
	}
	item.Payload.Subtype = subtype
	item.Status = status
	return 1, nil
}

type mockDirectory struct {
	known map[string]bool
}

func (m *mockDirectory) Exists(_ context.Context, regno string) (bool, error) {
	return m.known[regno], nil
}

func newTestService() (*Service, *mockStatusRepo, *mockRepo) {
	current := newMockStatusRepo()
	archive := newMockRepo()
	svc := NewService(current, archive, &mockDirectory{known: map[string]bool{"R100": true}})
	return svc, current, archive
}

func labPayload() Payload {
	return Payload{Kind: KindLab, Type: "blood", Subtype: "CBC"}
}

func imagingPayload() Payload {
	return Payload{Kind: KindImaging, Type: "CT", Subtype: "head plain"}
}

func keyOf(item *WorkItem) NaturalKey {
	return NaturalKey{
		RegistrationNumber: item.RegistrationNumber,
		DateAndTime:        item.DateAndTime,
		Kind:               item.Payload.Kind,
		Type:               item.Payload.Type,
		Subtype:            item.Payload.Subtype,
	}
}

func TestAddItem_CurrentStartsUnsent(t *testing.T) {
	svc, _, _ := newTestService()

	item, err := svc.AddItem(context.Background(), ScopeCurrent, "R100", labPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Status != StatusUnsent {
		t.Errorf("expected status unsent, got %q", item.Status)
	}
	if item.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if item.DateAndTime.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestAddItem_ArchiveHasNoStatus(t *testing.T) {
	svc, _, _ := newTestService()

	item, err := svc.AddItem(context.Background(), ScopeArchive, "R100", imagingPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Status != "" {
		t.Errorf("archival item must carry no status, got %q", item.Status)
	}
}

func TestAddItem_UnknownPatient(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.AddItem(context.Background(), ScopeCurrent, "R404", labPayload())
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestAddItem_PayloadValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name    string
		payload Payload
	}{
		{"no kind", Payload{Type: "blood", Subtype: "CBC"}},
		{"bad lab type", Payload{Kind: KindLab, Type: "stool", Subtype: "x"}},
		{"bad imaging type", Payload{Kind: KindImaging, Type: "PET", Subtype: "x"}},
		{"lab type on imaging kind", Payload{Kind: KindImaging, Type: "blood", Subtype: "x"}},
		{"empty subtype", Payload{Kind: KindLab, Type: "urine"}},
	}
	for _, tc := range cases {
		if _, err := svc.AddItem(ctx, ScopeCurrent, "R100", tc.payload); !apperr.IsValidation(err) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestAddItem_DuplicatesAllowed(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, ScopeCurrent, "R100", labPayload()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.AddItem(ctx, ScopeCurrent, "R100", labPayload()); err != nil {
		t.Fatalf("repeated identical order must be accepted: %v", err)
	}

	_, total, err := svc.ListByPatient(ctx, ScopeCurrent, "R100", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 items, got %d", total)
	}
}

func TestAdvanceStatus(t *testing.T) {
	svc, current, _ := newTestService()
	ctx := context.Background()

	item, err := svc.AddItem(ctx, ScopeCurrent, "R100", labPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := svc.AdvanceStatus(ctx, keyOf(item), StatusSent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 affected, got %d", n)
	}
	if current.items[item.ID].Status != StatusSent {
		t.Errorf("status not written: %q", current.items[item.ID].Status)
	}

	// Backwards transition is permitted.
	if _, err := svc.AdvanceStatus(ctx, keyOf(item), StatusUnsent); err != nil {
		t.Fatalf("reverse transition rejected: %v", err)
	}
	if current.items[item.ID].Status != StatusUnsent {
		t.Errorf("status not written: %q", current.items[item.ID].Status)
	}
}

func TestAdvanceStatus_NoMatchIsNoop(t *testing.T) {
	svc, _, _ := newTestService()

	key := NaturalKey{
		RegistrationNumber: "R100",
		DateAndTime:        time.Now(),
		Kind:               KindLab,
		Type:               "blood",
		Subtype:            "CBC",
	}
	n, err := svc.AdvanceStatus(context.Background(), key, StatusCollected)
	if err != nil {
		t.Fatalf("zero matches must not be an error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 affected, got %d", n)
	}
}

func TestAdvanceStatus_UnknownStatus(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.AdvanceStatus(context.Background(), NaturalKey{}, "done")
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestEditSubtype(t *testing.T) {
	svc, current, _ := newTestService()
	ctx := context.Background()

	item, err := svc.AddItem(ctx, ScopeCurrent, "R100", labPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The lookup key carries the old subtype only implicitly; edits match on
	// kind and type.
	n, err := svc.EditSubtype(ctx, ScopeCurrent, keyOf(item), "LFT", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 affected, got %d", n)
	}
	if got := current.items[item.ID].Payload.Subtype; got != "LFT" {
		t.Errorf("subtype not written: %q", got)
	}
	if got := current.items[item.ID].Status; got != StatusUnsent {
		t.Errorf("status must be untouched, got %q", got)
	}
}

func TestEditSubtype_WithStatus(t *testing.T) {
	svc, current, _ := newTestService()
	ctx := context.Background()

	item, err := svc.AddItem(ctx, ScopeCurrent, "R100", imagingPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := svc.EditSubtype(ctx, ScopeCurrent, keyOf(item), "head contrast", StatusSent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 affected, got %d", n)
	}
	got := current.items[item.ID]
	if got.Payload.Subtype != "head contrast" || got.Status != StatusSent {
		t.Errorf("edit not applied: %+v", got)
	}
}

func TestEditSubtype_StatusRejectedOnArchive(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	item, err := svc.AddItem(ctx, ScopeArchive, "R100", labPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.EditSubtype(ctx, ScopeArchive, keyOf(item), "LFT", StatusSent)
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestEditSubtype_Archive(t *testing.T) {
	svc, _, archive := newTestService()
	ctx := context.Background()

	item, err := svc.AddItem(ctx, ScopeArchive, "R100", labPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := svc.EditSubtype(ctx, ScopeArchive, keyOf(item), "RFT", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 affected, got %d", n)
	}
	if got := archive.items[item.ID].Payload.Subtype; got != "RFT" {
		t.Errorf("subtype not written: %q", got)
	}
}

func TestDeleteItem(t *testing.T) {
	svc, current, _ := newTestService()
	ctx := context.Background()

	item, err := svc.AddItem(ctx, ScopeCurrent, "R100", labPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := svc.DeleteItem(ctx, ScopeCurrent, keyOf(item))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 affected, got %d", n)
	}
	if len(current.items) != 0 {
		t.Errorf("item not deleted")
	}

	// Deleting again matches nothing and succeeds.
	n, err = svc.DeleteItem(ctx, ScopeCurrent, keyOf(item))
	if err != nil || n != 0 {
		t.Errorf("expected (0, nil), got (%d, %v)", n, err)
	}
}

func TestDeleteItem_SubtypeMustMatch(t *testing.T) {
	svc, current, _ := newTestService()
	ctx := context.Background()

	item, err := svc.AddItem(ctx, ScopeCurrent, "R100", labPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	key := keyOf(item)
	key.Subtype = "LFT"
	n, err := svc.DeleteItem(ctx, ScopeCurrent, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("wrong subtype must match nothing, got %d", n)
	}
	if len(current.items) != 1 {
		t.Errorf("item must survive")
	}
}

func TestScopeValidation(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.AddItem(context.Background(), Scope("old"), "R100", labPayload())
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestService_NotInitialized(t *testing.T) {
	var svc Service

	_, err := svc.AddItem(context.Background(), ScopeCurrent, "R100", labPayload())
	if !errors.Is(err, apperr.ErrNotInitialized) {
		t.Errorf("expected not initialized, got %v", err)
	}
}
