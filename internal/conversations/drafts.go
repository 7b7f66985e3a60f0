package conversations

import (
	"context"

	"github.com/alebbueno/pedidos-saas-sub000/internal/draft"
)

// DraftStore is the draft view of a conversation. There is no partial update: callers
// resend the whole draft every turn.
type DraftStore struct {
	store *Store
}

// Drafts returns the DraftStore backed by s.
func (s *Store) Drafts() *DraftStore {
	return &DraftStore{store: s}
}

// Replace overwrites the draft of a conversation and returns the stored value.
func (d *DraftStore) Replace(ctx context.Context, conversationID string, value draft.Draft) (*draft.Draft, error) {
	return d.store.ReplaceDraft(ctx, conversationID, value)
}

// Read returns the current draft, or nil when none is stored.
func (d *DraftStore) Read(ctx context.Context, conversationID string) (*draft.Draft, error) {
	return d.store.ReadDraft(ctx, conversationID)
}
