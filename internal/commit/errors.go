package commit

import "fmt"

// Failure codes beyond the draft validation codes.
const (
	CodeInvalidDraft             = "invalid_draft"
	CodeProductConversionFailed  = "product_conversion_failed"
	CodeItemsNotPersisted        = "items_not_persisted"
	CodeCommitInProgress         = "commit_in_progress"
	CodeCustomerResolutionFailed = "customer_resolution_failed"
	CodeOrderCreationFailed      = "order_creation_failed"
	CodeConversationNotFound     = "conversation_not_found"
	CodeConversationClosed       = "conversation_closed"
	CodeStoreUnavailable         = "store_unavailable"
)

// Error is a terminal commit failure carrying a stable code.
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "commit: " + e.Code
	}
	return fmt.Sprintf("commit: %s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
