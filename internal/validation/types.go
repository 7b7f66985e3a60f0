package validation

import "encoding/json"

// StartConversationRequest is the payload for POST /restaurants/:restaurant_id/conversations
type StartConversationRequest struct {
	Phone string `json:"phone" validate:"required,min=8,max=64"` // raw phone, may carry a -suffix
}

// ToolCallRequest is the payload for POST /conversations/:conversation_id/tools
type ToolCallRequest struct {
	Name      string          `json:"name" validate:"required,oneof=list_products create_draft_order confirm_order"`
	Arguments json.RawMessage `json:"arguments"`
}
