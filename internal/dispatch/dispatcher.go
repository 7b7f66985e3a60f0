// Package dispatch is the per-turn entry point of the dialogue driver. It routes a named
// tool call to the catalog, the draft store or the commit engine and shapes the result.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alebbueno/pedidos-saas-sub000/internal/audit"
	"github.com/alebbueno/pedidos-saas-sub000/internal/catalog"
	"github.com/alebbueno/pedidos-saas-sub000/internal/commit"
	"github.com/alebbueno/pedidos-saas-sub000/internal/conversations"
	"github.com/alebbueno/pedidos-saas-sub000/internal/draft"
	"github.com/alebbueno/pedidos-saas-sub000/internal/validation"
)

var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

type Catalog interface {
	ActiveByRestaurant(ctx context.Context, restaurantID string) ([]catalog.Product, error)
}

type Resolver interface {
	Resolve(ctx context.Context, restaurantID, ref string) (catalog.Resolution, error)
}

type DraftWriter interface {
	Replace(ctx context.Context, conversationID string, d draft.Draft) (*draft.Draft, error)
}

type Committer interface {
	Commit(ctx context.Context, req commit.Request) (*commit.Result, error)
}

type ActivityToucher interface {
	Touch(ctx context.Context, conversationID string) error
}

type Dispatcher struct {
	catalog   Catalog
	resolver  Resolver
	drafts    DraftWriter
	committer Committer
	activity  ActivityToucher
	validate  *validatorv10.Validate
	audit     audit.Sink
	logger    *zap.Logger
}

// New returns a Dispatcher. activity and sink may be nil.
func New(cat Catalog, resolver Resolver, drafts DraftWriter, committer Committer, activity ActivityToucher, sink audit.Sink, logger *zap.Logger) *Dispatcher {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &Dispatcher{
		catalog:   cat,
		resolver:  resolver,
		drafts:    drafts,
		committer: committer,
		activity:  activity,
		validate:  validation.New(),
		audit:     sink,
		logger:    logger.Named("dispatch"),
	}
}

// Dispatch runs one tool call and returns its JSON-serializable result with the updated
// context. An error is returned only for unknown tools and undecodable arguments.
func (d *Dispatcher) Dispatch(ctx context.Context, cc ConversationContext, call ToolCall) (any, ConversationContext, error) {
	start := time.Now()
	entry := audit.Entry{
		Tool:           call.Name,
		RestaurantID:   cc.RestaurantID,
		ConversationID: cc.ConversationID,
	}

	var (
		result any
		next   = cc
	)
	switch call.Name {
	case ToolListProducts:
		var args ListProductsArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, cc, err
		}
		res := d.ListProducts(ctx, cc, args)
		entry.Success, entry.Code = res.Error == "", res.Error
		result = res
		d.touch(ctx, cc)

	case ToolCreateDraftOrder:
		var args draft.Draft
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, cc, err
		}
		var res DraftResult
		res, next = d.CreateDraftOrder(ctx, cc, args)
		entry.Success, entry.Code = res.Success, res.Error
		result = res
		if !res.Success {
			d.touch(ctx, cc)
		}

	case ToolConfirmOrder:
		var args ConfirmArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, cc, err
		}
		if args.IdempotencyKey == "" {
			args.IdempotencyKey = call.IdempotencyKey
		}
		var res ConfirmResult
		res, next = d.ConfirmOrder(ctx, cc, args)
		entry.Success, entry.Code, entry.OrderID = res.Success, res.Error, res.OrderID
		result = res
		if !res.Success {
			d.touch(ctx, cc)
		}

	default:
		return nil, cc, fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)
	}

	entry.DurationMs = time.Since(start).Milliseconds()
	d.audit.Record(ctx, entry)
	d.logger.Info("tool call dispatched",
		zap.String("tool", call.Name),
		zap.String("conversation_id", cc.ConversationID),
		zap.Bool("success", entry.Success),
		zap.String("code", entry.Code),
		zap.Int64("duration_ms", entry.DurationMs))
	return result, next, nil
}

// ListProducts returns the restaurant's active catalog narrowed by category and search.
func (d *Dispatcher) ListProducts(ctx context.Context, cc ConversationContext, args ListProductsArgs) ListProductsResult {
	products, err := d.catalog.ActiveByRestaurant(ctx, cc.RestaurantID)
	if err != nil {
		d.logger.Error("list products failed", zap.String("restaurant_id", cc.RestaurantID), zap.Error(err))
		return ListProductsResult{Products: []catalog.Product{}, Error: commit.CodeStoreUnavailable}
	}
	return ListProductsResult{Products: catalog.Filter(products, args.Category, args.Search)}
}

// CreateDraftOrder validates and resolves the proposed draft, then replaces the stored
// one. A failing call leaves the stored draft untouched.
func (d *Dispatcher) CreateDraftOrder(ctx context.Context, cc ConversationContext, proposed draft.Draft) (DraftResult, ConversationContext) {
	if code := draft.Validate(&proposed); code != "" {
		return draftFailure(code), cc
	}
	if err := d.validate.Struct(proposed); err != nil {
		d.logger.Info("draft rejected",
			zap.String("conversation_id", cc.ConversationID),
			zap.String("fields", validation.Summary(err)))
		return draftFailure(CodeInvalidDraft), cc
	}

	items := make([]draft.Item, len(proposed.Items))
	for i, it := range proposed.Items {
		res, err := d.resolver.Resolve(ctx, cc.RestaurantID, it.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, catalog.ErrUnresolved) {
				return draftFailure(commit.CodeProductConversionFailed), cc
			}
			d.logger.Error("resolve product failed", zap.String("reference", it.ProductID), zap.Error(err))
			return draftFailure(commit.CodeStoreUnavailable), cc
		}
		it.ProductID = res.ProductID
		if it.ProductName == "" {
			it.ProductName = res.Name
		}
		items[i] = it
	}
	proposed.Items = items

	stored, err := d.drafts.Replace(ctx, cc.ConversationID, proposed)
	if err != nil {
		if errors.Is(err, conversations.ErrNotFound) {
			return draftFailure(commit.CodeConversationNotFound), cc
		}
		if errors.Is(err, conversations.ErrNotActive) {
			return draftFailure(commit.CodeConversationClosed), cc
		}
		d.logger.Error("replace draft failed", zap.String("conversation_id", cc.ConversationID), zap.Error(err))
		return draftFailure(commit.CodeStoreUnavailable), cc
	}

	cc.Draft = stored
	return DraftResult{Success: true, Message: msgDraftSaved, Draft: stored}, cc
}

// ConfirmOrder commits the stored draft when the customer confirmed it.
func (d *Dispatcher) ConfirmOrder(ctx context.Context, cc ConversationContext, args ConfirmArgs) (ConfirmResult, ConversationContext) {
	if !args.Confirmed {
		return ConfirmResult{Success: false, Message: message(CodeNotConfirmed), Error: CodeNotConfirmed}, cc
	}

	res, err := d.committer.Commit(ctx, commit.Request{
		RestaurantID:   cc.RestaurantID,
		ConversationID: cc.ConversationID,
		CustomerID:     cc.CustomerID,
		Phone:          cc.Phone,
		IdempotencyKey: args.IdempotencyKey,
	})
	if err != nil {
		code := commit.CodeStoreUnavailable
		var ce *commit.Error
		if errors.As(err, &ce) {
			code = ce.Code
		}
		return ConfirmResult{Success: false, Message: message(code), Error: code}, cc
	}

	if res.CustomerID != "" {
		cc.CustomerID = res.CustomerID
	}
	msg := fmt.Sprintf(msgOrderConfirmed, res.OrderNumber)
	if res.Duplicate {
		msg = fmt.Sprintf(msgAlreadyConfirmed, res.OrderNumber)
	} else {
		cc.Draft = nil
		cc.Status = conversations.StatusCompleted
	}
	return ConfirmResult{
		Success:     true,
		Message:     msg,
		OrderID:     res.OrderID,
		OrderNumber: res.OrderNumber,
	}, cc
}

func draftFailure(code string) DraftResult {
	return DraftResult{Success: false, Message: message(code), Error: code}
}

// decodeArgs treats missing arguments as an empty object.
func decodeArgs(raw json.RawMessage, out any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}

func (d *Dispatcher) touch(ctx context.Context, cc ConversationContext) {
	if d.activity == nil {
		return
	}
	if err := d.activity.Touch(ctx, cc.ConversationID); err != nil {
		d.logger.Warn("touch conversation failed", zap.String("conversation_id", cc.ConversationID), zap.Error(err))
	}
}
