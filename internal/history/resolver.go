package history

import (
	"context"
	"time"

	"github.com/matheus3301/wpphist/internal/wid"
	"go.uber.org/zap"
)

// ChatResolver implements get-or-create semantics for chat entities.
type ChatResolver struct {
	addresses AddressResolver
	creator   ChatCreator
	cache     ChatCache
	groups    GroupMetadataFinder
	timeout   time.Duration
	logger    *zap.Logger
}

// NewChatResolver creates a resolver. A nil AddressResolver defaults to wid.Resolve.
func NewChatResolver(addresses AddressResolver, creator ChatCreator, cache ChatCache, groups GroupMetadataFinder, timeout time.Duration, logger *zap.Logger) *ChatResolver {
	if addresses == nil {
		addresses = AddressResolverFunc(wid.Resolve)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatResolver{
		addresses: addresses,
		creator:   creator,
		cache:     cache,
		groups:    groups,
		timeout:   timeout,
		logger:    logger,
	}
}

type createResult struct {
	ref     *ChatRef
	created bool
}

// Resolve returns the live chat entity for address, creating the chat if it
// does not exist yet. Group chats get their metadata fetched before return.
func (r *ChatResolver) Resolve(ctx context.Context, address string) (*Chat, error) {
	id, err := r.addresses.Resolve(address)
	if err != nil {
		return nil, err
	}

	res, err := callBounded(ctx, r.timeout, func(ctx context.Context) (createResult, error) {
		ref, created, err := r.creator.FindOrCreateLatestChat(ctx, id, NewChatFlowTag)
		return createResult{ref: ref, created: created}, err
	})
	if err != nil {
		return nil, err
	}
	if res.ref == nil || res.ref.ID.IsZero() {
		return nil, &NotFoundError{Stage: StageCreate, Address: id.String()}
	}
	r.logger.Debug("chat resolved",
		zap.String("chat", res.ref.ID.String()),
		zap.Bool("created", res.created),
	)

	chat := r.cache.Get(res.ref.ID)
	if chat == nil {
		return nil, &NotFoundError{Stage: StageLookup, Address: id.String()}
	}

	if chat.IsGroup() {
		meta, err := callBounded(ctx, r.timeout, func(ctx context.Context) (*GroupMetadata, error) {
			return r.groups.Find(ctx, chat.ID)
		})
		if err != nil {
			return nil, err
		}
		chat.SetGroupMetadata(meta)
	}

	return chat, nil
}
