package app

import (
	"context"
	"fmt"
	"strconv"

	"chat_delivery_service/internal/chat/domain"
	"chat_delivery_service/pkg/cache"

	"github.com/google/uuid"
)

// cache key layout
//
//	conversation:detail:<caller>:<conversation>
//	conversation:list:<caller>:archived=<a>;page=<p>;size=<s>;search=<q>
const (
	detailPrefix = "conversation:detail:"
	listPrefix   = "conversation:list:"
)

func detailKey(caller, conversationID uuid.UUID) string {
	return detailPrefix + caller.String() + ":" + conversationID.String()
}

func listKey(caller uuid.UUID, f domain.ConversationFilter) string {
	archived := "any"
	if f.Archived != nil {
		archived = strconv.FormatBool(*f.Archived)
	}
	return fmt.Sprintf("%s%s:archived=%s;page=%d;size=%d;search=%s",
		listPrefix, caller, archived, f.Page, f.PageSize, strconv.Quote(f.Search))
}

// invalidateMembers drop every detail and list entry of the given members for one conversation
func invalidateMembers(ctx context.Context, store cache.Store, conversationID uuid.UUID, members []uuid.UUID) {
	prefixes := make([]string, 0, len(members)*2)
	for _, m := range members {
		prefixes = append(prefixes, detailKey(m, conversationID), listPrefix+m.String()+":")
	}
	cache.InvalidateByPrefix(ctx, store, prefixes...)
}

// invalidateLists drop list entries only, used on create
func invalidateLists(ctx context.Context, store cache.Store, members []uuid.UUID) {
	prefixes := make([]string, 0, len(members))
	for _, m := range members {
		prefixes = append(prefixes, listPrefix+m.String()+":")
	}
	cache.InvalidateByPrefix(ctx, store, prefixes...)
}
