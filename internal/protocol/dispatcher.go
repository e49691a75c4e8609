package protocol

import (
	"context"
	"strings"

	"whiteboard-backend/internal/event"
	"whiteboard-backend/internal/store"
)

// Handler dispatches client frames to the per-category message handlers.
type Handler struct {
	store    *store.Store
	contexts *event.Contexts
}

func NewHandler(st *store.Store, contexts *event.Contexts) *Handler {
	return &Handler{store: st, contexts: contexts}
}

// Dispatch routes a client message by its type. The type is split on the
// first underscore into category and subcategory, e.g.
// "element_lockelement" → ("element", "lockelement").
func (h *Handler) Dispatch(ctx context.Context, msg ClientMessage) ServerMessage {
	category, subcategory, found := strings.Cut(msg.MessageType, "_")
	if !found {
		return ErrorResponse("messagetypeparsing", "No actual message type provided")
	}

	switch category {
	case "board":
		return h.handleBoard(ctx, subcategory, msg.Body)
	case "element":
		return h.handleElement(ctx, subcategory, msg.Body)
	case "activemember":
		return h.handleActiveMember(ctx, subcategory, msg.Body)
	default:
		return ErrorResponse("messagecategory", "Message Main Category unknown")
	}
}
