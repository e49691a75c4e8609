package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"whiteboard-backend/internal/event"
	"whiteboard-backend/internal/locking"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/store"
)

func (h *Handler) handleElement(ctx context.Context, subcategory string, body json.RawMessage) ServerMessage {
	switch subcategory {
	case "createelement":
		return h.handleCreateElement(ctx, body)
	case "removeelement":
		return h.handleRemoveElement(ctx, body)
	case "lockelement":
		return h.handleLockElement(ctx, body)
	case "unlockelement":
		return h.handleUnlockElement(ctx, body)
	case "lockelements":
		return h.handleLockElements(ctx, body)
	case "unlockelements":
		return h.handleUnlockElements(ctx, body)
	case "updateelement":
		return h.handleUpdateElement(ctx, body)
	case "moveelements":
		return h.handleMoveElements(ctx, body)
	default:
		return ErrorResponse("unknownelementcategory", "Element has no such subcategory")
	}
}

// ===== createelement =====

type createElementMessage struct {
	ID          string    `json:"_id"`
	UserID      string    `json:"userId"`
	Selected    bool      `json:"selected"`
	LockedBy    *string   `json:"lockedBy"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Rotation    float64   `json:"rotation"`
	ScaleX      float64   `json:"scaleX"`
	ScaleY      float64   `json:"scaleY"`
	ZIndex      int       `json:"zIndex"`
	CreatedAt   time.Time `json:"createdAt"`
	Text        string    `json:"text"`
	ElementType string    `json:"elementType"`
	BoardID     string    `json:"boardId"`
	Color       string    `json:"color"`
}

func (h *Handler) handleCreateElement(ctx context.Context, raw json.RawMessage) ServerMessage {
	var body createElementMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ErrorResponse("createelement", "Create Element Message is invalid")
	}

	element := model.Element{
		ID:          body.ID,
		BoardID:     body.BoardID,
		Selected:    body.Selected,
		LockedBy:    body.LockedBy,
		X:           body.X,
		Y:           body.Y,
		Rotation:    body.Rotation,
		ScaleX:      body.ScaleX,
		ScaleY:      body.ScaleY,
		ZIndex:      body.ZIndex,
		Text:        body.Text,
		ElementType: body.ElementType,
		Color:       body.Color,
		CreatedAt:   body.CreatedAt,
	}
	if err := h.store.Elements.Create(ctx, &element); err != nil {
		return ErrorResponseWithBody("createelement", "Element could not be created", body.ID)
	}

	body.ID = element.ID
	payload := mustJSON(body)
	h.contexts.Element.Emit(body.BoardID, event.ElementCreated, payload)
	return OkResponse("createelement", payload)
}

// ===== removeelement =====

type removeElementMessage struct {
	ID      string `json:"_id"`
	BoardID string `json:"boardId"`
	UserID  string `json:"userId"`
}

type elementRemovedEventPayload struct {
	ID     string `json:"_id"`
	UserID string `json:"userId"`
}

type elementIDMessage struct {
	ID string `json:"_id"`
}

func (h *Handler) handleRemoveElement(ctx context.Context, raw json.RawMessage) ServerMessage {
	var body removeElementMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ErrorResponse("removeelement", "Remove Element Message is invalid")
	}

	if err := h.store.Elements.Delete(ctx, body.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrorResponseWithBody("removeelement", "No Element found to delete", body.ID)
		}
		return ErrorResponseWithBody("removeelement", "Element could not be deleted", body.ID)
	}

	h.contexts.Element.Emit(body.BoardID, event.ElementRemoved,
		mustJSON(elementRemovedEventPayload{ID: body.ID, UserID: body.UserID}))
	return OkResponse("removeelement", mustJSON(elementIDMessage{ID: body.ID}))
}

// ===== lockelement / unlockelement =====

type lockElementMessage struct {
	ID      string `json:"_id"`
	UserID  string `json:"userId"`
	BoardID string `json:"boardId"`
}

type elementLockedMessage struct {
	ID     string `json:"_id"`
	UserID string `json:"userId"`
}

type selfLockedMessage struct {
	ID      string `json:"_id"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

func (h *Handler) handleLockElement(ctx context.Context, raw json.RawMessage) ServerMessage {
	var body lockElementMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ErrorResponse("lockelement", "Lock Element Message is invalid")
	}

	element, err := h.store.Elements.GetByID(ctx, body.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrorResponseWithBody("lockelement", "Element not found", body.ID)
		}
		return ErrorResponseWithBody("lockelement", "Error during Element existing check", body.ID)
	}

	switch err := locking.Acquire(element, body.UserID); {
	case errors.Is(err, locking.ErrAlreadySelfLocked):
		// 자기 락 재획득은 멱등 성공: 상태 변화도 이벤트도 없다
		return OkResponse("lockelement", mustJSON(selfLockedMessage{
			ID:      body.ID,
			UserID:  body.UserID,
			Message: err.Error(),
		}))
	case err != nil:
		return ErrorResponseWithBody("lockelement", err.Error(), body.ID)
	}

	if _, err := h.store.Elements.Update(ctx, body.ID, store.ElementUpdate{LockedBy: &body.UserID}); err != nil {
		return ErrorResponseWithBody("lockelement", "Element could not be locked", body.ID)
	}

	h.contexts.Element.Emit(body.BoardID, event.ElementLocked,
		mustJSON(elementLockedMessage{ID: body.ID, UserID: body.UserID}))
	return OkResponse("lockelement", mustJSON(elementLockedMessage{ID: body.ID, UserID: body.UserID}))
}

func (h *Handler) handleUnlockElement(ctx context.Context, raw json.RawMessage) ServerMessage {
	var body lockElementMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ErrorResponse("unlockelement", "Unlock Element Message is invalid")
	}

	element, err := h.store.Elements.GetByID(ctx, body.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrorResponseWithBody("unlockelement", "Element not found", body.ID)
		}
		return ErrorResponseWithBody("unlockelement", "Error during Element existing check", body.ID)
	}

	if err := locking.Release(element, body.UserID); err != nil {
		return ErrorResponseWithBody("unlockelement", err.Error(), body.ID)
	}

	if _, err := h.store.Elements.Update(ctx, body.ID, store.ElementUpdate{ClearLock: true}); err != nil {
		return ErrorResponseWithBody("unlockelement", "Element could not be unlocked", body.ID)
	}

	h.contexts.Element.Emit(body.BoardID, event.ElementUnlocked,
		mustJSON(elementIDMessage{ID: body.ID}))
	return OkResponse("unlockelement", mustJSON(elementIDMessage{ID: body.ID}))
}

// ===== lockelements / unlockelements =====

type batchLockMessage struct {
	IDs     []string `json:"ids"`
	UserID  string   `json:"userId"`
	BoardID string   `json:"boardId"`
}

type elementsLockedMessage struct {
	IDs    []string `json:"ids"`
	UserID string   `json:"userId"`
}

type elementsUnlockedMessage struct {
	IDs []string `json:"ids"`
}

// fetchBatch resolves the requested ids to existing elements, silently
// skipping missing ones like a database IN query would.
func (h *Handler) fetchBatch(ctx context.Context, ids []string) []model.Element {
	elements := make([]model.Element, 0, len(ids))
	for _, id := range ids {
		element, err := h.store.Elements.GetByID(ctx, id)
		if err != nil {
			continue
		}
		elements = append(elements, *element)
	}
	return elements
}

func (h *Handler) handleLockElements(ctx context.Context, raw json.RawMessage) ServerMessage {
	var body batchLockMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ErrorResponse("lockelements", "Lock Elements Message is invalid")
	}
	idsJSON := mustJSON(body.IDs)

	found := h.fetchBatch(ctx, body.IDs)
	if len(found) == 0 {
		return ErrorResponseWithBody("lockelements", "No Elements found", idsJSON)
	}
	if err := locking.CheckBatchAcquire(found, body.UserID); err != nil {
		return ErrorResponseWithBody("lockelements", err.Error(), idsJSON)
	}

	for _, element := range found {
		if _, err := h.store.Elements.Update(ctx, element.ID, store.ElementUpdate{LockedBy: &body.UserID}); err != nil {
			return ErrorResponseWithBody("lockelements",
				fmt.Sprintf("Lock of Element with ID %s failed", element.ID), idsJSON)
		}
	}

	for _, id := range body.IDs {
		h.contexts.Element.Emit(body.BoardID, event.ElementLocked,
			mustJSON(elementLockedMessage{ID: id, UserID: body.UserID}))
	}
	return OkResponse("lockelements", mustJSON(elementsLockedMessage{IDs: body.IDs, UserID: body.UserID}))
}

func (h *Handler) handleUnlockElements(ctx context.Context, raw json.RawMessage) ServerMessage {
	var body batchLockMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ErrorResponse("unlockelements", "Unlock Elements Message is invalid")
	}
	idsJSON := mustJSON(body.IDs)

	found := h.fetchBatch(ctx, body.IDs)
	if len(found) == 0 {
		return ErrorResponseWithBody("unlockelements", "No Elements found", idsJSON)
	}
	if err := locking.CheckBatchRelease(found, body.UserID); err != nil {
		return ErrorResponseWithBody("unlockelements", err.Error(), idsJSON)
	}

	for _, element := range found {
		if _, err := h.store.Elements.Update(ctx, element.ID, store.ElementUpdate{ClearLock: true}); err != nil {
			return ErrorResponseWithBody("unlockelements",
				fmt.Sprintf("Unlock of Element with ID %s failed", element.ID), idsJSON)
		}
	}

	for _, id := range body.IDs {
		h.contexts.Element.Emit(body.BoardID, event.ElementUnlocked,
			mustJSON(elementIDMessage{ID: id}))
	}
	return OkResponse("unlockelements", mustJSON(elementsUnlockedMessage{IDs: body.IDs}))
}

// ===== updateelement =====

type updateElementMessage struct {
	ID       string   `json:"_id"`
	UserID   string   `json:"userId"`
	BoardID  string   `json:"boardId"`
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Rotation *float64 `json:"rotation"`
	ScaleX   *float64 `json:"scaleX"`
	ScaleY   *float64 `json:"scaleY"`
	ZIndex   *int     `json:"zIndex"`
	Text     *string  `json:"text"`
	Color    *string  `json:"color"`
}

type updatedElementEventPayload struct {
	ID       string   `json:"_id"`
	UserID   string   `json:"userId"`
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Rotation *float64 `json:"rotation"`
	ScaleX   *float64 `json:"scaleX"`
	ScaleY   *float64 `json:"scaleY"`
	ZIndex   *int     `json:"zIndex"`
	Text     *string  `json:"text"`
	Color    *string  `json:"color"`
}

type elementUpdatedMessage struct {
	ID string `json:"id"`
}

func (h *Handler) handleUpdateElement(ctx context.Context, raw json.RawMessage) ServerMessage {
	var body updateElementMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ErrorResponse("updateelement", "Update Element Message is invalid")
	}
	idJSON := mustJSON(elementUpdatedMessage{ID: body.ID})

	element, err := h.store.Elements.GetByID(ctx, body.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrorResponseWithBody("updateelement",
				fmt.Sprintf("No Element found with ID: %s", body.ID), idJSON)
		}
		return ErrorResponseWithBody("updateelement", "Error during Element fetching", idJSON)
	}

	if err := locking.CheckMutate(element, body.UserID); err != nil {
		return ErrorResponseWithBody("updateelement", err.Error(), idJSON)
	}

	update := store.ElementUpdate{
		X:        body.X,
		Y:        body.Y,
		Rotation: body.Rotation,
		ScaleX:   body.ScaleX,
		ScaleY:   body.ScaleY,
		ZIndex:   body.ZIndex,
		Text:     body.Text,
		Color:    body.Color,
	}
	if _, err := h.store.Elements.Update(ctx, body.ID, update); err != nil {
		return ErrorResponseWithBody("updateelement", "Could not update Element", idJSON)
	}

	h.contexts.Element.Emit(body.BoardID, event.ElementUpdated,
		mustJSON(updatedElementEventPayload{
			ID:       body.ID,
			UserID:   body.UserID,
			X:        body.X,
			Y:        body.Y,
			Rotation: body.Rotation,
			ScaleX:   body.ScaleX,
			ScaleY:   body.ScaleY,
			ZIndex:   body.ZIndex,
			Text:     body.Text,
			Color:    body.Color,
		}))
	return OkResponse("updateelement", idJSON)
}

// ===== moveelements =====

type moveElementsMessage struct {
	IDs     []string `json:"ids"`
	UserID  string   `json:"userId"`
	BoardID string   `json:"boardId"`
	XOffset float64  `json:"xOffset"`
	YOffset float64  `json:"yOffset"`
}

type elementsMovedMessage struct {
	IDs []string `json:"ids"`
}

type elementMovedEventPayload struct {
	ID      string  `json:"_id"`
	UserID  string  `json:"userId"`
	XOffset float64 `json:"xOffset"`
	YOffset float64 `json:"yOffset"`
}

func (h *Handler) handleMoveElements(ctx context.Context, raw json.RawMessage) ServerMessage {
	var body moveElementsMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ErrorResponse("moveelements", "Move Elements Message is invalid")
	}
	idsJSON := mustJSON(body.IDs)

	found := h.fetchBatch(ctx, body.IDs)
	if len(found) == 0 {
		return ErrorResponseWithBody("moveelements", "No Elements found", idsJSON)
	}
	if err := locking.CheckBatchAcquire(found, body.UserID); err != nil {
		return ErrorResponseWithBody("moveelements", "Some Element is locked by someone else", idsJSON)
	}

	// 이동은 암묵적으로 락을 잡는다
	for _, element := range found {
		x := element.X + body.XOffset
		y := element.Y + body.YOffset
		update := store.ElementUpdate{X: &x, Y: &y, LockedBy: &body.UserID}
		if _, err := h.store.Elements.Update(ctx, element.ID, update); err != nil {
			return ErrorResponseWithBody("moveelements",
				fmt.Sprintf("Move of Element with ID %s failed", element.ID), idsJSON)
		}
	}

	for _, id := range body.IDs {
		h.contexts.Element.Emit(body.BoardID, event.ElementMoved,
			mustJSON(elementMovedEventPayload{
				ID:      id,
				UserID:  body.UserID,
				XOffset: body.XOffset,
				YOffset: body.YOffset,
			}))
	}
	return OkResponse("moveelements", mustJSON(elementsMovedMessage{IDs: body.IDs}))
}
