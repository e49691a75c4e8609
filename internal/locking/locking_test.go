package locking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"whiteboard-backend/internal/model"
)

func element(lockedBy string) *model.Element {
	el := &model.Element{ID: "e1", BoardID: "b1"}
	if lockedBy != "" {
		el.LockedBy = &lockedBy
	}
	return el
}

func TestAcquire(t *testing.T) {
	tests := []struct {
		name     string
		lockedBy string
		userID   string
		want     error
	}{
		{"unlocked element", "", "u1", nil},
		{"own lock is idempotent", "u1", "u1", ErrAlreadySelfLocked},
		{"foreign lock conflicts", "u2", "u1", ErrLockedByOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Acquire(element(tt.lockedBy), tt.userID))
		})
	}
}

func TestRelease(t *testing.T) {
	tests := []struct {
		name     string
		lockedBy string
		userID   string
		want     error
	}{
		{"own lock releases", "u1", "u1", nil},
		{"unlocked element rejects", "", "u1", ErrAlreadyUnlocked},
		{"foreign lock conflicts", "u2", "u1", ErrHeldByOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Release(element(tt.lockedBy), tt.userID))
		})
	}
}

func TestCheckMutate(t *testing.T) {
	tests := []struct {
		name     string
		lockedBy string
		userID   string
		want     error
	}{
		{"own lock allows mutation", "u1", "u1", nil},
		{"unlocked element needs lock", "", "u1", ErrNotLocked},
		{"foreign lock conflicts", "u2", "u1", ErrHeldByOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckMutate(element(tt.lockedBy), tt.userID))
		})
	}
}

func TestCheckBatchAcquire(t *testing.T) {
	own := "u1"
	other := "u2"

	elements := []model.Element{
		{ID: "e1"},
		{ID: "e2", LockedBy: &own},
	}
	assert.NoError(t, CheckBatchAcquire(elements, "u1"))

	elements = append(elements, model.Element{ID: "e3", LockedBy: &other})
	assert.Equal(t, ErrBatchLockConflict, CheckBatchAcquire(elements, "u1"))
}

func TestCheckBatchRelease(t *testing.T) {
	own := "u1"
	other := "u2"

	elements := []model.Element{
		{ID: "e1"},
		{ID: "e2", LockedBy: &own},
	}
	assert.NoError(t, CheckBatchRelease(elements, "u1"))

	elements = append(elements, model.Element{ID: "e3", LockedBy: &other})
	assert.Equal(t, ErrBatchUnlockConflict, CheckBatchRelease(elements, "u1"))
}

func TestBatchCheckEmptySlice(t *testing.T) {
	assert.NoError(t, CheckBatchAcquire(nil, "u1"))
	assert.NoError(t, CheckBatchRelease(nil, "u1"))
}
