// Package locking holds the element lock rules. The functions are pure
// checks over the current element state, callers persist the outcome and
// emit events.
package locking

import (
	"errors"

	"whiteboard-backend/internal/model"
)

// Sentinel errors carry the protocol-facing messages verbatim.
var (
	// ErrAlreadySelfLocked signals a re-lock by the current owner. Callers
	// treat it as an idempotent success: no state change, no event.
	ErrAlreadySelfLocked = errors.New("Element already locked by yourself")

	// ErrLockedByOther rejects a lock attempt on a foreign-held element.
	ErrLockedByOther = errors.New("Element already locked by someone else")

	// ErrHeldByOther rejects unlock or mutation of a foreign-held element.
	ErrHeldByOther = errors.New("Element currently locked by someone else")

	// ErrAlreadyUnlocked rejects unlocking an element nobody holds.
	ErrAlreadyUnlocked = errors.New("Element already unlocked")

	// ErrNotLocked rejects mutation of an element the user has not locked.
	ErrNotLocked = errors.New("Element needs to be locked first")

	// ErrBatchLockConflict aborts a batch lock when any element is foreign-held.
	ErrBatchLockConflict = errors.New("Some Element is locked by another user")

	// ErrBatchUnlockConflict aborts a batch unlock when any element is foreign-held.
	ErrBatchUnlockConflict = errors.New("Some element is locked by another user")
)

// Acquire checks whether userID may take the lock on the element.
func Acquire(element *model.Element, userID string) error {
	if element.LockedBy == nil {
		return nil
	}
	if *element.LockedBy == userID {
		return ErrAlreadySelfLocked
	}
	return ErrLockedByOther
}

// Release checks whether userID may release the element's lock.
func Release(element *model.Element, userID string) error {
	if element.LockedBy == nil {
		return ErrAlreadyUnlocked
	}
	if *element.LockedBy != userID {
		return ErrHeldByOther
	}
	return nil
}

// CheckMutate checks whether userID may change the element's geometry or
// content. Mutation requires holding the lock.
func CheckMutate(element *model.Element, userID string) error {
	if element.LockedBy == nil {
		return ErrNotLocked
	}
	if *element.LockedBy != userID {
		return ErrHeldByOther
	}
	return nil
}

// CheckBatchAcquire validates a batch lock up front: every element must
// be unlocked or already held by the user.
func CheckBatchAcquire(elements []model.Element, userID string) error {
	for i := range elements {
		if elements[i].LockedByOther(userID) {
			return ErrBatchLockConflict
		}
	}
	return nil
}

// CheckBatchRelease validates a batch unlock up front: no element may be
// held by another user.
func CheckBatchRelease(elements []model.Element, userID string) error {
	for i := range elements {
		if elements[i].LockedByOther(userID) {
			return ErrBatchUnlockConflict
		}
	}
	return nil
}
