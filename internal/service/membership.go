package service

import (
	"context"

	"whiteboard-backend/internal/store"
)

// MembershipService 보드 멤버십/호스트 관련 비즈니스 로직
type MembershipService struct {
	store *store.Store
}

// NewMembershipService MembershipService 생성
func NewMembershipService(st *store.Store) *MembershipService {
	return &MembershipService{store: st}
}

// IsBoardMember 보드 멤버 여부 확인
func (s *MembershipService) IsBoardMember(ctx context.Context, boardID, userID string) bool {
	board, err := s.store.Boards.GetByID(ctx, boardID)
	if err != nil {
		return false
	}
	return board.HasMember(userID)
}

// IsBoardHost 보드 호스트 여부 확인
func (s *MembershipService) IsBoardHost(ctx context.Context, boardID, userID string) bool {
	board, err := s.store.Boards.GetByID(ctx, boardID)
	if err != nil {
		return false
	}
	return board.Host == userID
}

// BoardExists 보드 존재 여부 확인
func (s *MembershipService) BoardExists(ctx context.Context, boardID string) bool {
	_, err := s.store.Boards.GetByID(ctx, boardID)
	return err == nil
}
