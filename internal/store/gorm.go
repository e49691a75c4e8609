package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"whiteboard-backend/internal/model"
)

// NewGormStore wires every entity store onto the same gorm connection.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:         &gormUserStore{db: db},
		Boards:        &gormBoardStore{db: db},
		Elements:      &gormElementStore{db: db},
		ActiveMembers: &gormActiveMemberStore{db: db},
		Clients:       &gormClientStore{db: db},
		ElementTypes:  &gormElementTypeStore{db: db},
	}
}

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ===== User =====

type gormUserStore struct {
	db *gorm.DB
}

func (s *gormUserStore) Create(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *gormUserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (s *gormUserStore) GetByName(ctx context.Context, name string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "name = ?", name).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (s *gormUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (s *gormUserStore) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *gormUserStore) Update(ctx context.Context, user *model.User) error {
	result := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"name":          user.Name,
			"email":         user.Email,
			"active_client": user.ActiveClient,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormUserStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&model.User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ===== Board =====

type gormBoardStore struct {
	db *gorm.DB
}

func (s *gormBoardStore) Create(ctx context.Context, board *model.Board) error {
	return s.db.WithContext(ctx).Create(board).Error
}

func (s *gormBoardStore) GetByID(ctx context.Context, id string) (*model.Board, error) {
	var board model.Board
	if err := s.db.WithContext(ctx).First(&board, "id = ?", id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &board, nil
}

func (s *gormBoardStore) ListByMember(ctx context.Context, userID string) ([]model.Board, error) {
	var boards []model.Board
	// jsonb 배열 포함 검사
	err := s.db.WithContext(ctx).
		Where("allowed_members @> ?", `"`+userID+`"`).
		Find(&boards).Error
	if err != nil {
		return nil, err
	}
	return boards, nil
}

func (s *gormBoardStore) UpdateMembers(ctx context.Context, id string, members []string) error {
	board := model.Board{AllowedMembers: members}
	result := s.db.WithContext(ctx).Model(&model.Board{}).
		Where("id = ?", id).
		Select("allowed_members").
		Updates(&board)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormBoardStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&model.Board{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ===== Element =====

type gormElementStore struct {
	db *gorm.DB
}

func (s *gormElementStore) Create(ctx context.Context, element *model.Element) error {
	return s.db.WithContext(ctx).Create(element).Error
}

func (s *gormElementStore) GetByID(ctx context.Context, id string) (*model.Element, error) {
	var element model.Element
	if err := s.db.WithContext(ctx).First(&element, "id = ?", id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &element, nil
}

func (s *gormElementStore) ListByBoard(ctx context.Context, boardID string) ([]model.Element, error) {
	var elements []model.Element
	err := s.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("z_index asc").
		Find(&elements).Error
	if err != nil {
		return nil, err
	}
	return elements, nil
}

func (s *gormElementStore) Update(ctx context.Context, id string, update ElementUpdate) (*model.Element, error) {
	fields := map[string]interface{}{}
	if update.X != nil {
		fields["x"] = *update.X
	}
	if update.Y != nil {
		fields["y"] = *update.Y
	}
	if update.Rotation != nil {
		fields["rotation"] = *update.Rotation
	}
	if update.ScaleX != nil {
		fields["scale_x"] = *update.ScaleX
	}
	if update.ScaleY != nil {
		fields["scale_y"] = *update.ScaleY
	}
	if update.ZIndex != nil {
		fields["z_index"] = *update.ZIndex
	}
	if update.Text != nil {
		fields["text"] = *update.Text
	}
	if update.Color != nil {
		fields["color"] = *update.Color
	}
	if update.ElementType != nil {
		fields["element_type"] = *update.ElementType
	}
	if update.Selected != nil {
		fields["selected"] = *update.Selected
	}
	if update.ClearLock {
		fields["locked_by"] = nil
	} else if update.LockedBy != nil {
		fields["locked_by"] = *update.LockedBy
	}

	if len(fields) > 0 {
		result := s.db.WithContext(ctx).Model(&model.Element{}).
			Where("id = ?", id).
			Updates(fields)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	return s.GetByID(ctx, id)
}

func (s *gormElementStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&model.Element{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormElementStore) ReleaseAllLocks(ctx context.Context, userID, boardID string) ([]string, error) {
	var released []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&model.Element{}).
			Where("board_id = ? AND locked_by = ?", boardID, userID).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Model(&model.Element{}).
			Where("id IN ?", ids).
			Update("locked_by", nil).Error; err != nil {
			return err
		}
		released = ids
		return nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

// ===== ActiveMember =====

type gormActiveMemberStore struct {
	db *gorm.DB
}

func (s *gormActiveMemberStore) Create(ctx context.Context, member *model.ActiveMember) error {
	return s.db.WithContext(ctx).Create(member).Error
}

func (s *gormActiveMemberStore) GetByID(ctx context.Context, id string) (*model.ActiveMember, error) {
	var member model.ActiveMember
	if err := s.db.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &member, nil
}

func (s *gormActiveMemberStore) GetByUserID(ctx context.Context, userID string) (*model.ActiveMember, error) {
	var member model.ActiveMember
	if err := s.db.WithContext(ctx).First(&member, "user_id = ?", userID).Error; err != nil {
		return nil, translateErr(err)
	}
	return &member, nil
}

func (s *gormActiveMemberStore) ListByBoard(ctx context.Context, boardID string) ([]model.ActiveMember, error) {
	var members []model.ActiveMember
	if err := s.db.WithContext(ctx).Where("board_id = ?", boardID).Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (s *gormActiveMemberStore) Update(ctx context.Context, member *model.ActiveMember) error {
	result := s.db.WithContext(ctx).Model(&model.ActiveMember{}).
		Where("id = ?", member.ID).
		Updates(map[string]interface{}{
			"board_id": member.BoardID,
			"x":        member.X,
			"y":        member.Y,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormActiveMemberStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&model.ActiveMember{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ===== Client =====

type gormClientStore struct {
	db *gorm.DB
}

func (s *gormClientStore) ReplaceForUser(ctx context.Context, client *model.Client) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Client{}, "user_id = ?", client.UserID).Error; err != nil {
			return err
		}
		return tx.Create(client).Error
	})
}

func (s *gormClientStore) GetByUserID(ctx context.Context, userID string) (*model.Client, error) {
	var client model.Client
	if err := s.db.WithContext(ctx).First(&client, "user_id = ?", userID).Error; err != nil {
		return nil, translateErr(err)
	}
	return &client, nil
}

func (s *gormClientStore) DeleteByUserID(ctx context.Context, userID string) error {
	result := s.db.WithContext(ctx).Delete(&model.Client{}, "user_id = ?", userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ===== ElementType =====

type gormElementTypeStore struct {
	db *gorm.DB
}

func (s *gormElementTypeStore) Create(ctx context.Context, t *model.ElementType) error {
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *gormElementTypeStore) List(ctx context.Context) ([]model.ElementType, error) {
	var types []model.ElementType
	if err := s.db.WithContext(ctx).Order("name asc").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

func (s *gormElementTypeStore) GetByID(ctx context.Context, id string) (*model.ElementType, error) {
	var t model.ElementType
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &t, nil
}

func (s *gormElementTypeStore) GetByName(ctx context.Context, name string) (*model.ElementType, error) {
	var t model.ElementType
	if err := s.db.WithContext(ctx).First(&t, "name = ?", name).Error; err != nil {
		return nil, translateErr(err)
	}
	return &t, nil
}
