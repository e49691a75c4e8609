package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"whiteboard-backend/internal/model"
)

// NewMemoryStore builds a fully in-memory Store. Used by tests and
// useful for running the server without a database.
func NewMemoryStore() *Store {
	return &Store{
		Users:         &memUserStore{users: map[string]model.User{}},
		Boards:        &memBoardStore{boards: map[string]model.Board{}},
		Elements:      &memElementStore{elements: map[string]model.Element{}},
		ActiveMembers: &memActiveMemberStore{members: map[string]model.ActiveMember{}},
		Clients:       &memClientStore{clients: map[string]model.Client{}},
		ElementTypes:  &memElementTypeStore{types: map[string]model.ElementType{}},
	}
}

func ensureID(id string) string {
	if id == "" {
		return uuid.New().String()
	}
	return id
}

// ===== User =====

type memUserStore struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func (s *memUserStore) Create(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = ensureID(user.ID)
	s.users[user.ID] = *user
	return nil
}

func (s *memUserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *memUserStore) GetByName(ctx context.Context, name string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Name == name {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memUserStore) List(ctx context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]model.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *memUserStore) Update(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Name = user.Name
	existing.Email = user.Email
	existing.ActiveClient = user.ActiveClient
	s.users[user.ID] = existing
	return nil
}

func (s *memUserStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// ===== Board =====

type memBoardStore struct {
	mu     sync.RWMutex
	boards map[string]model.Board
}

func (s *memBoardStore) Create(ctx context.Context, board *model.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	board.ID = ensureID(board.ID)
	stored := *board
	stored.AllowedMembers = append([]string(nil), board.AllowedMembers...)
	s.boards[board.ID] = stored
	return nil
}

func (s *memBoardStore) GetByID(ctx context.Context, id string) (*model.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	board, ok := s.boards[id]
	if !ok {
		return nil, ErrNotFound
	}
	b := board
	b.AllowedMembers = append([]string(nil), board.AllowedMembers...)
	return &b, nil
}

func (s *memBoardStore) ListByMember(ctx context.Context, userID string) ([]model.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var boards []model.Board
	for _, board := range s.boards {
		if board.HasMember(userID) {
			b := board
			b.AllowedMembers = append([]string(nil), board.AllowedMembers...)
			boards = append(boards, b)
		}
	}
	sort.Slice(boards, func(i, j int) bool { return boards[i].ID < boards[j].ID })
	return boards, nil
}

func (s *memBoardStore) UpdateMembers(ctx context.Context, id string, members []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	board, ok := s.boards[id]
	if !ok {
		return ErrNotFound
	}
	board.AllowedMembers = append([]string(nil), members...)
	s.boards[id] = board
	return nil
}

func (s *memBoardStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.boards[id]; !ok {
		return ErrNotFound
	}
	delete(s.boards, id)
	return nil
}

// ===== Element =====

type memElementStore struct {
	mu       sync.RWMutex
	elements map[string]model.Element
}

func (s *memElementStore) Create(ctx context.Context, element *model.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	element.ID = ensureID(element.ID)
	s.elements[element.ID] = *element
	return nil
}

func (s *memElementStore) GetByID(ctx context.Context, id string) (*model.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	element, ok := s.elements[id]
	if !ok {
		return nil, ErrNotFound
	}
	e := element
	return &e, nil
}

func (s *memElementStore) ListByBoard(ctx context.Context, boardID string) ([]model.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var elements []model.Element
	for _, element := range s.elements {
		if element.BoardID == boardID {
			elements = append(elements, element)
		}
	}
	sort.Slice(elements, func(i, j int) bool { return elements[i].ZIndex < elements[j].ZIndex })
	return elements, nil
}

func (s *memElementStore) Update(ctx context.Context, id string, update ElementUpdate) (*model.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	element, ok := s.elements[id]
	if !ok {
		return nil, ErrNotFound
	}
	if update.X != nil {
		element.X = *update.X
	}
	if update.Y != nil {
		element.Y = *update.Y
	}
	if update.Rotation != nil {
		element.Rotation = *update.Rotation
	}
	if update.ScaleX != nil {
		element.ScaleX = *update.ScaleX
	}
	if update.ScaleY != nil {
		element.ScaleY = *update.ScaleY
	}
	if update.ZIndex != nil {
		element.ZIndex = *update.ZIndex
	}
	if update.Text != nil {
		element.Text = *update.Text
	}
	if update.Color != nil {
		element.Color = *update.Color
	}
	if update.ElementType != nil {
		element.ElementType = *update.ElementType
	}
	if update.Selected != nil {
		element.Selected = *update.Selected
	}
	if update.ClearLock {
		element.LockedBy = nil
	} else if update.LockedBy != nil {
		owner := *update.LockedBy
		element.LockedBy = &owner
	}
	s.elements[id] = element
	e := element
	return &e, nil
}

func (s *memElementStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.elements[id]; !ok {
		return ErrNotFound
	}
	delete(s.elements, id)
	return nil
}

func (s *memElementStore) ReleaseAllLocks(ctx context.Context, userID, boardID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var released []string
	for id, element := range s.elements {
		if element.BoardID == boardID && element.LockedBy != nil && *element.LockedBy == userID {
			element.LockedBy = nil
			s.elements[id] = element
			released = append(released, id)
		}
	}
	sort.Strings(released)
	return released, nil
}

// ===== ActiveMember =====

type memActiveMemberStore struct {
	mu      sync.RWMutex
	members map[string]model.ActiveMember
}

func (s *memActiveMemberStore) Create(ctx context.Context, member *model.ActiveMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	member.ID = ensureID(member.ID)
	s.members[member.ID] = *member
	return nil
}

func (s *memActiveMemberStore) GetByID(ctx context.Context, id string) (*model.ActiveMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.members[id]
	if !ok {
		return nil, ErrNotFound
	}
	m := member
	return &m, nil
}

func (s *memActiveMemberStore) GetByUserID(ctx context.Context, userID string) (*model.ActiveMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, member := range s.members {
		if member.UserID == userID {
			m := member
			return &m, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memActiveMemberStore) ListByBoard(ctx context.Context, boardID string) ([]model.ActiveMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var members []model.ActiveMember
	for _, member := range s.members {
		if member.BoardID == boardID {
			members = append(members, member)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

func (s *memActiveMemberStore) Update(ctx context.Context, member *model.ActiveMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.members[member.ID]
	if !ok {
		return ErrNotFound
	}
	existing.BoardID = member.BoardID
	existing.X = member.X
	existing.Y = member.Y
	s.members[member.ID] = existing
	return nil
}

func (s *memActiveMemberStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; !ok {
		return ErrNotFound
	}
	delete(s.members, id)
	return nil
}

// ===== Client =====

type memClientStore struct {
	mu      sync.RWMutex
	clients map[string]model.Client
}

func (s *memClientStore) ReplaceForUser(ctx context.Context, client *model.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.clients {
		if existing.UserID == client.UserID {
			delete(s.clients, id)
		}
	}
	client.ID = ensureID(client.ID)
	s.clients[client.ID] = *client
	return nil
}

func (s *memClientStore) GetByUserID(ctx context.Context, userID string) (*model.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, client := range s.clients {
		if client.UserID == userID {
			c := client
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memClientStore) DeleteByUserID(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, client := range s.clients {
		if client.UserID == userID {
			delete(s.clients, id)
			return nil
		}
	}
	return ErrNotFound
}

// ===== ElementType =====

type memElementTypeStore struct {
	mu    sync.RWMutex
	types map[string]model.ElementType
}

func (s *memElementTypeStore) Create(ctx context.Context, t *model.ElementType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = ensureID(t.ID)
	s.types[t.ID] = *t
	return nil
}

func (s *memElementTypeStore) List(ctx context.Context) ([]model.ElementType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := make([]model.ElementType, 0, len(s.types))
	for _, t := range s.types {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types, nil
}

func (s *memElementTypeStore) GetByID(ctx context.Context, id string) (*model.ElementType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.types[id]
	if !ok {
		return nil, ErrNotFound
	}
	found := t
	return &found, nil
}

func (s *memElementTypeStore) GetByName(ctx context.Context, name string) (*model.ElementType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.types {
		if t.Name == name {
			found := t
			return &found, nil
		}
	}
	return nil, ErrNotFound
}
