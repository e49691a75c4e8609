package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard-backend/internal/event"
	"whiteboard-backend/internal/middleware"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/presence"
	"whiteboard-backend/internal/protocol"
	"whiteboard-backend/internal/service"
	"whiteboard-backend/internal/store"
)

type restFixture struct {
	app      *fiber.App
	store    *store.Store
	contexts *event.Contexts
	tracker  *presence.Tracker
}

func newRestFixture(t *testing.T) *restFixture {
	t.Helper()
	st := store.NewMemoryStore()
	contexts := event.NewContexts(st)
	dispatcher := protocol.NewHandler(st, contexts)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tracker := presence.NewTrackerWithClient(client, 30*time.Second)
	t.Cleanup(func() { tracker.Close() })

	app := fiber.New()

	users := NewUserHandler(st, contexts)
	boards := NewBoardHandler(st, dispatcher)
	boardGuard := middleware.NewBoardMiddleware(service.NewMembershipService(st))
	elements := NewElementHandler(st, contexts, dispatcher)
	members := NewActiveMemberHandler(st, dispatcher, tracker)
	clients := NewClientHandler(st, contexts)
	types := NewElementTypeHandler(st)

	app.Post("/register", users.Register)
	app.Post("/login", users.Login)
	app.Delete("/logout/:userId", users.Logout)
	app.Get("/user/:id", users.GetUser)
	app.Get("/user", users.FindUser)

	app.Post("/board", boards.CreateBoard)
	app.Get("/board/:id", boards.GetBoard)
	app.Get("/boards/:userId", boards.GetBoardsByUser)
	app.Get("/board/:id/elements", boardGuard.RequireMembership(), boards.GetBoardElements)
	app.Put("/board/:boardId/allowed-member/:userId", boards.AddAllowedMember)
	app.Delete("/board/:boardId/allowed-member/:userId", boards.RemoveAllowedMember)
	app.Delete("/board/:id", boardGuard.RequireHost(), boards.DeleteBoard)

	app.Post("/element/single", elements.CreateElement)
	app.Get("/element/single/:id", elements.GetElement)
	app.Put("/element/single", elements.UpdateElement)
	app.Delete("/element/single/:userId/:boardId/:elementId", elements.DeleteElement)
	app.Put("/element/single/lock", elements.LockElement)
	app.Put("/element/single/unlock", elements.UnlockElement)
	app.Put("/element/multiple/unlock-all", elements.UnlockAll)

	app.Post("/active-member", members.CreateActiveMember)
	app.Get("/active-member/:userId", members.GetActiveMember)
	app.Get("/active-member/board/:boardId", members.GetBoardActiveMembers)
	app.Put("/active-member/position", members.UpdatePosition)

	app.Post("/client", clients.CreateOrReplaceClient)
	app.Get("/client/:userId", clients.GetClient)
	app.Delete("/client/:userId", clients.DeleteClient)

	app.Post("/element-type", types.CreateElementType)
	app.Get("/element-type/:id", types.GetElementType)
	app.Get("/element-types", types.ListElementTypes)

	return &restFixture{app: app, store: st, contexts: contexts, tracker: tracker}
}

func (f *restFixture) request(t *testing.T, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestRegisterAndLogin(t *testing.T) {
	f := newRestFixture(t)

	resp, body := f.request(t, "POST", "/register", RegisterRequest{
		Name: "alice", Email: "alice@example.com", Password: "secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created UserResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.Name)

	// 중복 이메일 거부
	resp, _ = f.request(t, "POST", "/register", RegisterRequest{
		Name: "alice2", Email: "alice@example.com", Password: "x",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// 잘못된 비밀번호
	resp, _ = f.request(t, "POST", "/login", LoginRequest{
		Name: "alice", Password: "wrong", ClientID: "c1", DeviceType: "WEB",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// 로그인 성공은 클라이언트 레코드를 만든다
	resp, body = f.request(t, "POST", "/login", LoginRequest{
		Name: "alice", Password: "secret", ClientID: "c1", DeviceType: "WEB",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login LoginResponse
	require.NoError(t, json.Unmarshal(body, &login))
	assert.Equal(t, created.ID, login.UserID)

	client, err := f.store.Clients.GetByUserID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "c1", client.ClientID)

	// 재로그인은 클라이언트를 교체한다
	resp, _ = f.request(t, "POST", "/login", LoginRequest{
		Email: "alice@example.com", Password: "secret", ClientID: "c2", DeviceType: "ANDROID",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	client, err = f.store.Clients.GetByUserID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "c2", client.ClientID)
	assert.Equal(t, model.DeviceTypeAndroid, client.DeviceType)

	// 로그아웃은 클라이언트를 지운다
	resp, _ = f.request(t, "DELETE", "/logout/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, err = f.store.Clients.GetByUserID(context.Background(), created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRegisterValidation(t *testing.T) {
	f := newRestFixture(t)

	cases := []struct {
		name string
		req  RegisterRequest
		msg  string
	}{
		{"missing name", RegisterRequest{Email: "a@b.c", Password: "x"}, "Name must be set"},
		{"missing email", RegisterRequest{Name: "a", Password: "x"}, "E-Mail must be set"},
		{"invalid email", RegisterRequest{Name: "a", Email: "nope", Password: "x"}, "E-Mail is invalid"},
		{"missing password", RegisterRequest{Name: "a", Email: "a@b.c"}, "Password must be set"},
		{"name with at", RegisterRequest{Name: "a@b", Email: "a@b.c", Password: "x"}, "Username cannot contain '@'"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := f.request(t, "POST", "/register", tc.req)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, string(body), tc.msg)
		})
	}
}

func TestFindUser(t *testing.T) {
	f := newRestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Users.Create(ctx, &model.User{
		Name: "bob", Email: "bob@example.com", Password: "pw",
	}))

	resp, body := f.request(t, "GET", "/user?name=bob", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "bob@example.com")

	resp, _ = f.request(t, "GET", "/user?email=bob@example.com", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.request(t, "GET", "/user?name=ghost", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.request(t, "GET", "/user", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBoardLifecycle(t *testing.T) {
	f := newRestFixture(t)

	resp, body := f.request(t, "POST", "/board", CreateBoardRequest{
		Name: "sprint planning", Host: "host-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var board model.Board
	require.NoError(t, json.Unmarshal(body, &board))
	assert.Equal(t, []string{"host-1"}, board.AllowedMembers)

	resp, _ = f.request(t, "GET", "/board/"+board.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// 멤버 추가는 스트림 디스패처 경로를 탄다
	resp, _ = f.request(t, "PUT", "/board/"+board.ID+"/allowed-member/user-2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err := f.store.Boards.GetByID(context.Background(), board.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.AllowedMembers, "user-2")

	// 호스트 제거는 거부된다
	resp, _ = f.request(t, "DELETE", "/board/"+board.ID+"/allowed-member/host-1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.request(t, "DELETE", "/board/"+board.ID+"/allowed-member/user-2", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = f.request(t, "GET", "/boards/host-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), board.ID)

	// 호스트만 보드를 지울 수 있다
	resp, _ = f.request(t, "DELETE", "/board/"+board.ID+"?userId=user-2", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.request(t, "DELETE", "/board/"+board.ID+"?userId=host-1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.request(t, "GET", "/board/"+board.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBoardElementsListing(t *testing.T) {
	f := newRestFixture(t)
	ctx := context.Background()

	board := &model.Board{Name: "b", Host: "h", AllowedMembers: []string{"h"}}
	require.NoError(t, f.store.Boards.Create(ctx, board))
	require.NoError(t, f.store.Elements.Create(ctx, &model.Element{BoardID: board.ID, Text: "note"}))

	resp, body := f.request(t, "GET", "/board/"+board.ID+"/elements?userId=h", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "note")

	// 멤버가 아니면 조회할 수 없다
	resp, _ = f.request(t, "GET", "/board/"+board.ID+"/elements?userId=stranger", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.request(t, "GET", "/board/"+board.ID+"/elements", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.request(t, "GET", "/board/missing/elements?userId=h", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestElementEndpointsShareLockRules(t *testing.T) {
	f := newRestFixture(t)
	ctx := context.Background()

	board := &model.Board{Name: "b", Host: "h", AllowedMembers: []string{"h"}}
	require.NoError(t, f.store.Boards.Create(ctx, board))
	el := &model.Element{BoardID: board.ID}
	require.NoError(t, f.store.Elements.Create(ctx, el))

	lockBody := map[string]string{"_id": el.ID, "userId": "u1", "boardId": board.ID}
	resp, _ := f.request(t, "PUT", "/element/single/lock", lockBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 다른 유저의 수정은 거부된다
	resp, body := f.request(t, "PUT", "/element/single", map[string]interface{}{
		"_id": el.ID, "userId": "u2", "boardId": board.ID, "text": "hijack",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "locked by someone else")

	// 락 보유자의 수정은 통과한다
	resp, _ = f.request(t, "PUT", "/element/single", map[string]interface{}{
		"_id": el.ID, "userId": "u1", "boardId": board.ID, "text": "mine",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.request(t, "GET", "/element/single/"+el.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnlockAll(t *testing.T) {
	f := newRestFixture(t)
	ctx := context.Background()

	user := "u1"
	board := &model.Board{Name: "b", Host: user, AllowedMembers: []string{user}}
	require.NoError(t, f.store.Boards.Create(ctx, board))

	for i := 0; i < 3; i++ {
		locked := user
		require.NoError(t, f.store.Elements.Create(ctx, &model.Element{
			BoardID: board.ID, LockedBy: &locked,
		}))
	}

	resp, body := f.request(t, "PUT", "/element/multiple/unlock-all?userId="+user+"&boardId="+board.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"total":3`)

	elements, err := f.store.Elements.ListByBoard(ctx, board.ID)
	require.NoError(t, err)
	for _, el := range elements {
		assert.Nil(t, el.LockedBy)
	}

	// 락이 하나도 없어도 성공이다
	resp, body = f.request(t, "PUT", "/element/multiple/unlock-all?userId="+user+"&boardId="+board.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"total":0`)

	resp, _ = f.request(t, "PUT", "/element/multiple/unlock-all", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestActiveMemberPresenceReadThrough(t *testing.T) {
	f := newRestFixture(t)
	ctx := context.Background()

	board := &model.Board{Name: "b", Host: "u1", AllowedMembers: []string{"u1"}}
	require.NoError(t, f.store.Boards.Create(ctx, board))

	resp, _ := f.request(t, "POST", "/active-member", map[string]string{
		"userId": "u1", "boardId": board.ID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 위치 갱신은 DB와 Redis 미러 양쪽에 기록된다
	resp, _ = f.request(t, "PUT", "/active-member/position", map[string]interface{}{
		"userId": "u1", "boardId": board.ID, "x": 42.0, "y": 7.0,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cursor, err := f.tracker.GetCursor(ctx, board.ID, "u1")
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.Equal(t, 42.0, cursor.X)

	resp, body := f.request(t, "GET", "/active-member/board/"+board.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Members []BoardMemberResponse `json:"members"`
		Total   int                   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &listing))
	require.Equal(t, 1, listing.Total)
	assert.True(t, listing.Members[0].Live)
	assert.Equal(t, 42.0, listing.Members[0].X)

	resp, _ = f.request(t, "GET", "/active-member/u1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.request(t, "GET", "/active-member/ghost", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClientEndpoints(t *testing.T) {
	f := newRestFixture(t)

	resp, _ := f.request(t, "POST", "/client", ClientRequest{
		UserID: "u1", ClientID: "c1", DeviceType: "WEB",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 같은 clientId는 204
	resp, _ = f.request(t, "POST", "/client", ClientRequest{
		UserID: "u1", ClientID: "c1", DeviceType: "WEB",
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// 바뀐 clientId는 교체
	resp, _ = f.request(t, "POST", "/client", ClientRequest{
		UserID: "u1", ClientID: "c2", DeviceType: "IOS",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.request(t, "GET", "/client/u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "c2")

	resp, _ = f.request(t, "DELETE", "/client/u1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.request(t, "GET", "/client/u1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.request(t, "DELETE", "/client/u1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteClientEmitsAfterDelete(t *testing.T) {
	f := newRestFixture(t)

	resp, _ := f.request(t, "POST", "/client", ClientRequest{
		UserID: "u1", ClientID: "c1", DeviceType: "WEB",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sub := f.contexts.Client.Subscribe("u1")
	defer f.contexts.Client.Unsubscribe(sub)

	resp, _ = f.request(t, "DELETE", "/client/u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 발행 시점에 레코드는 이미 삭제돼 있어야 한다
	select {
	case ev := <-sub.C:
		assert.Equal(t, event.ClientRemoved, ev.Type)
		assert.Equal(t, "u1", ev.Body)
		_, err := f.store.Clients.GetByUserID(context.Background(), "u1")
		assert.ErrorIs(t, err, store.ErrNotFound)
	case <-time.After(time.Second):
		t.Fatal("expected a client_removed event after the delete")
	}

	// 삭제할 레코드가 없으면 이벤트도 없다
	resp, _ = f.request(t, "DELETE", "/client/u1", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	select {
	case ev := <-sub.C:
		t.Fatalf("unexpected event %q for a failed delete", ev.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestElementTypeEndpoints(t *testing.T) {
	f := newRestFixture(t)

	resp, _ := f.request(t, "GET", "/element-types", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := f.request(t, "POST", "/element-type", CreateElementTypeRequest{
		Name: "rectangle", Path: "shapes/rectangle.svg",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var id string
	require.NoError(t, json.Unmarshal(body, &id))
	require.NotEmpty(t, id)

	resp, _ = f.request(t, "GET", "/element-type/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.request(t, "GET", "/element-type/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = f.request(t, "GET", "/element-types", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "rectangle")
}
