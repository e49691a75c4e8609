package server

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/event"
	"whiteboard-backend/internal/handler"
	"whiteboard-backend/internal/middleware"
	"whiteboard-backend/internal/presence"
	"whiteboard-backend/internal/protocol"
	"whiteboard-backend/internal/service"
	"whiteboard-backend/internal/store"
)

// Server Fiber 서버 래퍼
type Server struct {
	app                 *fiber.App
	cfg                 *config.Config
	db                  *gorm.DB
	store               *store.Store
	contexts            *event.Contexts
	tracker             *presence.Tracker
	healthHandler       *handler.HealthHandler
	userHandler         *handler.UserHandler
	boardHandler        *handler.BoardHandler
	elementHandler      *handler.ElementHandler
	activeMemberHandler *handler.ActiveMemberHandler
	clientHandler       *handler.ClientHandler
	elementTypeHandler  *handler.ElementTypeHandler
	collabWSHandler     *handler.CollabWSHandler
	boardMiddleware     *middleware.BoardMiddleware
}

// New 새 서버 인스턴스 생성
func New(cfg *config.Config, db *gorm.DB) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "Collaborative Whiteboard Backend",
		ServerHeader:          "Fiber",
		StrictRouting:         true,
		CaseSensitive:         true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		Prefork:               false, // WebSocket과 호환성 문제로 비활성화
		DisableStartupMessage: false,
	})

	st := store.NewGormStore(db)
	contexts := event.NewContextsWithBuffer(st, cfg.WebSocket.SendBufferSize)
	dispatcher := protocol.NewHandler(st, contexts)

	// Redis 커서 미러 (선택적)
	var tracker *presence.Tracker
	if cfg.Redis.Enabled {
		tracker = presence.NewTracker(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Presence.TTL)
		log.Printf("✅ Cursor presence mirror enabled (redis: %s)", cfg.Redis.Addr)
	} else {
		log.Println("ℹ️ Cursor presence mirror disabled (REDIS_ENABLED=false)")
	}

	return &Server{
		app:                 app,
		cfg:                 cfg,
		db:                  db,
		store:               st,
		contexts:            contexts,
		tracker:             tracker,
		healthHandler:       handler.NewHealthHandler(db, tracker),
		userHandler:         handler.NewUserHandler(st, contexts),
		boardHandler:        handler.NewBoardHandler(st, dispatcher),
		elementHandler:      handler.NewElementHandler(st, contexts, dispatcher),
		activeMemberHandler: handler.NewActiveMemberHandler(st, dispatcher, tracker),
		clientHandler:       handler.NewClientHandler(st, contexts),
		elementTypeHandler:  handler.NewElementTypeHandler(st),
		collabWSHandler:     handler.NewCollabWSHandler(st, contexts, dispatcher, tracker, cfg.WebSocket.WriteTimeout),
		boardMiddleware:     middleware.NewBoardMiddleware(service.NewMembershipService(st)),
	}
}

// SetupMiddleware 미들웨어 설정
func (s *Server) SetupMiddleware() {
	// 패닉 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 로깅
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Seoul",
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.CORS.AllowOrigins,
		AllowHeaders: s.cfg.CORS.AllowHeaders,
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
}

// SetupRoutes 라우트 설정
func (s *Server) SetupRoutes() {
	// 헬스체크 엔드포인트
	s.app.Get("/ping", s.healthHandler.Ping)
	s.app.Get("/health", s.healthHandler.Check)
	s.app.Get("/health/live", s.healthHandler.Liveness)
	s.app.Get("/health/ready", s.healthHandler.Readiness)

	// User 라우트
	s.app.Post("/register", s.userHandler.Register)
	s.app.Post("/login", s.userHandler.Login)
	s.app.Delete("/logout/:userId", s.userHandler.Logout)
	s.app.Get("/user/:id", s.userHandler.GetUser)
	s.app.Get("/user", s.userHandler.FindUser)

	// Board 라우트
	s.app.Post("/board", s.boardHandler.CreateBoard)
	s.app.Get("/board/:id", s.boardHandler.GetBoard)
	s.app.Get("/boards/:userId", s.boardHandler.GetBoardsByUser)
	s.app.Get("/board/:id/elements", s.boardMiddleware.RequireMembership(), s.boardHandler.GetBoardElements)
	s.app.Put("/board/:boardId/allowed-member/:userId", s.boardHandler.AddAllowedMember)
	s.app.Delete("/board/:boardId/allowed-member/:userId", s.boardHandler.RemoveAllowedMember)
	s.app.Delete("/board/:id", s.boardMiddleware.RequireHost(), s.boardHandler.DeleteBoard)

	// Element 라우트
	s.app.Post("/element/single", s.elementHandler.CreateElement)
	s.app.Get("/element/single/:id", s.elementHandler.GetElement)
	s.app.Put("/element/single", s.elementHandler.UpdateElement)
	s.app.Delete("/element/single/:userId/:boardId/:elementId", s.elementHandler.DeleteElement)
	s.app.Put("/element/single/lock", s.elementHandler.LockElement)
	s.app.Put("/element/single/unlock", s.elementHandler.UnlockElement)
	s.app.Put("/element/multiple/lock", s.elementHandler.LockElements)
	s.app.Put("/element/multiple/unlock", s.elementHandler.UnlockElements)
	s.app.Put("/element/multiple/move", s.elementHandler.MoveElements)
	s.app.Put("/element/multiple/unlock-all", s.elementHandler.UnlockAll)

	// Active Member 라우트
	s.app.Post("/active-member", s.activeMemberHandler.CreateActiveMember)
	s.app.Get("/active-member/:userId", s.activeMemberHandler.GetActiveMember)
	s.app.Get("/active-member/board/:boardId", s.activeMemberHandler.GetBoardActiveMembers)
	s.app.Put("/active-member/board", s.activeMemberHandler.ChangeBoard)
	s.app.Put("/active-member/position", s.activeMemberHandler.UpdatePosition)
	s.app.Delete("/active-member/:userId/:boardId", s.activeMemberHandler.DeleteActiveMember)

	// Client 라우트
	s.app.Post("/client", s.clientHandler.CreateOrReplaceClient)
	s.app.Get("/client/:userId", s.clientHandler.GetClient)
	s.app.Delete("/client/:userId", s.clientHandler.DeleteClient)

	// Element Type 라우트
	s.app.Post("/element-type", s.elementTypeHandler.CreateElementType)
	s.app.Get("/element-type/:id", s.elementTypeHandler.GetElementType)
	s.app.Get("/element-types", s.elementTypeHandler.ListElementTypes)

	// WebSocket 업그레이드 체크 미들웨어
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket 협업 스트림 엔드포인트
	s.app.Get("/ws", websocket.New(s.collabWSHandler.HandleWebSocket, websocket.Config{
		ReadBufferSize:  s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: s.cfg.WebSocket.WriteBufferSize,
	}))
}

// Start 서버 시작 (Graceful Shutdown 지원)
func (s *Server) Start() error {
	// Graceful Shutdown 설정
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")
		if err := s.app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Fatalf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 Collaborative Whiteboard Backend starting on %s", s.cfg.Server.Port)
	log.Printf("📡 WebSocket endpoint: ws://localhost%s/ws", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown 서버 종료
func (s *Server) Shutdown() error {
	if s.tracker != nil {
		if err := s.tracker.Close(); err != nil {
			log.Printf("[Server] Redis close error: %v", err)
		}
	}
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
