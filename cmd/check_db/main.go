package main

import (
	"fmt"
	"log"

	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/database"
	"whiteboard-backend/internal/model"
)

// DB 상태 점검 도구. 엔티티별 행 수와 현재 잡혀 있는 요소 락을 보여준다.
func main() {
	cfg := config.Load()

	db, err := database.ConnectDB(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	fmt.Println("✅ Connected to database")
	fmt.Println()

	tables := []struct {
		name  string
		model interface{}
	}{
		{"users", &model.User{}},
		{"boards", &model.Board{}},
		{"elements", &model.Element{}},
		{"element_types", &model.ElementType{}},
		{"active_members", &model.ActiveMember{}},
		{"clients", &model.Client{}},
	}

	fmt.Println("📊 Row counts:")
	for _, t := range tables {
		var count int64
		if err := db.Model(t.model).Count(&count).Error; err != nil {
			log.Fatalf("Failed to count %s: %v", t.name, err)
		}
		fmt.Printf("  - %-15s %d\n", t.name, count)
	}
	fmt.Println()

	// 락 통계
	type LockStats struct {
		LockedBy string
		BoardID  string
		Count    int64
	}
	var locks []LockStats
	err = db.Model(&model.Element{}).
		Select("locked_by, board_id, COUNT(*) as count").
		Where("locked_by IS NOT NULL").
		Group("locked_by, board_id").
		Scan(&locks).Error
	if err != nil {
		log.Fatal("Failed to get lock statistics:", err)
	}

	if len(locks) == 0 {
		fmt.Println("🔓 No elements are currently locked")
	} else {
		fmt.Println("🔒 Held element locks:")
		for _, l := range locks {
			fmt.Printf("  - User: %s, Board: %s, Elements: %d\n", l.LockedBy, l.BoardID, l.Count)
		}
	}
	fmt.Println()

	// 최근 보드
	var boards []model.Board
	if err := db.Order("created_at DESC").Limit(10).Find(&boards).Error; err != nil {
		log.Fatal("Failed to get recent boards:", err)
	}

	fmt.Println("🗂 Recent boards (last 10):")
	for _, b := range boards {
		fmt.Printf("  - ID: %s, Name: %s, Host: %s, Members: %d\n",
			b.ID, b.Name, b.Host, len(b.AllowedMembers))
	}
}
