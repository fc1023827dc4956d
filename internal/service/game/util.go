package game

import (
	"github.com/google/uuid"
)

// GenID 生成短游戏 ID，取 UUIDv7 的前 8 位保留时间有序性
func GenID() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("Failed to generate UUID: " + err.Error())
	}

	return id.String()[:8]
}
