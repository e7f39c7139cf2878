package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// WriteError 以統一格式回傳錯誤
func WriteError(c *gin.Context, err *CustomError, debug bool) {
	c.AbortWithStatusJSON(err.Status, err.Response(debug))
}

// IsSuccessStatus 判斷 HTTP 狀態碼是否為 2xx
func IsSuccessStatus(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}
