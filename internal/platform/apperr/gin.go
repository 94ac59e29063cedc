package apperr

import (
	"log"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/middleware"
)

// Write はエラーをステータスコード付きのエンベロープで返す。
// 500系は詳細をログにだけ残す
func Write(c *gin.Context, err error) {
	status := ToHTTPStatus(err)
	if IsInternal(err) {
		log.Printf("[ERROR] req=%s %s %s: %+v",
			middleware.GetRequestID(c), c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, Fail(err))
}
