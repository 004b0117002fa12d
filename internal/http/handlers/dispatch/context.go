package dispatch

import (
	handlershared "github.com/somar/dispatch/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getDispatcherID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "dispatcher_id")
}
