package rider

import (
	handlershared "github.com/somar/dispatch/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getRiderID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "rider_id")
}
