package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func bindURI(c *gin.Context, req any) bool {
	if err := c.ShouldBindUri(req); err != nil {
		c.Status(http.StatusNotFound)
		return false
	}
	return true
}
