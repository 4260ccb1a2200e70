package controllers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// writeCached writes body with a public cache directive of maxAge.
func writeCached(c *gin.Context, status int, contentType string, body []byte, maxAge time.Duration) {
	if maxAge > 0 {
		c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds())))
	} else {
		c.Header("Cache-Control", "no-cache")
	}
	c.Data(status, contentType, body)
}
