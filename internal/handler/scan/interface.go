package scan

import "github.com/gin-gonic/gin"

type IHandler interface {
	Scan(c *gin.Context)
}
