package helpers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func StringToInt(s string) (int, error) {
	return strconv.Atoi(s)
}

// Pagination reads the page/limit query params with the usual defaults.
func Pagination(c *gin.Context) (page, limit int, err error) {
	page, err = StringToInt(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 0, 0, fmt.Errorf("invalid page number")
	}
	limit, err = StringToInt(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		return 0, 0, fmt.Errorf("invalid limit")
	}
	return page, limit, nil
}

// GenerateRMACode builds a short human-readable return authorization code.
func GenerateRMACode() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return fmt.Sprintf("RMA-%s", id[:10])
}
