package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"boutique-system/internal/stock"
)

// Helper functions
func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

// respondError translates domain errors into HTTP status codes. Lock
// contention maps to 409 so callers know the request is retryable.
func respondError(c *gin.Context, err error) {
	var insufficient *stock.InsufficientStockError
	var invalidItem *stock.InvalidItemError
	var invalidTransition *stock.InvalidTransitionError
	var notFound *stock.NotFoundError

	switch {
	case errors.Is(err, stock.ErrEmptyCart):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &insufficient):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &invalidItem):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &invalidTransition):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, stock.ErrLockNotAvailable):
		fail(c, http.StatusConflict, "stock rows are locked by another request, retry")
	default:
		fail(c, http.StatusInternalServerError, "internal error")
	}
}

func parseIDParam(c *gin.Context, param string) (int64, error) {
	str := c.Param(param)
	return strconv.ParseInt(str, 10, 64)
}

func parseIntQuery(c *gin.Context, param string) *int32 {
	str := c.Query(param)
	if str == "" {
		return nil
	}
	val, err := strconv.ParseInt(str, 10, 32)
	if err != nil {
		return nil
	}
	result := int32(val)
	return &result
}

func parseInt64Query(c *gin.Context, param string) *int64 {
	str := c.Query(param)
	if str == "" {
		return nil
	}
	val, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return nil
	}
	return &val
}

func parseBoolQuery(c *gin.Context, param string) *bool {
	str := c.Query(param)
	if str == "" {
		return nil
	}
	val, err := strconv.ParseBool(str)
	if err != nil {
		return nil
	}
	return &val
}

func parsePageSize(c *gin.Context) int {
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return size
}
