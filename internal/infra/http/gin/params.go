package ginserver

import (
	"fmt"
	"time"

	gin "github.com/gin-gonic/gin"

	"staycal/internal/domain/shared/daterange"
)

// queryRange reads two YYYY-MM-DD query params. Ordering is checked by the application layer.
func queryRange(c *gin.Context, startKey, endKey string) (time.Time, time.Time, error) {
	start, err := queryDay(c, startKey)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := queryDay(c, endKey)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func queryDay(c *gin.Context, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", key)
	}
	day, err := daterange.ParseDay(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a YYYY-MM-DD date", key)
	}
	return day, nil
}

func bodyDay(field, raw string) (time.Time, error) {
	day, err := daterange.ParseDay(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a YYYY-MM-DD date", field)
	}
	return day, nil
}
