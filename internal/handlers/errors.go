package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kyccodes/internal/logger"
	"kyccodes/internal/services"
)

const internalErrorKey = "server.internal_error"

// errorCase maps a sentinel error to a status code and a localizable key.
type errorCase struct {
	Err    error
	Status int
	Key    string
}

type errorsResponse struct {
	Errors []string `json:"errors"`
}

func respondErrors(c *gin.Context, status int, keys ...string) {
	c.AbortWithStatusJSON(status, errorsResponse{Errors: keys})
}

// respondMappedError answers with the first matching case, or 500 after
// logging the unexpected error.
func respondMappedError(c *gin.Context, log *zap.Logger, err error, cases []errorCase) {
	for _, cs := range cases {
		if errors.Is(err, cs.Err) {
			var throttled *services.SendThrottledError
			if errors.As(err, &throttled) {
				c.Header("Retry-After", fmt.Sprintf("%d", int(math.Ceil(throttled.RetryAfter.Seconds()))))
			}
			respondErrors(c, cs.Status, cs.Key)
			return
		}
	}

	logger.WithContext(c.Request.Context(), log).Error("unhandled error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	_ = c.Error(err)
	respondErrors(c, http.StatusInternalServerError, internalErrorKey)
}
