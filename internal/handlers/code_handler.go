package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kyccodes/internal/logger"
	"kyccodes/internal/models"
	"kyccodes/internal/services"
)

var resourceCodeErrors = []errorCase{
	{Err: services.ErrSendThrottled, Status: http.StatusTooManyRequests, Key: "resource.code.too_many_requests"},
	{Err: services.ErrUserNotFound, Status: http.StatusUnauthorized, Key: "jwt.decode_and_verify"},
}

// CodeHandler serves the self-service code endpoint for signed-in users.
type CodeHandler struct {
	Service services.CodeService
	Log     *zap.Logger
}

func NewCodeHandler(service services.CodeService, log *zap.Logger) *CodeHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CodeHandler{Service: service, Log: log}
}

type requestCodeRequest struct {
	Type     string `json:"type" form:"type"`
	Category string `json:"category" form:"category"`
}

// @Summary      Request code
// @Description  Issues a code to the caller's phone or e-mail. Phone codes are skipped when no phone is on file.
// @Tags         Resource
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      requestCodeRequest  true  "Code type and category"
// @Success      201   {object}  map[string]string
// @Failure      422   {object}  errorsResponse
// @Failure      429   {object}  errorsResponse
// @Router       /resource/code/ [post]
func (h *CodeHandler) RequestCode(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondErrors(c, http.StatusUnauthorized, "jwt.decode_and_verify")
		return
	}

	var req requestCodeRequest
	if err := c.ShouldBind(&req); err != nil {
		respondErrors(c, http.StatusUnprocessableEntity, "resource.user.invalid_params")
		return
	}
	var errs []string
	if !models.IsValidCodeType(req.Type) {
		errs = append(errs, "resource.user.invalid_type")
	}
	if !models.IsValidCodeCategory(req.Category) {
		errs = append(errs, "resource.user.invalid_category")
	}
	if len(errs) > 0 {
		respondErrors(c, http.StatusUnprocessableEntity, errs...)
		return
	}

	code, err := h.Service.RequestCode(c.Request.Context(), userID, req.Type, req.Category)
	if err != nil {
		respondMappedError(c, h.Log, err, resourceCodeErrors)
		return
	}
	if code == nil {
		logger.WithContext(c.Request.Context(), h.Log).Debug("no phone on file, code skipped",
			zap.Int64("user_id", userID))
	}
	c.JSON(http.StatusCreated, gin.H{})
}
