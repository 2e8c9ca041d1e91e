package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kyccodes/internal/entities"
	"kyccodes/internal/models"
	"kyccodes/internal/services"
)

var managementCodeErrors = []errorCase{
	{Err: services.ErrUserNotFound, Status: http.StatusNotFound, Key: "management.code.user_not_found"},
	{Err: services.ErrCodeNotFound, Status: http.StatusNotFound, Key: "management.code.code_not_found"},
	{Err: services.ErrCodeExpired, Status: http.StatusUnprocessableEntity, Key: "management.code.code_expired"},
	{Err: services.ErrCodeOutOfAttempts, Status: http.StatusUnprocessableEntity, Key: "management.code.code_out_attempt"},
	{Err: services.ErrCodeInvalid, Status: http.StatusUnprocessableEntity, Key: "management.code.verification_invalid"},
	{Err: services.ErrCodeAlreadyVerified, Status: http.StatusUnprocessableEntity, Key: "management.code.code_already_verified"},
}

type ManagementCodeHandler struct {
	Service services.CodeService
	Log     *zap.Logger
}

func NewManagementCodeHandler(service services.CodeService, log *zap.Logger) *ManagementCodeHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ManagementCodeHandler{Service: service, Log: log}
}

type createCodeRequest struct {
	UserUID     string  `json:"user_uid" form:"user_uid"`
	Type        string  `json:"type" form:"type"`
	Category    string  `json:"category" form:"category"`
	PhoneNumber *string `json:"phone_number" form:"phone_number"`
	Email       *string `json:"email" form:"email"`
}

func (r *createCodeRequest) validate() []string {
	var errs []string
	if strings.TrimSpace(r.UserUID) == "" {
		errs = append(errs, "management.code.missing_user_uid")
	}
	switch {
	case strings.TrimSpace(r.Type) == "":
		errs = append(errs, "management.code.missing_type")
	case !models.IsValidCodeType(r.Type):
		errs = append(errs, "management.codes.invalid_type")
	}
	switch {
	case strings.TrimSpace(r.Category) == "":
		errs = append(errs, "management.code.missing_category")
	case !models.IsValidCodeCategory(r.Category):
		errs = append(errs, "management.codes.invalid_category")
	}
	if r.PhoneNumber != nil && strings.TrimSpace(*r.PhoneNumber) == "" {
		errs = append(errs, "management.code.invalid_phone_number")
	}
	if r.Email != nil && strings.TrimSpace(*r.Email) == "" {
		errs = append(errs, "management.code.invalid_email")
	}
	return errs
}

type codeIDRequest struct {
	CodeID *int64 `json:"code_id" form:"code_id"`
}

type verifyCodeRequest struct {
	CodeID           *int64 `json:"code_id" form:"code_id"`
	VerificationCode string `json:"verification_code" form:"verification_code"`
}

// @Summary      Create code
// @Description  Finds or creates the pending code for the user, type and category and (re)generates its secret
// @Tags         Management
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createCodeRequest  true  "Code parameters"
// @Success      201   {object}  entities.Code
// @Failure      404   {object}  errorsResponse
// @Failure      422   {object}  errorsResponse
// @Router       /management/code/create [post]
func (h *ManagementCodeHandler) Create(c *gin.Context) {
	var req createCodeRequest
	if err := c.ShouldBind(&req); err != nil {
		respondErrors(c, http.StatusUnprocessableEntity, "management.code.invalid_params")
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		respondErrors(c, http.StatusUnprocessableEntity, errs...)
		return
	}

	in := services.CreateCodeInput{
		UserUID:  req.UserUID,
		Type:     req.Type,
		Category: req.Category,
	}
	if req.PhoneNumber != nil {
		in.PhoneNumber = *req.PhoneNumber
	}
	if req.Email != nil {
		in.Email = *req.Email
	}

	code, err := h.Service.CreateForUser(c.Request.Context(), in)
	if err != nil {
		respondMappedError(c, h.Log, err, managementCodeErrors)
		return
	}
	c.JSON(http.StatusCreated, entities.NewCode(code, h.Service.Status(code)))
}

// @Summary      Read code
// @Tags         Management
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      codeIDRequest  true  "Code id"
// @Success      200   {object}  entities.Code
// @Failure      404   {object}  errorsResponse
// @Router       /management/code/get [post]
func (h *ManagementCodeHandler) Get(c *gin.Context) {
	var req codeIDRequest
	if err := c.ShouldBind(&req); err != nil {
		respondErrors(c, http.StatusUnprocessableEntity, "management.code.invalid_code_id")
		return
	}
	if req.CodeID == nil {
		respondErrors(c, http.StatusUnprocessableEntity, "management.code.missing_code_id")
		return
	}

	code, err := h.Service.GetCode(c.Request.Context(), *req.CodeID)
	if err != nil {
		respondMappedError(c, h.Log, err, managementCodeErrors)
		return
	}
	c.JSON(http.StatusOK, entities.NewCode(code, h.Service.Status(code)))
}

// @Summary      Verify code
// @Description  Checks expiry and attempts, then compares the supplied value
// @Tags         Management
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  verifyCodeRequest  true  "Code id and value"
// @Success      200
// @Failure      404   {object}  errorsResponse
// @Failure      422   {object}  errorsResponse
// @Router       /management/code/verify_code [post]
func (h *ManagementCodeHandler) Verify(c *gin.Context) {
	var req verifyCodeRequest
	if err := c.ShouldBind(&req); err != nil {
		respondErrors(c, http.StatusUnprocessableEntity, "management.code.invalid_code_id")
		return
	}
	var errs []string
	if req.CodeID == nil {
		errs = append(errs, "management.code.missing_code_id")
	}
	if strings.TrimSpace(req.VerificationCode) == "" {
		errs = append(errs, "management.code.missing_verification_code")
	}
	if len(errs) > 0 {
		respondErrors(c, http.StatusUnprocessableEntity, errs...)
		return
	}

	if _, err := h.Service.VerifyCode(c.Request.Context(), *req.CodeID, strings.TrimSpace(req.VerificationCode)); err != nil {
		respondMappedError(c, h.Log, err, managementCodeErrors)
		return
	}
	c.Status(http.StatusOK)
}
