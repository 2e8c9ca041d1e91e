package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kyccodes/internal/entities"
	"kyccodes/internal/logger"
	"kyccodes/internal/services"
)

type PhoneHandler struct {
	Service   services.PhoneService
	Presenter entities.PhonePresenter
	Log       *zap.Logger
}

func NewPhoneHandler(service services.PhoneService, presenter entities.PhonePresenter, log *zap.Logger) *PhoneHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PhoneHandler{Service: service, Presenter: presenter, Log: log}
}

// @Summary      List phones
// @Tags         Resource
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   entities.Phone
// @Failure      401  {object}  errorsResponse
// @Router       /resource/phones [get]
func (h *PhoneHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondErrors(c, http.StatusUnauthorized, "jwt.decode_and_verify")
		return
	}

	records, err := h.Service.ListPhones(c.Request.Context(), userID)
	if err != nil {
		respondMappedError(c, h.Log, err, nil)
		return
	}

	out := make([]entities.Phone, 0, len(records))
	for _, rec := range records {
		p, err := h.Presenter.Present(rec.Phone, rec.Code)
		if errors.Is(err, entities.ErrPhoneCodeMissing) {
			// one unlinked phone must not hide the others
			logger.WithContext(c.Request.Context(), h.Log).Warn("phone has no validation code",
				zap.Int64("phone_id", rec.Phone.ID))
			p, err = h.Presenter.PresentUnvalidated(rec.Phone), nil
		}
		if err != nil {
			logger.WithContext(c.Request.Context(), h.Log).Error("present phone",
				zap.Int64("phone_id", rec.Phone.ID), zap.Error(err))
			respondErrors(c, http.StatusInternalServerError, internalErrorKey)
			return
		}
		out = append(out, p)
	}
	c.JSON(http.StatusOK, out)
}
