package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/tasky/internal/models"
	"github.com/adanyl0v/tasky/internal/state"
)

type profileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Avatar    string    `json:"avatar,omitempty"`
	Language  string    `json:"language"`
	Theme     string    `json:"theme"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newProfileResponse(p *models.Profile) profileResponse {
	return profileResponse{
		ID:        p.ID,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Avatar:    p.Avatar,
		Language:  p.Language,
		Theme:     p.Theme,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (h *handlerImpl) HandleGetProfile(c *gin.Context) {
	profile := h.profiles.Profile()
	if profile == nil {
		h.logger.Warn().Msg("no profile loaded")
		abort(c, newNotFoundError(errProfileNotFound.Error()))
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(profile))
}

type updateProfileRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=255"`
	LastName  *string `json:"last_name" binding:"omitempty,max=255"`
	Avatar    *string `json:"avatar" binding:"omitempty,max=2048"`
	Language  *string `json:"language" binding:"omitempty,oneof=es en"`
	Theme     *string `json:"theme" binding:"omitempty,oneof=light dark"`
}

type updateProfileResponse struct {
	Profile   profileResponse `json:"profile"`
	Persisted bool            `json:"persisted"`
	Warning   string          `json:"warning,omitempty"`
}

func (h *handlerImpl) HandleUpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	patch := models.ProfilePatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Avatar:    req.Avatar,
		Language:  req.Language,
		Theme:     req.Theme,
	}
	if patch.Empty() {
		abort(c, newBadRequestError(errEmptyPatch.Error()))
		return
	}

	profile, err := h.holder.UpdateProfile(c, patch)
	if err != nil && (profile == nil || !errors.Is(err, state.ErrProfileNotPersisted)) {
		h.logger.Error().
			Err(err).
			Msg("failed to update profile")
		if errors.Is(err, state.ErrStaleOwner) {
			abort(c, newConflictError(errSessionChanged.Error()))
			return
		}
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	response := updateProfileResponse{
		Profile:   newProfileResponse(profile),
		Persisted: err == nil,
	}
	if err != nil {
		response.Warning = "changes saved on this device only"
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleRefreshProfile(c *gin.Context) {
	h.holder.RefreshProfile(c)
	h.HandleGetProfile(c)
}
