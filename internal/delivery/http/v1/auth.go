package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/tasky/internal/models"
	"github.com/adanyl0v/tasky/internal/services"
	"github.com/adanyl0v/tasky/internal/session"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email,max=255"`
	Password string `json:"password" form:"password" binding:"required,min=6,max=255"`
}

type sessionResponse struct {
	State                 string     `json:"state"`
	UserID                string     `json:"user_id,omitempty"`
	Email                 string     `json:"email,omitempty"`
	AccessTokenExpiresAt  *time.Time `json:"access_token_expires_at,omitempty"`
	RefreshTokenExpiresAt *time.Time `json:"refresh_token_expires_at,omitempty"`
}

func newSessionResponse(state session.State, s *models.Session) sessionResponse {
	response := sessionResponse{
		State: state.String(),
	}
	if s != nil && state == session.StateAuthenticated {
		response.UserID = s.UserID
		response.Email = s.Email
		response.AccessTokenExpiresAt = &s.AccessTokenExpiresAt
		response.RefreshTokenExpiresAt = &s.RefreshTokenExpiresAt
	}
	return response
}

func (h *handlerImpl) HandleLogin(c *gin.Context) {
	var req loginRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	result, err := h.holder.Login(c, req.Email, req.Password)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to login")
		switch {
		case errors.Is(err, session.ErrInvalidCredentials):
			abort(c, newUnauthorizedError(session.ErrInvalidCredentials.Error()))
		case errors.Is(err, session.ErrEstablishmentSuperseded):
			abort(c, newConflictError(errSessionChanged.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	setSessionCookies(c, result)
	c.JSON(http.StatusOK, newSessionResponse(session.StateAuthenticated, result))
}

type registerRequest struct {
	Email           string `json:"email" form:"email" binding:"required,email,max=255"`
	Password        string `json:"password" form:"password" binding:"required,min=6,max=255"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" binding:"required,eqfield=Password"`
}

type registerResponse struct {
	UserID               string           `json:"user_id"`
	Email                string           `json:"email"`
	ConfirmationRequired bool             `json:"confirmation_required"`
	Session              *sessionResponse `json:"session,omitempty"`
}

// HandleRegister signs the user up. With ?wait=true and no email
// confirmation pending it responds once the session is established.
func (h *handlerImpl) HandleRegister(c *gin.Context) {
	var req registerRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	wait, err := parseOptionalBool(c.Query("wait"))
	if err != nil {
		abort(c, newBadRequestError(errInvalidQuery.Error()))
		return
	}

	// Establishment can outlive the pooled gin context.
	result, err := h.holder.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to register user")
		switch {
		case errors.Is(err, session.ErrInvalidCredentials):
			abort(c, newBadRequestError(session.ErrInvalidCredentials.Error()))
		case errors.Is(err, services.ErrUserAlreadyExists):
			abort(c, newConflictError(services.ErrUserAlreadyExists.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	response := registerResponse{
		UserID:               result.UserID,
		Email:                result.Email,
		ConfirmationRequired: result.ConfirmationRequired,
	}
	if !wait || result.Established == nil {
		c.JSON(http.StatusCreated, response)
		return
	}

	select {
	case err = <-result.Established:
	case <-c.Request.Context().Done():
		err = c.Request.Context().Err()
	}
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", result.UserID).
			Msg("session not established after registration")
		if errors.Is(err, session.ErrEstablishmentSuperseded) {
			abort(c, newConflictError(errSessionChanged.Error()))
			return
		}
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	current := h.holder.Session()
	if current != nil {
		setSessionCookies(c, current)
	}
	sessionResp := newSessionResponse(h.holder.State(), current)
	response.Session = &sessionResp
	c.JSON(http.StatusCreated, response)
}

func (h *handlerImpl) HandleLogout(c *gin.Context) {
	h.holder.Logout(c)

	clearCookie(c, accessTokenCookie)
	clearCookie(c, refreshTokenCookie)

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleGetSession(c *gin.Context) {
	c.JSON(http.StatusOK, newSessionResponse(h.holder.State(), h.holder.Session()))
}

func parseOptionalBool(value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	return strconv.ParseBool(value)
}

func setSessionCookies(c *gin.Context, s *models.Session) {
	now := time.Now()
	setAccessTokenCookie(c, s.AccessToken, s.AccessTokenExpiresAt.Sub(now))
	setRefreshTokenCookie(c, s.RefreshToken, s.RefreshTokenExpiresAt.Sub(now))
}

func setAccessTokenCookie(c *gin.Context, token string, maxAge time.Duration) {
	const secure, httpOnly = false, false
	c.SetCookie(accessTokenCookie, token, int(maxAge.Seconds()),
		"/", "", secure, httpOnly)
}

func setRefreshTokenCookie(c *gin.Context, token string, maxAge time.Duration) {
	const secure, httpOnly = false, true
	c.SetCookie(refreshTokenCookie, token, int(maxAge.Seconds()),
		"/", "", secure, httpOnly)
}

func clearCookie(c *gin.Context, name string) {
	c.SetCookie(name, "", -1,
		"/", "", false, false)
}
