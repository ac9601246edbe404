package auth

import (
	"errors"
	"net/http"
	"strings"

	"pickmeup-backend/auth"
	"pickmeup-backend/models"
	"pickmeup-backend/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	provider auth.Provider
}

func New(provider auth.Provider) *Handler {
	return &Handler{provider: provider}
}

// passwordRules vérifie la force du mot de passe avant de solliciter le
// fournisseur d'identité.
func passwordRules(password string) string {
	if len(password) < 6 {
		return "The password must contain at least 6 characters"
	}
	hasLower := strings.ContainsAny(password, "abcdefghijklmnopqrstuvwxyz")
	hasUpper := strings.ContainsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	hasDigit := strings.ContainsAny(password, "0123456789")
	if !hasLower || !hasUpper || !hasDigit {
		return "The password must contain at least one lowercase, one uppercase and one digit"
	}
	return ""
}

func (h *Handler) session(c *gin.Context, statusCode int, s *auth.Session) {
	token, err := utils.GenerateJWT(s.UID, s.Email, 72)
	if err != nil {
		utils.LogError(err, "Error generating the session token")
		utils.SendError(c, http.StatusInternalServerError, "Error generating the session token")
		return
	}
	utils.SendSuccess(c, statusCode, "Authenticated", models.SessionResponse{
		Token: token,
		UID:   s.UID,
		Email: s.Email,
	})
}

// Register crée un compte auprès du fournisseur d'identité
// @Summary Create a new user
// @Description Register a new account with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.Credentials true "User credentials"
// @Success 201 {object} utils.Response
// @Failure 400 {object} utils.Response "error: Invalid input"
// @Failure 409 {object} utils.Response "error: Email already used"
// @Router /register [post]
func (h *Handler) Register(c *gin.Context) {
	var creds models.Credentials
	if !utils.ValidateRequestBody(c, &creds) {
		return
	}

	if !models.ValidEmail(creds.Email) {
		utils.SendError(c, http.StatusBadRequest, "Invalid email format")
		return
	}
	if msg := passwordRules(creds.Password); msg != "" {
		utils.SendError(c, http.StatusBadRequest, msg)
		return
	}

	session, err := h.provider.SignUp(c.Request.Context(), creds.Email, creds.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailInUse):
			utils.SendError(c, http.StatusConflict, "This email is already used")
		case errors.Is(err, auth.ErrWeakPassword):
			utils.SendError(c, http.StatusBadRequest, "The password is too weak")
		default:
			utils.LogError(err, "Error creating the account")
			utils.SendError(c, http.StatusInternalServerError, "Failed to create the account")
		}
		return
	}

	utils.LogSuccessWithUser(session.UID, "Account created")
	h.session(c, http.StatusCreated, session)
}

// Login authentifie l'utilisateur
// @Summary Log in
// @Description Verify credentials against the identity provider and issue a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.Credentials true "User credentials"
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response "error: Invalid credentials"
// @Router /login [post]
func (h *Handler) Login(c *gin.Context) {
	var creds models.Credentials
	if !utils.ValidateRequestBody(c, &creds) {
		return
	}

	session, err := h.provider.SignIn(c.Request.Context(), creds.Email, creds.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			utils.SendError(c, http.StatusUnauthorized, "Incorrect email or password")
			return
		}
		utils.LogError(err, "Error during login")
		utils.SendError(c, http.StatusInternalServerError, "Failed to log in")
		return
	}

	utils.LogSuccessWithUser(session.UID, "User logged in")
	h.session(c, http.StatusOK, session)
}

// ChangePassword ré-authentifie puis change le mot de passe
// @Summary Change password
// @Description Reauthenticate with the current password, then set the new one
// @Tags auth
// @Accept json
// @Produce json
// @Param passwords body models.PasswordChange true "Current and new password"
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response "error: Invalid input"
// @Failure 401 {object} utils.Response "error: Current password incorrect"
// @Router /password [post]
func (h *Handler) ChangePassword(c *gin.Context) {
	email, exists := c.Get("email")
	if !exists {
		utils.SendError(c, http.StatusUnauthorized, "User not found in token")
		return
	}

	var body models.PasswordChange
	if !utils.ValidateRequestBody(c, &body) {
		return
	}

	if body.NewPassword != body.ConfirmPassword {
		utils.SendError(c, http.StatusBadRequest, "New passwords do not match")
		return
	}
	if msg := passwordRules(body.NewPassword); msg != "" {
		utils.SendError(c, http.StatusBadRequest, msg)
		return
	}

	session, err := h.provider.Reauthenticate(c.Request.Context(), email.(string), body.CurrentPassword)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			utils.SendError(c, http.StatusUnauthorized, "Current password is incorrect")
			return
		}
		utils.LogError(err, "Error during reauthentication")
		utils.SendError(c, http.StatusInternalServerError, "Failed to change the password")
		return
	}

	if err := h.provider.ChangePassword(c.Request.Context(), session, body.NewPassword); err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			utils.SendError(c, http.StatusBadRequest, "The password is too weak")
			return
		}
		utils.LogErrorWithUser(session.UID, err, "Error changing the password")
		utils.SendError(c, http.StatusInternalServerError, "Failed to change the password")
		return
	}

	utils.LogSuccessWithUser(session.UID, "Password changed")
	utils.SendSuccess(c, http.StatusOK, "Password changed successfully", nil)
}
