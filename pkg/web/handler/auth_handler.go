package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol"

	"auth-backend/pkg/common/config"
	apperrors "auth-backend/pkg/common/errors"
	"auth-backend/pkg/core/auth/password"
	"auth-backend/pkg/core/auth/token"
	usermodel "auth-backend/pkg/core/user/model"
	"auth-backend/pkg/core/user/repository/dao"
	"auth-backend/pkg/web/model"
)

const (
	msgUsernameInUse    = "This username is already in use."
	msgEmailInUse       = "This email is already in use."
	msgUsernameRequired = "Username is a required field."
	msgUsernameTooLong  = "Username cannot exceed 20 characters."
	msgPasswordTooShort = "Password must be at least 6 characters."
	msgLoginNoUsername  = "username is required!"
	msgLoginNoPassword  = "Password is required!"
	msgNoUserFound      = "No user found with this username."
	msgWrongPassword    = "The password is incorrect."
	msgUserNotFound     = "User not found."
	msgNoRefreshToken   = "User does not have a refresh token."
	msgInvalidRefresh   = "Invalid refresh token."
	msgInternalError    = "Internal server error."
	msgNoContent        = "No content."
)

const maxUsernameLen = 20
const minPasswordLen = 6

type AuthHandler struct {
	Users  dao.UserRepository
	Tokens *token.Issuer
	Cookie config.CookieConfig
}

func NewAuthHandler(users dao.UserRepository, tokens *token.Issuer, cookie config.CookieConfig) *AuthHandler {
	return &AuthHandler{
		Users:  users,
		Tokens: tokens,
		Cookie: cookie,
	}
}

// Register creates a user and issues the first token pair.
// Check order: duplicates, then field lengths, then creation.
func (h *AuthHandler) Register(ctx context.Context, c *app.RequestContext) {
	var req model.RegisterReq
	if err := c.Bind(&req); err != nil {
		respond(c, model.NewFailure(400, err.Error()))
		return
	}

	exists, err := h.Users.IsUsernameExists(req.Username)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if exists {
		respond(c, model.NewFailure(409, msgUsernameInUse))
		return
	}

	exists, err = h.Users.IsEmailExists(req.Email)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if exists {
		respond(c, model.NewFailure(409, msgEmailInUse))
		return
	}

	if len(req.Username) < 1 {
		respond(c, model.NewFailure(400, msgUsernameRequired))
		return
	}
	if len(req.Username) > maxUsernameLen {
		respond(c, model.NewFailure(400, msgUsernameTooLong))
		return
	}
	if len(req.Password) < minPasswordLen {
		respond(c, model.NewFailure(400, msgPasswordTooShort))
		return
	}

	hashedPwd, err := password.Hash(req.Password)
	if err != nil {
		h.internalError(c, err)
		return
	}

	accessToken, err := h.Tokens.IssueAccessToken(req.Username)
	if err != nil {
		h.internalError(c, err)
		return
	}
	refreshToken, err := h.Tokens.IssueRefreshToken(req.Username)
	if err != nil {
		h.internalError(c, err)
		return
	}

	user := usermodel.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPwd,
		RefreshToken: refreshToken,
	}
	if err := h.Users.CreateUser(&user); err != nil {
		// A concurrent register can slip past the pre-checks and hit the
		// unique index instead.
		if errors.Is(err, apperrors.ErrDuplicateEntry) {
			msg := msgUsernameInUse
			if emailTaken, checkErr := h.Users.IsEmailExists(req.Email); checkErr == nil && emailTaken {
				msg = msgEmailInUse
			}
			respond(c, model.NewFailure(409, msg))
			return
		}
		h.internalError(c, err)
		return
	}

	h.setRefreshCookie(c, refreshToken)
	respond(c, model.NewSuccess(201, "New user "+user.Username+" created.", model.AuthPayload{
		ID:          user.ID,
		Username:    user.Username,
		AccessToken: accessToken,
	}))
}

// Login verifies credentials and rotates the stored refresh token.
func (h *AuthHandler) Login(ctx context.Context, c *app.RequestContext) {
	var req model.LoginReq
	if err := c.Bind(&req); err != nil {
		respond(c, model.NewFailure(400, err.Error()))
		return
	}

	if req.Username == "" {
		respond(c, model.NewFailure(422, msgLoginNoUsername))
		return
	}
	if req.Password == "" {
		respond(c, model.NewFailure(422, msgLoginNoPassword))
		return
	}

	user, err := h.Users.QueryByUsername(req.Username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			respond(c, model.NewFailure(401, msgNoUserFound))
			return
		}
		h.internalError(c, err)
		return
	}

	if !password.Verify(req.Password, user.PasswordHash) {
		respond(c, model.NewFailure(401, msgWrongPassword))
		return
	}

	accessToken, err := h.Tokens.IssueAccessToken(user.Username)
	if err != nil {
		h.internalError(c, err)
		return
	}
	refreshToken, err := h.Tokens.IssueRefreshToken(user.Username)
	if err != nil {
		h.internalError(c, err)
		return
	}

	// Last write wins between concurrent logins; the older session's cookie
	// stops matching the stored value.
	if err := h.Users.UpdateRefreshToken(user.ID, refreshToken); err != nil {
		h.internalError(c, err)
		return
	}

	h.setRefreshCookie(c, refreshToken)
	respond(c, model.NewSuccess(200, "User "+user.Username+" successfully logged in", model.AuthPayload{
		ID:          user.ID,
		Username:    user.Username,
		AccessToken: accessToken,
	}))
}

// Logout clears the stored refresh token for whichever row holds the cookie
// value. The token itself is the capability; no identity check is made.
func (h *AuthHandler) Logout(ctx context.Context, c *app.RequestContext) {
	cookie := string(c.Cookie(h.Cookie.Name))
	if cookie == "" {
		respond(c, model.NewSuccess(204, msgNoContent, nil))
		return
	}

	if _, err := h.Users.ClearRefreshTokenByValue(cookie); err != nil {
		h.internalError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	respond(c, model.NewSuccess(204, msgNoContent, nil))
}

// Refresh exchanges a stored refresh token for a new access token. The
// caller must present the current refresh token in the cookie; the path id
// alone proves nothing.
func (h *AuthHandler) Refresh(ctx context.Context, c *app.RequestContext) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond(c, model.NewFailure(404, msgUserNotFound))
		return
	}

	user, err := h.Users.QueryByID(userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			respond(c, model.NewFailure(404, msgUserNotFound))
			return
		}
		h.internalError(c, err)
		return
	}

	if user.RefreshToken == "" {
		respond(c, model.NewFailure(404, msgNoRefreshToken))
		return
	}

	presented := string(c.Cookie(h.Cookie.Name))
	if presented == "" || presented != user.RefreshToken {
		respond(c, model.NewFailure(401, msgInvalidRefresh))
		return
	}
	if _, err := h.Tokens.ParseRefreshToken(presented); err != nil {
		respond(c, model.NewFailure(401, msgInvalidRefresh))
		return
	}

	accessToken, err := h.Tokens.IssueAccessToken(user.Username)
	if err != nil {
		h.internalError(c, err)
		return
	}

	respond(c, model.NewSuccess(200, "Access token generated successfully.", model.AuthPayload{
		ID:          user.ID,
		Username:    user.Username,
		AccessToken: accessToken,
	}))
}

func (h *AuthHandler) setRefreshCookie(c *app.RequestContext, value string) {
	c.SetCookie(h.Cookie.Name, value, h.Cookie.MaxAge, "/", "",
		protocol.CookieSameSiteLaxMode, h.Cookie.Secure, h.Cookie.HTTPOnly)
}

func (h *AuthHandler) clearRefreshCookie(c *app.RequestContext) {
	c.SetCookie(h.Cookie.Name, "", -1, "/", "",
		protocol.CookieSameSiteLaxMode, h.Cookie.Secure, h.Cookie.HTTPOnly)
}

func (h *AuthHandler) internalError(c *app.RequestContext, err error) {
	hlog.Errorf("auth handler failure path=%s: %v", c.Path(), err)
	respond(c, model.NewFailure(500, msgInternalError))
}

func respond(c *app.RequestContext, resp model.Response) {
	c.JSON(resp.Code, resp)
}
