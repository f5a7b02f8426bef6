package handler

import (
	"context"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"

	apperrors "auth-backend/pkg/common/errors"
	"auth-backend/pkg/core/user/repository/dao"
	"auth-backend/pkg/web/model"
)

// IdentityKey is the request context key the access-token guard stores the
// authenticated username under.
const IdentityKey = "username"

type UserHandler struct {
	Users dao.UserRepository
}

func NewUserHandler(users dao.UserRepository) *UserHandler {
	return &UserHandler{Users: users}
}

// Me returns the profile of the authenticated user. The access-token guard
// runs before this handler and sets the identity.
func (h *UserHandler) Me(ctx context.Context, c *app.RequestContext) {
	identity, ok := c.Get(IdentityKey)
	if !ok {
		respond(c, model.NewFailure(401, "Unauthorized."))
		return
	}
	username, _ := identity.(string)

	user, err := h.Users.QueryByUsername(username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			respond(c, model.NewFailure(404, msgUserNotFound))
			return
		}
		hlog.Errorf("profile lookup failed for %q: %v", username, err)
		respond(c, model.NewFailure(500, msgInternalError))
		return
	}

	respond(c, model.NewSuccess(200, "OK", model.ProfileRes{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}))
}
