package model

// Request payloads. Length/presence rules are enforced in the handlers so
// the error ordering stays explicit.
type (
	RegisterReq struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
	}

	LoginReq struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
)

// AuthPayload is the data block returned by register, login and refresh.
type AuthPayload struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	AccessToken string `json:"accessToken"`
}

// ProfileRes is the data block returned by the authenticated profile route.
type ProfileRes struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Response is the uniform envelope every handler returns.
// Invariant: Success is true exactly when Error is null.
type Response struct {
	Code    int         `json:"code"`
	Success bool        `json:"success"`
	Error   *string     `json:"error"`
	Message *string     `json:"message"`
	Data    interface{} `json:"data"`
}

func NewSuccess(code int, message string, data interface{}) Response {
	return Response{
		Code:    code,
		Success: true,
		Error:   nil,
		Message: &message,
		Data:    data,
	}
}

func NewFailure(code int, errMsg string) Response {
	return Response{
		Code:    code,
		Success: false,
		Error:   &errMsg,
		Message: &errMsg,
		Data:    nil,
	}
}
