package auth

import "errors"

var (
	ErrInvalidToken          = errors.New("invalid or expired token")
	ErrTokenExpired          = errors.New("token has expired")
	ErrTokenRevoked          = errors.New("token has been revoked")
	ErrEmployeeIDRequired    = errors.New("token carries no employee id")
	ErrNotSelf               = errors.New("employees may only act on their own attendance")
	ErrManagerAccessRequired = errors.New("manager or admin role required")
	ErrAdminAccessRequired   = errors.New("admin role required")
)
