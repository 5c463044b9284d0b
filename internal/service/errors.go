package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service error so the HTTP layer can pick a status code.
type Kind int

const (
	KindInvalid Kind = iota + 1
	KindUnauthorized
	KindNotFound
	KindConflict
)

// Error is a client-facing failure. Anything that is not an *Error is
// treated as an internal failure by callers.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func invalidf(format string, args ...any) error {
	return &Error{Kind: KindInvalid, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrBillNotFound       = &Error{Kind: KindNotFound, Message: "账单不存在"}
	ErrUserNotFound       = &Error{Kind: KindNotFound, Message: "用户不存在"}
	ErrUsernameTaken      = &Error{Kind: KindConflict, Message: "用户名已存在"}
	ErrEmailTaken         = &Error{Kind: KindConflict, Message: "邮箱已存在"}
	ErrAccountExists      = &Error{Kind: KindConflict, Message: "用户名或邮箱已存在"}
	ErrBadCredentials     = &Error{Kind: KindUnauthorized, Message: "用户名或密码错误"}
	ErrAccountLocked      = &Error{Kind: KindUnauthorized, Message: "账户已锁定，请稍后再试"}
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Message: "无法验证凭据"}
	ErrWrongPassword      = &Error{Kind: KindInvalid, Message: "原密码错误"}
)

// KindOf returns the kind of err, or 0 for internal errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
