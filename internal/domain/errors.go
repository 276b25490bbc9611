package domain

import "errors"

// Engine outcomes. All of them are recovered locally with a private notice.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
	ErrRoleFull        = errors.New("role is full")
	ErrUnknownRole     = errors.New("unknown role")
	ErrNotMember       = errors.New("not a member")
	ErrNotHost         = errors.New("only the host can close")
	ErrBadControl      = errors.New("malformed control identifier")
)

// Request validation.
var (
	ErrHostEmpty     = errors.New("host empty")
	ErrTitleEmpty    = errors.New("title empty")
	ErrTitleTooLong  = errors.New("title too long")
	ErrRoleCount     = errors.New("role count out of range")
	ErrRoleName      = errors.New("role name empty or contains ':'")
	ErrRoleDuplicate = errors.New("duplicate role name")
	ErrQuotaRange    = errors.New("quota out of range")
)

// ErrDelivery wraps gateway failures (send, edit, delete, room lifecycle).
var ErrDelivery = errors.New("delivery failed")
