package domain

import "errors"

var (
	ErrNotJoined      = errors.New("connection has not joined a room")
	ErrUnknownConn    = errors.New("unknown connection")
	ErrSeatTaken      = errors.New("seat is already taken")
	ErrNotSeatHolder  = errors.New("seat is held by another connection")
	ErrDuplicateLogin = errors.New("user id is already bound to another connection")
)
