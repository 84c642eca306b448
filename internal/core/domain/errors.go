package domain

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrDuplicateRoom   = errors.New("room already exists")
	ErrAlreadyBound    = errors.New("connection already joined another room")
	ErrCallerPresent   = errors.New("room already has a caller")
	ErrUnknownTarget   = errors.New("target peer not in room")
	ErrNotFound        = errors.New("connection not found")
	ErrContactNotFound = errors.New("contact not found")
)
