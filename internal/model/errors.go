package model

import "errors"

// Common errors used across the application
var (
	// Registry errors
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomExists    = errors.New("room already exists")
	ErrRoomsFull     = errors.New("room capacity reached")
	ErrInvalidRoomID = errors.New("invalid room id")

	// Membership errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrAlreadyInRoom  = errors.New("connection is already in a room")
	ErrInvalidKey     = errors.New("invalid room key")
	ErrAlreadyInGame  = errors.New("room has a match in progress")
	ErrTargetNotFound = errors.New("target player not found")
)
