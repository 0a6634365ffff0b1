package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// CreateRoomRequest is a decoded CREATE_ROOM
type CreateRoomRequest struct {
	RoomID string
	Key    string
}

// NewUserRequest is a decoded NEW_USER
type NewUserRequest struct {
	RoomID string
	Name   string
	Key    string
}

// PowerupRequest is a decoded USE_POWEWRUP
type PowerupRequest struct {
	Powerup   int
	Attacking string
}

const defaultKey = "_"

func (m Message) require(key string) (string, error) {
	v, ok := m.Get(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingField, key)
	}
	return v, nil
}

func (m Message) keyOrDefault() string {
	if v, ok := m.Get("key"); ok && v != "" {
		return v
	}
	return defaultKey
}

// ParseCreateRoom reads roomid and key (defaults to "_")
func ParseCreateRoom(m Message) (CreateRoomRequest, error) {
	id, err := m.require("roomid")
	if err != nil {
		return CreateRoomRequest{}, err
	}
	return CreateRoomRequest{RoomID: id, Key: m.keyOrDefault()}, nil
}

// ParseNewUser reads roomid, name and key (defaults to "_")
func ParseNewUser(m Message) (NewUserRequest, error) {
	id, err := m.require("roomid")
	if err != nil {
		return NewUserRequest{}, err
	}
	name, err := m.require("name")
	if err != nil {
		return NewUserRequest{}, err
	}
	// Names are echoed back as roster values
	if strings.ContainsAny(name, "=;") {
		return NewUserRequest{}, fmt.Errorf("%w: name=%q", ErrInvalidField, name)
	}
	return NewUserRequest{RoomID: id, Name: name, Key: m.keyOrDefault()}, nil
}

// ParsePowerup reads powerup and attacking
func ParsePowerup(m Message) (PowerupRequest, error) {
	raw, err := m.require("powerup")
	if err != nil {
		return PowerupRequest{}, err
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return PowerupRequest{}, fmt.Errorf("%w: powerup=%q", ErrInvalidField, raw)
	}
	target, err := m.require("attacking")
	if err != nil {
		return PowerupRequest{}, err
	}
	return PowerupRequest{Powerup: id, Attacking: target}, nil
}
