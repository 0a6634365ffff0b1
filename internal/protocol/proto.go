package protocol

import "strconv"

// Proto identifies the kind of a wire message
type Proto int

// Wire ids. The numbering is fixed by deployed clients.
const (
	ProtoNone             Proto = -1
	ProtoCreateRoom       Proto = 0
	ProtoNewUser          Proto = 1
	ProtoReadyUp          Proto = 2
	ProtoStartGame        Proto = 3
	ProtoGetUserList      Proto = 4
	ProtoUsePowerup       Proto = 5
	ProtoDied             Proto = 6
	ProtoNameChange       Proto = 7
	ProtoGetLevelList     Proto = 8
	ProtoRoomsFull        Proto = 9
	ProtoAlreadyInGame    Proto = 10
	ProtoCheckServerAlive Proto = 11
	ProtoInvalidKey       Proto = 12
	ProtoGrantWinner      Proto = 13
	ProtoLeaveRoom        Proto = 14
)

var protoNames = map[Proto]string{
	ProtoNone:             "NONE",
	ProtoCreateRoom:       "CREATE_ROOM",
	ProtoNewUser:          "NEW_USER",
	ProtoReadyUp:          "READY_UP",
	ProtoStartGame:        "START_GAME",
	ProtoGetUserList:      "GET_USER_LIST",
	ProtoUsePowerup:       "USE_POWEWRUP",
	ProtoDied:             "DIED",
	ProtoNameChange:       "NAME_CHANGE",
	ProtoGetLevelList:     "GET_LEVEL_LIST",
	ProtoRoomsFull:        "ROOMS_FULL",
	ProtoAlreadyInGame:    "ALREADY_IN_GAME",
	ProtoCheckServerAlive: "CHECK_SERVER_ALIVE",
	ProtoInvalidKey:       "INVALID_KEY",
	ProtoGrantWinner:      "GRANT_WINNER",
	ProtoLeaveRoom:        "LEAVE_ROOM",
}

func (p Proto) String() string {
	if name, ok := protoNames[p]; ok {
		return name
	}
	return "PROTO(" + strconv.Itoa(int(p)) + ")"
}

// ParseProto resolves a proto by its wire name, as used by the CLI
func ParseProto(name string) (Proto, bool) {
	for p, n := range protoNames {
		if n == name {
			return p, true
		}
	}
	return ProtoNone, false
}
