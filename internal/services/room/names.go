package room

import (
	"fmt"

	"github.com/mcoot/roomserver/internal/model"
)

// ResolveName truncates name and appends -1, -2, ... until it is unique
// within room
func ResolveName(room *model.Room, name string) string {
	base := truncate(name, model.MaxNameLength)
	candidate := base
	for i := 1; room.GetPlayerByName(candidate) != nil; i++ {
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return candidate
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
