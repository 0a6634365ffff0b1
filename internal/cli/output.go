package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mcoot/roomserver/internal/api/response"
	"github.com/mcoot/roomserver/internal/protocol"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

// PrintEvent outputs one received protocol message, one line per message
func (o *Output) PrintEvent(msg protocol.Message) {
	evt := Event{
		Time:  time.Now(),
		Proto: msg.Proto.String(),
	}
	for _, f := range msg.Fields {
		evt.Fields = append(evt.Fields, f.Key+"="+f.Value)
	}

	if o.format == "json" {
		data, _ := json.Marshal(evt)
		fmt.Fprintln(o.w, string(data))
		return
	}
	fmt.Fprintf(o.w, "[%s] %s %s\n", evt.Time.Format("15:04:05"), evt.Proto, strings.Join(evt.Fields, " "))
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	case JoinResult:
		fmt.Fprintf(o.w, "Joined %s as %s\n", v.Room, v.Name)
	case PingResult:
		fmt.Fprintf(o.w, "Alive (%s)\n", v.RoundTrip)
	case response.RoomList:
		o.printRoomList(v)
	case response.Room:
		o.printRoom(v)
	case response.Stats:
		fmt.Fprintf(o.w, "Rooms: %d/%d\n", v.Rooms, v.MaxRooms)
		fmt.Fprintf(o.w, "Playing: %d\n", v.Playing)
		fmt.Fprintf(o.w, "Players: %d\n", v.Players)
		fmt.Fprintf(o.w, "Connections: %d\n", v.Clients)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// PingResult reports a protocol-level liveness round trip
type PingResult struct {
	RoundTrip time.Duration `json:"round_trip"`
}

// JoinResult is the name the server assigned on join
type JoinResult struct {
	Room string `json:"room"`
	Name string `json:"name"`
}

// Event is a received protocol message
type Event struct {
	Time   time.Time `json:"time"`
	Proto  string    `json:"proto"`
	Fields []string  `json:"fields,omitempty"`
}

func (o *Output) printRoomList(l response.RoomList) {
	if len(l.Rooms) == 0 {
		fmt.Fprintln(o.w, "No rooms")
		return
	}
	for _, r := range l.Rooms {
		visibility := "public"
		if !r.Public {
			visibility = "private"
		}
		fmt.Fprintf(o.w, "%-16s %-8s %-8s %d players\n", r.ID, visibility, r.Phase, len(r.Players))
	}
}

func (o *Output) printRoom(r response.Room) {
	fmt.Fprintf(o.w, "Room: %s\n", r.ID)
	fmt.Fprintf(o.w, "Public: %t\n", r.Public)
	fmt.Fprintf(o.w, "Phase: %s\n", r.Phase)
	fmt.Fprintf(o.w, "Round: %d\n", r.Round)
	fmt.Fprintf(o.w, "Players (%d):\n", len(r.Players))
	for _, p := range r.Players {
		var flags []string
		if p.Ready {
			flags = append(flags, "ready")
		}
		if r.Phase == "playing" && !p.Alive {
			flags = append(flags, "dead")
		}
		suffix := ""
		if len(flags) > 0 {
			suffix = " [" + strings.Join(flags, ", ") + "]"
		}
		fmt.Fprintf(o.w, "  - %s%s\n", p.Name, suffix)
	}
}
