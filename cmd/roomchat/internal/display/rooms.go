// Package display formats room registry entries for the command line.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/nfrund/roomchat/internal/domain"
)

// RoomDisplay is the public view of a room. It has no passcode field.
type RoomDisplay struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoomsTable writes rooms as an aligned table.
func RoomsTable(w io.Writer, rooms []domain.Room) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "ID\tNAME")
	fmt.Fprintln(tw, "--\t----")
	if len(rooms) == 0 {
		fmt.Fprintln(tw, "No rooms found")
	}
	for _, r := range rooms {
		fmt.Fprintf(tw, "%s\t%s\n", r.ID, truncateString(r.Name, 40))
	}
	return tw.Flush()
}

// RoomsJSON writes rooms as an indented JSON array.
func RoomsJSON(w io.Writer, rooms []domain.Room) error {
	out := make([]RoomDisplay, len(rooms))
	for i, r := range rooms {
		out[i] = RoomDisplay{ID: r.ID, Name: r.Name}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
