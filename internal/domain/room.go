package domain

// Room is a named, passcode-gated message channel from the static registry.
// Passcode is compared by exact string equality on the server that renders
// the client; it is an obscurity control, not an access boundary.
type Room struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Passcode string `json:"-"`
}
