package core

import (
	"fmt"
	"strings"
)

// ConnectionMode selects the real or demo trading server.
type ConnectionMode int

// Connection mode constants select the account type; the mode is appended to the endpoint path.
const (
	// ModeDemo connects to the demo server.
	ModeDemo ConnectionMode = iota
	// ModeReal connects to the real-money server.
	ModeReal
)

// String returns the path segment for the mode ("demo" or "real").
func (m ConnectionMode) String() string {
	return [...]string{
		"demo",
		"real",
	}[m]
}

// ParseConnectionMode parses "demo" or "real", case-insensitively.
func ParseConnectionMode(s string) (ConnectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "demo", "":
		return ModeDemo, nil
	case "real":
		return ModeReal, nil
	}
	return ModeDemo, fmt.Errorf("unknown connection mode %q", s)
}

// MarshalText implements encoding.TextMarshaler for ConnectionMode.
func (m ConnectionMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for ConnectionMode.
func (m *ConnectionMode) UnmarshalText(text []byte) error {
	mode, err := ParseConnectionMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}
