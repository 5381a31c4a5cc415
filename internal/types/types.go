package types

import "github.com/amparooliver/frontend-Mastergoal/internal/session"

// ClientMessage is what a renderer sends over the websocket.
type ClientMessage struct {
	Type string `json:"type"` // "CellClicked" | "Refresh" | "Restart"
	Row  *int   `json:"row,omitempty"`
	Col  *int   `json:"col,omitempty"`
}

type ServerMessage struct {
	Type     string            `json:"type"` // "StateSnapshot" | "Error"
	Version  int               `json:"version,omitempty"`
	Snapshot *session.Snapshot `json:"snapshot,omitempty"`
	Error    string            `json:"error,omitempty"`
}
