package tracking

import (
	"time"

	"backend-everywhere/internal/fix"
)

type Mode string

const (
	// ModeForeground follows the user closely while the map is open.
	ModeForeground Mode = "foreground"
	// ModeVisit is the background cadence used for visit detection.
	ModeVisit Mode = "visit"
)

func (m Mode) Options() (fix.Options, bool) {
	switch m {
	case ModeForeground:
		return fix.ForegroundOptions(), true
	case ModeVisit:
		return fix.VisitOptions(), true
	}
	return fix.Options{}, false
}

const PermissionGranted = "granted"

type StartRequest struct {
	Permission string `json:"permission"`
	Mode       Mode   `json:"mode"`
}

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Mode      Mode      `json:"mode"`
	StartedAt time.Time `json:"started_at"`
	State     string    `json:"state"`
}

type PushResult struct {
	Received int `json:"received"`
}
