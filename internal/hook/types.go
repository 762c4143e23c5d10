// Package hook runs external programs when the instrument fires a gesture.
//
// Each hook lives in its own directory under the hooks root with a hook.json
// manifest naming its executable and the events it wants. The executable
// receives one Request as JSON on stdin and answers with one Response on
// stdout.
package hook

// Manifest describes a hook.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	// Events lists the gesture events to receive. Empty means all of them.
	Events []string `json:"events"`
}

// Wants reports whether the hook subscribes to event.
func (m Manifest) Wants(event string) bool {
	if len(m.Events) == 0 {
		return true
	}
	for _, e := range m.Events {
		if e == event {
			return true
		}
	}
	return false
}

// Request is sent to a hook for each gesture.
type Request struct {
	Event     string  `json:"event"`
	Feedback  string  `json:"feedback"`
	Waveform  string  `json:"waveform"`
	DelayMix  float64 `json:"delay_mix"`
	Analog    bool    `json:"analog"`
	SessionID string  `json:"session_id,omitempty"`
}

// Response is what a hook prints on stdout.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}
