package protocol

import (
	"errors"

	"github.com/teslashibe/go-callpath/pkg/audiopath"
)

// Status codes returned by every control surface. They keep the values an
// ioctl caller of the modem sound device would see.
const (
	StatusOK          = 0
	StatusInterrupted = -4  // EINTR
	StatusHardware    = -5  // EIO
	StatusClosed      = -19 // ENODEV
	StatusInvalid     = -22 // EINVAL
)

// StatusFromError maps a controller error to a status code
func StatusFromError(err error) int {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, audiopath.ErrInvalidRequest):
		return StatusInvalid
	case errors.Is(err, audiopath.ErrInterrupted):
		return StatusInterrupted
	case errors.Is(err, audiopath.ErrClosed):
		return StatusClosed
	default:
		return StatusHardware
	}
}

// StatusText names a status code
func StatusText(status int) string {
	switch status {
	case StatusOK:
		return "ok"
	case StatusInterrupted:
		return "interrupted"
	case StatusHardware:
		return "hardware error"
	case StatusClosed:
		return "device closed"
	case StatusInvalid:
		return "invalid argument"
	default:
		return "unknown"
	}
}

// SetPathRequest asks for a mode change. Mode is one of the six path names.
// Code may be used instead of Mode by callers that speak mode codes.
type SetPathRequest struct {
	Mode string `json:"mode,omitempty"`
	Code *int   `json:"code,omitempty"`
}

// Path resolves the request to a path. Unknown names, out-of-range codes
// and empty requests return audiopath.ErrInvalidRequest.
func (r SetPathRequest) Path() (audiopath.Path, error) {
	if r.Mode != "" {
		return audiopath.ParsePath(r.Mode)
	}
	if r.Code != nil {
		if *r.Code < 0 || *r.Code > 255 {
			return 0, audiopath.ErrInvalidRequest
		}
		// Range-checked codes go through; the controller rejects unknown ones.
		return audiopath.Path(*r.Code), nil
	}
	return 0, audiopath.ErrInvalidRequest
}

// Response is the reply of every control operation
type Response struct {
	Status       int              `json:"status"`
	StatusText   string           `json:"status_text"`
	Mode         string           `json:"mode,omitempty"`
	TransitionID string           `json:"transition_id,omitempty"`
	Error        string           `json:"error,omitempty"`
	State        *audiopath.State `json:"state,omitempty"`
}

// NewResponse builds a response for err
func NewResponse(err error) Response {
	status := StatusFromError(err)
	resp := Response{Status: status, StatusText: StatusText(status)}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// ModeInfo describes one entry of the mode vocabulary
type ModeInfo struct {
	Name           string `json:"name"`
	Code           int    `json:"code"`
	Codec          string `json:"codec"`
	Mic            string `json:"mic"`
	SpeakerEnabled bool   `json:"speaker_enabled"`
}

// Modes lists the public mode vocabulary
func Modes() []ModeInfo {
	paths := audiopath.Paths()
	modes := make([]ModeInfo, 0, len(paths))
	for _, p := range paths {
		action, _ := audiopath.Resolve(p)
		modes = append(modes, ModeInfo{
			Name:           p.String(),
			Code:           int(p),
			Codec:          action.Codec.String(),
			Mic:            action.Mic.String(),
			SpeakerEnabled: action.SpeakerEnabled,
		})
	}
	return modes
}
