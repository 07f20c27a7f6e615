package audiopath

import (
	"fmt"
	"strings"
)

// Path is a call-audio routing mode. The zero value is Off, which is also
// the state of a freshly attached controller.
type Path uint8

const (
	Off            Path = 0
	Earpiece       Path = 1
	Speaker        Path = 2
	HeadsetWithMic Path = 3
	HeadsetNoMic   Path = 4
	Bluetooth      Path = 5
)

var pathNames = map[Path]string{
	Off:            "off",
	Earpiece:       "earpiece",
	Speaker:        "speaker",
	HeadsetWithMic: "headset",
	HeadsetNoMic:   "headset-nomic",
	Bluetooth:      "bluetooth",
}

// Paths returns every known path in mode-code order.
func Paths() []Path {
	return []Path{Off, Earpiece, Speaker, HeadsetWithMic, HeadsetNoMic, Bluetooth}
}

// Valid reports whether p is one of the six known modes.
func (p Path) Valid() bool {
	_, ok := pathNames[p]
	return ok
}

// String returns the wire name of the path.
func (p Path) String() string {
	if name, ok := pathNames[p]; ok {
		return name
	}
	return fmt.Sprintf("path(%d)", uint8(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Path) UnmarshalText(text []byte) error {
	parsed, err := ParsePath(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePath resolves a wire name to a Path. Names are case-insensitive;
// "stop" is accepted as an alias for off.
func ParsePath(name string) (Path, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "stop" {
		return Off, nil
	}
	for p, n := range pathNames {
		if n == normalized {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRequest, name)
}

// CodecMode is the voice-band codec configuration applied for a path.
type CodecMode uint8

const (
	CodecOff CodecMode = iota
	CodecReceiver
	CodecSpeaker
	CodecHeadset
	CodecBluetooth
)

var codecNames = map[CodecMode]string{
	CodecOff:       "off",
	CodecReceiver:  "receiver",
	CodecSpeaker:   "speaker",
	CodecHeadset:   "headset",
	CodecBluetooth: "bluetooth",
}

func (m CodecMode) String() string {
	if name, ok := codecNames[m]; ok {
		return name
	}
	return fmt.Sprintf("codec(%d)", uint8(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m CodecMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *CodecMode) UnmarshalText(text []byte) error {
	for mode, name := range codecNames {
		if name == string(text) {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("audiopath: unknown codec mode %q", text)
}

// MicSelection is the microphone routing for a path.
type MicSelection uint8

const (
	// MicReleased hands the microphone back; no call input is routed.
	MicReleased MicSelection = iota
	MicHeadset
	MicMain
)

var micNames = map[MicSelection]string{
	MicReleased: "released",
	MicHeadset:  "headset",
	MicMain:     "main",
}

func (s MicSelection) String() string {
	if name, ok := micNames[s]; ok {
		return name
	}
	return fmt.Sprintf("mic(%d)", uint8(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s MicSelection) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *MicSelection) UnmarshalText(text []byte) error {
	for sel, name := range micNames {
		if name == string(text) {
			*s = sel
			return nil
		}
	}
	return fmt.Errorf("audiopath: unknown mic selection %q", text)
}

// Action is the hardware configuration derived from a Path.
type Action struct {
	Codec          CodecMode    `json:"codec"`
	Mic            MicSelection `json:"mic"`
	SpeakerEnabled bool         `json:"speaker_enabled"`
}

// actions is the fixed path mapping. Off drives the speaker line to its
// enable level; that is how the hardware is wired, do not "fix" it.
var actions = map[Path]Action{
	Earpiece:       {Codec: CodecReceiver, Mic: MicMain, SpeakerEnabled: false},
	Speaker:        {Codec: CodecSpeaker, Mic: MicMain, SpeakerEnabled: true},
	HeadsetWithMic: {Codec: CodecHeadset, Mic: MicHeadset, SpeakerEnabled: false},
	HeadsetNoMic:   {Codec: CodecHeadset, Mic: MicMain, SpeakerEnabled: false},
	Bluetooth:      {Codec: CodecBluetooth, Mic: MicReleased, SpeakerEnabled: false},
	Off:            {Codec: CodecOff, Mic: MicReleased, SpeakerEnabled: true},
}

// Resolve maps a path to its action. ok is false for unknown paths.
func Resolve(p Path) (action Action, ok bool) {
	action, ok = actions[p]
	return action, ok
}
