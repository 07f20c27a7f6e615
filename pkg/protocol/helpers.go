package protocol

import "github.com/teslashibe/go-callpath/pkg/audiopath"

// =============================================================================
// NATS subjects
// =============================================================================

// DefaultSubjectPrefix is used when no device prefix is configured
const DefaultSubjectPrefix = "callpath.modem0"

// SetSubject carries SetPathRequest requests
func SetSubject(prefix string) string { return prefix + ".set" }

// GetSubject carries state queries
func GetSubject(prefix string) string { return prefix + ".get" }

// SuspendSubject carries suspend notifications
func SuspendSubject(prefix string) string { return prefix + ".suspend" }

// ResumeSubject carries resume notifications
func ResumeSubject(prefix string) string { return prefix + ".resume" }

// EventsSubject carries transition events
func EventsSubject(prefix string) string { return prefix + ".events" }

// CodecPathSubject carries CodecPathCommand messages to a remote codec
func CodecPathSubject(prefix string) string { return prefix + ".codec.path" }

// CodecAmpSubject carries SpeakerAmpCommand messages to a remote codec
func CodecAmpSubject(prefix string) string { return prefix + ".codec.amp" }

// =============================================================================
// Remote codec commands
// =============================================================================

// CodecPathCommand asks a remote codec to apply a path mode
type CodecPathCommand struct {
	Mode audiopath.CodecMode `json:"mode"`
}

// SpeakerAmpCommand asks a remote codec to switch its speaker amplifier
type SpeakerAmpCommand struct {
	On bool `json:"on"`
}
