// Package codec provides platform backends for the audiopath registry.
//
// Each backend implements audiopath.PathSelector and, where the platform
// has one, audiopath.SpeakerAmplifier, and knows how to Bind itself into
// an audiopath.Backends registry:
//
//   - NATS forwards codec commands to a remote codec daemon.
//   - Script runs a Lua platform script; only the hooks the script defines
//     are bound.
//   - Log records the calls without touching hardware (dry run).
//
// Amixer is a Mixer for scripts that drive ALSA mixer controls.
package codec

import "github.com/teslashibe/go-callpath/pkg/audiopath"

// Binder installs a backend into a registry.
type Binder interface {
	Bind(b *audiopath.Backends)
}
