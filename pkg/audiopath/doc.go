// Package audiopath arbitrates the shared call-audio hardware path.
//
// A single Controller owns the speaker-amplifier enable line, the
// microphone switch and the voice-band codec. Callers request one of six
// call-audio modes with SetPath; the controller serializes requests behind
// a one-permit semaphore and applies each mode in pop-free order:
//
//   - mic switch or mic release notification
//   - codec speaker amplifier off (only when the target codec mode is off)
//   - codec path select
//   - speaker enable line
//   - codec speaker amplifier on (only when the target codec mode is not off)
//
// Codec behavior is supplied by platform backends bound into a Backends
// registry at attach time. Either slot may be left unbound; the controller
// logs the gap and applies the rest of the action.
//
// # Usage
//
//	backends := audiopath.NewBackends()
//	backends.BindCodecPathSelect(audiopath.PathSelectFunc(es8323.Select))
//	backends.BindSpeakerAmp(audiopath.SpeakerAmpFunc(rk610.SetSpeaker))
//
//	ctrl, err := audiopath.Attach(line, audiopath.WithBackends(backends))
//	if err != nil {
//	    return err
//	}
//	defer ctrl.Close()
//
//	if err := ctrl.SetPath(ctx, audiopath.Speaker); err != nil {
//	    return err
//	}
package audiopath
