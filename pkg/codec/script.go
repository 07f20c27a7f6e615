package codec

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/teslashibe/go-callpath/internal/log"
	"github.com/teslashibe/go-callpath/pkg/audiopath"
)

// Lua hook names a platform script may define.
const (
	hookSelectPath = "select_path"
	hookSetSpeaker = "set_speaker"
)

// ErrNoHooks is returned when a script defines neither hook.
var ErrNoHooks = errors.New("codec: script defines neither select_path nor set_speaker")

// Mixer sets a named mixer control.
type Mixer interface {
	Set(control, value string) error
}

// MixerFunc adapts a function to Mixer.
type MixerFunc func(control, value string) error

// Set calls f(control, value).
func (f MixerFunc) Set(control, value string) error { return f(control, value) }

// Script is a codec backend written in Lua. The script may define
//
//	function select_path(mode) ... end   -- mode is "off", "receiver", ...
//	function set_speaker(on) ... end     -- on is a boolean
//
// and can call mixer(control, value) and log(msg). A missing hook leaves
// its registry slot unbound.
type Script struct {
	mu     sync.Mutex
	state  *lua.LState
	mixer  Mixer
	logger *slog.Logger

	selectPath lua.LValue
	setSpeaker lua.LValue
}

// LoadScriptFile reads and loads a platform script from disk.
func LoadScriptFile(path string, mixer Mixer) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("codec: read script: %w", err)
	}
	return LoadScript(string(src), mixer)
}

// LoadScript compiles and runs src once to collect its hooks.
func LoadScript(src string, mixer Mixer) (*Script, error) {
	s := &Script{
		state:  lua.NewState(),
		mixer:  mixer,
		logger: log.With("component", "codec", "backend", "script"),
	}
	s.state.SetGlobal("mixer", s.state.NewFunction(s.luaMixer))
	s.state.SetGlobal("log", s.state.NewFunction(s.luaLog))

	if err := s.state.DoString(src); err != nil {
		s.state.Close()
		return nil, fmt.Errorf("codec: load script: %w", err)
	}

	s.selectPath = s.hook(hookSelectPath)
	s.setSpeaker = s.hook(hookSetSpeaker)
	if s.selectPath == nil && s.setSpeaker == nil {
		s.state.Close()
		return nil, ErrNoHooks
	}
	return s, nil
}

func (s *Script) hook(name string) lua.LValue {
	fn := s.state.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return nil
	}
	return fn
}

// HasSelectPath reports whether the script defines select_path.
func (s *Script) HasSelectPath() bool { return s.selectPath != nil }

// HasSetSpeaker reports whether the script defines set_speaker.
func (s *Script) HasSetSpeaker() bool { return s.setSpeaker != nil }

// SelectPath runs select_path(mode).
func (s *Script) SelectPath(mode audiopath.CodecMode) {
	s.call(hookSelectPath, s.selectPath, lua.LString(mode.String()))
}

// SetSpeakerAmp runs set_speaker(on).
func (s *Script) SetSpeakerAmp(on bool) {
	s.call(hookSetSpeaker, s.setSpeaker, lua.LBool(on))
}

// Bind installs only the hooks the script defines.
func (s *Script) Bind(b *audiopath.Backends) {
	if s.HasSelectPath() {
		b.BindCodecPathSelect(s)
	}
	if s.HasSetSpeaker() {
		b.BindSpeakerAmp(s)
	}
}

// Close releases the Lua state.
func (s *Script) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != nil {
		s.state.Close()
		s.state = nil
	}
}

func (s *Script) call(name string, fn lua.LValue, arg lua.LValue) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return
	}
	err := s.state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, arg)
	if err != nil {
		s.logger.Warn("script hook failed", "hook", name, "error", err)
	}
}

// luaMixer implements mixer(control, value) -> true | nil, err.
func (s *Script) luaMixer(L *lua.LState) int {
	control := L.CheckString(1)
	value := L.Get(2).String()
	if s.mixer == nil {
		L.Push(lua.LNil)
		L.Push(lua.LString("no mixer configured"))
		return 2
	}
	if err := s.mixer.Set(control, value); err != nil {
		s.logger.Warn("mixer set failed", "control", control, "value", value, "error", err)
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

// luaLog implements log(msg).
func (s *Script) luaLog(L *lua.LState) int {
	s.logger.Info(L.CheckString(1))
	return 0
}
