package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-callpath/pkg/audiopath"
	"github.com/teslashibe/go-callpath/pkg/codec"
	"github.com/teslashibe/go-callpath/pkg/gpio"
	"github.com/teslashibe/go-callpath/pkg/protocol"
)

// fakeService returns canned errors and transitions
type fakeService struct {
	err        error
	transition audiopath.Transition
	state      audiopath.State
	calls      []string
}

func (f *fakeService) SetPath(ctx context.Context, p audiopath.Path) error {
	_, err := f.Apply(ctx, p)
	return err
}

func (f *fakeService) Apply(ctx context.Context, p audiopath.Path) (audiopath.Transition, error) {
	f.calls = append(f.calls, "set:"+p.String())
	return f.transition, f.err
}

func (f *fakeService) Current() audiopath.Path { return f.state.Path }
func (f *fakeService) State() audiopath.State  { return f.state }
func (f *fakeService) Suspend(ctx context.Context) error {
	f.calls = append(f.calls, "suspend")
	return f.err
}
func (f *fakeService) Resume(ctx context.Context) error {
	f.calls = append(f.calls, "resume")
	return f.err
}

func newTestServer(t *testing.T) (*Server, *audiopath.Controller, *gpio.Mem) {
	t.Helper()
	line := gpio.NewMem(0)
	backends := audiopath.NewBackends()
	codec.NewLog().Bind(backends)

	ctrl, err := audiopath.Attach(line, audiopath.WithBackends(backends))
	require.NoError(t, err)
	t.Cleanup(func() { ctrl.Close() })

	return NewServer(ctrl, nil, Config{LockTimeout: 100 * time.Millisecond}), ctrl, line
}

func do(t *testing.T, s *Server, method, target string) (int, protocol.Response) {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest(method, target, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out protocol.Response
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return resp.StatusCode, out
}

func TestModes(t *testing.T) {
	s, _, _ := newTestServer(t)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/modes", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var modes []protocol.ModeInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&modes))
	assert.Len(t, modes, 6)
}

func TestSetPath_ByName(t *testing.T) {
	s, ctrl, line := newTestServer(t)

	status, resp := do(t, s, http.MethodPut, "/api/path/earpiece")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, protocol.StatusOK, resp.Status)
	assert.Equal(t, "earpiece", resp.Mode)
	assert.NotEmpty(t, resp.TransitionID)
	require.NotNil(t, resp.State)
	assert.Equal(t, audiopath.Earpiece, resp.State.Path)

	assert.Equal(t, audiopath.Earpiece, ctrl.Current())
	v, err := line.Value()
	require.NoError(t, err)
	assert.Equal(t, audiopath.LineLow, v)
}

func TestSetPath_ByCode(t *testing.T) {
	s, ctrl, _ := newTestServer(t)

	status, _ := do(t, s, http.MethodPut, "/api/path/2")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, audiopath.Speaker, ctrl.Current())
}

func TestSetPath_Invalid(t *testing.T) {
	s, ctrl, _ := newTestServer(t)

	for _, target := range []string{"/api/path/loud", "/api/path/42", "/api/path/999"} {
		status, resp := do(t, s, http.MethodPut, target)
		assert.Equal(t, http.StatusBadRequest, status, target)
		assert.Equal(t, protocol.StatusInvalid, resp.Status, target)
	}
	assert.Equal(t, audiopath.Off, ctrl.Current())
}

func TestSetPath_WhileSuspended(t *testing.T) {
	s, ctrl, _ := newTestServer(t)
	require.NoError(t, ctrl.Suspend(context.Background()))

	status, resp := do(t, s, http.MethodPut, "/api/path/speaker")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, protocol.StatusOK, resp.Status)
	assert.True(t, resp.State.Suspended)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantHTTP   int
		wantStatus int
	}{
		{"interrupted", audiopath.ErrInterrupted, http.StatusServiceUnavailable, protocol.StatusInterrupted},
		{"closed", audiopath.ErrClosed, http.StatusGone, protocol.StatusClosed},
		{"hardware", &audiopath.StepError{Step: audiopath.StepSpeakerLine, Path: audiopath.Speaker, Err: io.ErrClosedPipe}, http.StatusInternalServerError, protocol.StatusHardware},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{err: tt.err}
			s := NewServer(svc, nil, Config{})

			status, resp := do(t, s, http.MethodPut, "/api/path/speaker")
			assert.Equal(t, tt.wantHTTP, status)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, []string{"set:speaker"}, svc.calls)
		})
	}
}

func TestSetPath_TransitionIDFromApply(t *testing.T) {
	svc := &fakeService{
		transition: audiopath.Transition{ID: "tr-42", Request: audiopath.Speaker},
		state:      audiopath.State{Path: audiopath.Earpiece, LastTransition: "tr-other"},
	}
	s := NewServer(svc, nil, Config{})

	status, resp := do(t, s, http.MethodPut, "/api/path/speaker")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "tr-42", resp.TransitionID)
	assert.Equal(t, "tr-other", resp.State.LastTransition)
}

func TestPower(t *testing.T) {
	s, ctrl, _ := newTestServer(t)

	status, resp := do(t, s, http.MethodPost, "/api/power/suspend")
	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, resp.State)
	assert.True(t, resp.State.Suspended)

	status, resp = do(t, s, http.MethodPost, "/api/power/resume")
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, resp.State.Suspended)

	ctrl.Close()
	status, resp = do(t, s, http.MethodPost, "/api/power/suspend")
	assert.Equal(t, http.StatusGone, status)
	assert.Equal(t, protocol.StatusClosed, resp.Status)
}

func TestState(t *testing.T) {
	s, _, _ := newTestServer(t)
	do(t, s, http.MethodPut, "/api/path/bluetooth")

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/state", nil), -1)
	require.NoError(t, err)

	var state audiopath.State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, audiopath.Bluetooth, state.Path)
	assert.True(t, state.PathSelectBound)
	assert.True(t, state.SpeakerAmpBound)
	assert.Equal(t, uint64(1), state.Transitions)
}

func TestEventsRequiresUpgrade(t *testing.T) {
	s, _, _ := newTestServer(t)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/ws/events", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}
