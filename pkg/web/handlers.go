package web

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-callpath/pkg/audiopath"
	"github.com/teslashibe/go-callpath/pkg/hub"
	"github.com/teslashibe/go-callpath/pkg/protocol"
)

// httpStatus maps a controller error to an HTTP status code
func httpStatus(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, audiopath.ErrInvalidRequest):
		return fiber.StatusBadRequest
	case errors.Is(err, audiopath.ErrInterrupted):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, audiopath.ErrClosed):
		return fiber.StatusGone
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) reply(c *fiber.Ctx, resp protocol.Response, err error) error {
	if err != nil {
		s.logger.Warn("request failed", "path", c.Path(), "status", resp.Status, "error", err)
	}
	return c.Status(httpStatus(err)).JSON(resp)
}

func (s *Server) lockContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), s.cfg.LockTimeout)
}

// handleModes lists the mode vocabulary
func (s *Server) handleModes(c *fiber.Ctx) error {
	return c.JSON(protocol.Modes())
}

// handleState returns the advisory controller state
func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.svc.State())
}

// parseMode accepts a mode name or a numeric mode code
func parseMode(raw string) protocol.SetPathRequest {
	if code, err := strconv.Atoi(raw); err == nil {
		return protocol.SetPathRequest{Code: &code}
	}
	return protocol.SetPathRequest{Mode: raw}
}

// handleSetPath applies a mode change
func (s *Server) handleSetPath(c *fiber.Ctx) error {
	raw := c.Params("mode")
	p, err := parseMode(raw).Path()
	if err != nil {
		resp := protocol.NewResponse(err)
		resp.Mode = raw
		return s.reply(c, resp, err)
	}

	ctx, cancel := s.lockContext(c)
	defer cancel()

	t, err := s.svc.Apply(ctx, p)
	resp := protocol.NewResponse(err)
	resp.Mode = p.String()
	resp.TransitionID = t.ID
	state := s.svc.State()
	resp.State = &state
	return s.reply(c, resp, err)
}

func (s *Server) handleSuspend(c *fiber.Ctx) error {
	return s.power(c, "suspend", s.svc.Suspend)
}

func (s *Server) handleResume(c *fiber.Ctx) error {
	return s.power(c, "resume", s.svc.Resume)
}

func (s *Server) power(c *fiber.Ctx, action string, fn func(context.Context) error) error {
	ctx, cancel := s.lockContext(c)
	defer cancel()

	err := fn(ctx)
	if msg, encErr := protocol.NewPowerMessage(action, err); encErr == nil {
		s.events.Publish(msg)
	}

	resp := protocol.NewResponse(err)
	state := s.svc.State()
	resp.State = &state
	return s.reply(c, resp, err)
}

// handleEventsWS streams events, starting with a state snapshot
func (s *Server) handleEventsWS(conn *websocket.Conn) {
	if msg, err := protocol.NewStateMessage(s.svc.State()); err == nil {
		if data, err := msg.Bytes(); err == nil {
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}

	client := hub.NewClient(s.events, conn)
	if client == nil {
		conn.WriteMessage(websocket.CloseMessage, []byte{})
		return
	}
	client.Run()
}
