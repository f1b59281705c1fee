package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"prop-sound/internal/logging"
	"prop-sound/internal/protocol"
	"prop-sound/internal/sound"
)

// API serves the control verbs over HTTP. Commands go through the same
// Dispatcher as the line protocol, so responses are identical; terminal
// events are written to the emitter given to NewAPI.
type API struct {
	svc      *sound.Service
	dispatch *Dispatcher
	log      zerolog.Logger
}

// NewAPI creates a new API handler.
func NewAPI(svc *sound.Service, events *protocol.Emitter, logger zerolog.Logger) *API {
	return &API{
		svc:      svc,
		dispatch: NewDispatcher(svc, events, LegacyMessageID, logger),
		log:      logging.Component(logger, "api"),
	}
}

// PlayRequest is the request body for the play endpoint.
type PlayRequest struct {
	Path      string `json:"path" binding:"required"`
	MessageID string `json:"message_id"`
}

// SoundInfo describes one live sound in the list endpoint.
type SoundInfo struct {
	SoundID          string   `json:"sound_id"`
	MessageID        string   `json:"messageId"`
	Path             string   `json:"path"`
	Pid              int      `json:"pid"`
	Status           string   `json:"status"`
	Elapsed          float64  `json:"elapsed"`
	ExpectedDuration *float64 `json:"expected_duration"`
}

// ListResponse is the response for the list endpoint.
type ListResponse struct {
	Count  int         `json:"count"`
	Sounds []SoundInfo `json:"sounds"`
}

// Play starts a sound.
func (a *API) Play(c *gin.Context) {
	soundID := c.Param("id")

	var req PlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, protocol.NewErrorResponse("", soundID, "invalid request: "+err.Error()))
		return
	}

	a.log.Info().Str("sound_id", soundID).Str("path", req.Path).Msg("play request")
	a.respond(c, protocol.Command{
		MessageID: a.messageID(req.MessageID),
		Verb:      protocol.VerbPlay,
		Args:      []string{soundID, req.Path},
	})
}

// Stop stops a sound.
func (a *API) Stop(c *gin.Context) {
	a.respond(c, protocol.Command{
		MessageID: a.messageID(c.Query("message_id")),
		Verb:      protocol.VerbStop,
		Args:      []string{c.Param("id")},
	})
}

// StopAll stops every live sound.
func (a *API) StopAll(c *gin.Context) {
	a.respond(c, protocol.Command{
		MessageID: a.messageID(c.Query("message_id")),
		Verb:      protocol.VerbStopAll,
	})
}

// Status reports whether a sound is playing.
func (a *API) Status(c *gin.Context) {
	a.respond(c, protocol.Command{
		MessageID: a.messageID(c.Query("message_id")),
		Verb:      protocol.VerbStatus,
		Args:      []string{c.Param("id")},
	})
}

// List returns every live sound.
func (a *API) List(c *gin.Context) {
	snaps := a.svc.List()
	sounds := make([]SoundInfo, len(snaps))
	for i, s := range snaps {
		sounds[i] = SoundInfo{
			SoundID:          s.SoundID,
			MessageID:        s.MessageID,
			Path:             s.Path,
			Pid:              s.Pid,
			Status:           s.Status.String(),
			Elapsed:          s.Elapsed.Seconds(),
			ExpectedDuration: seconds(s.ExpectedDuration),
		}
	}
	c.JSON(http.StatusOK, ListResponse{Count: len(sounds), Sounds: sounds})
}

func (a *API) respond(c *gin.Context, cmd protocol.Command) {
	resp, _ := a.dispatch.Handle(cmd)
	c.JSON(httpStatus(resp.Status), resp)
}

func (a *API) messageID(given string) string {
	if given != "" {
		return given
	}
	return LegacyMessageID()
}

func httpStatus(status string) int {
	switch status {
	case protocol.StatusNotFound:
		return http.StatusNotFound
	case protocol.StatusError:
		return http.StatusBadRequest
	default:
		return http.StatusOK
	}
}
