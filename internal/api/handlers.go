package api

import (
	"context"
	"net/http"
	"time"

	"voice-agent-workers/internal/chat"
	apperrors "voice-agent-workers/internal/common/errors"
	"voice-agent-workers/internal/conversation/persona"
	"voice-agent-workers/internal/store"
	"voice-agent-workers/internal/tools"

	"github.com/gin-gonic/gin"
)

type chatHandler struct {
	svc   *chat.Service
	store store.Store
}

// POST /api/chat
func (h *chatHandler) Chat(c *gin.Context) {
	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.NewInvalidInputError("malformed chat request: "+err.Error()))
		return
	}
	req.Channel = "http"

	reply, err := h.svc.Handle(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// GET /api/conversations/:id
func (h *chatHandler) Conversation(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	conv, err := h.store.GetConversation(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	messages, err := h.store.ListMessages(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	actions, err := h.store.ListActions(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation": conv,
		"messages":     messages,
		"actions":      actions,
	})
}

type toolHandler struct {
	registry *tools.Registry
}

// GET /api/tools
func (h *toolHandler) List(c *gin.Context) {
	infos := make([]tools.Info, 0)
	for _, name := range h.registry.Names() {
		if info, ok := h.registry.Info(name); ok {
			infos = append(infos, info)
		}
	}
	c.JSON(http.StatusOK, gin.H{"tools": infos})
}

// GET /api/tools/:name
func (h *toolHandler) Info(c *gin.Context) {
	info, ok := h.registry.Info(c.Param("name"))
	if !ok {
		writeError(c, apperrors.NewUnknownActionError(c.Param("name"), h.registry.Names()))
		return
	}
	c.JSON(http.StatusOK, info)
}

// POST /api/tools/:name/run runs a tool directly, outside any conversation.
// The envelope is returned as is; tool failures are not HTTP errors.
func (h *toolHandler) Run(c *gin.Context) {
	params := map[string]interface{}{}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&params); err != nil {
			writeError(c, apperrors.NewInvalidInputError("parameters must be a JSON object"))
			return
		}
	}
	c.JSON(http.StatusOK, h.registry.Run(c.Request.Context(), c.Param("name"), params))
}

type personaHandler struct {
	catalog *persona.Catalog
}

// GET /api/personas
func (h *personaHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default":  h.catalog.DefaultKey(),
		"personas": h.catalog.List(),
	})
}

// GET /api/personas/:key
func (h *personaHandler) Get(c *gin.Context) {
	p, err := h.catalog.Get(c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type healthHandler struct {
	checks map[string]Checker
}

func (h *healthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *healthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}
