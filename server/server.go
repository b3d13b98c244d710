// Package server exposes the generation pipeline and conversation store
// over HTTP. The chat endpoint streams round events as server-sent events;
// everything else is plain JSON.
package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	falaichat "github.com/laruss/falai-chat"
	"github.com/laruss/falai-chat/chatstore"
	"github.com/laruss/falai-chat/stream"
)

// Config holds the server's wiring.
type Config struct {
	// FrontendURL is the allowed CORS origin.
	FrontendURL string

	// StaticDir is served under /static (generated images).
	StaticDir string
}

// Server routes HTTP traffic to the pipeline and stores.
type Server struct {
	engine   *gin.Engine
	pipeline *falaichat.Pipeline
	chats    *chatstore.Store
	models   *falaichat.Manager
	logger   *slog.Logger
}

// New builds the router. A nil logger falls back to slog.Default().
func New(cfg Config, pipeline *falaichat.Pipeline, chats *chatstore.Store, models *falaichat.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine:   gin.New(),
		pipeline: pipeline,
		chats:    chats,
		models:   models,
		logger:   logger,
	}

	s.engine.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = []string{cfg.FrontendURL}
	corsCfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	s.engine.Use(cors.New(corsCfg))

	api := s.engine.Group("/api")
	api.POST("/chat", s.handleGenerate)
	api.POST("/chats", s.handleCreateChat)
	api.GET("/chats", s.handleListChats)
	api.GET("/chats/:id", s.handleGetChat)
	api.DELETE("/chats/:id", s.handleDeleteChat)
	api.GET("/models", s.handleListModels)

	if cfg.StaticDir != "" {
		s.engine.Static("/static", cfg.StaticDir)
	}

	return s
}

// Handler returns the root http.Handler for the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// chatRequest is the inbound generation request: the full prior transcript
// plus the newest user message.
type chatRequest struct {
	ID       string              `json:"id" binding:"required"`
	Messages []falaichat.Message `json:"messages" binding:"required"`
}

// handleGenerate runs one generation round. Resolution failures are reported
// as a JSON error before any stream begins; afterwards failures travel as
// terminal error events inside the stream.
func (s *Server) handleGenerate(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	round, err := s.pipeline.NewRound(req.ID, req.Messages)
	if err != nil {
		status := http.StatusInternalServerError
		if falaichat.IsConfigurationError(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	writer := stream.NewWriter(c.Writer)
	c.Status(http.StatusOK)

	if err := round.Stream(c.Request.Context(), writer); err != nil {
		s.logger.Error("generation round failed",
			"chat_id", req.ID,
			"error", err.Error(),
		)
	}
	if err := writer.Close(); err != nil {
		s.logger.Warn("failed to close event stream", "error", err.Error())
	}
}

func (s *Server) handleCreateChat(c *gin.Context) {
	id, err := s.chats.Create()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create conversation"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) handleListChats(c *gin.Context) {
	ids, err := s.chats.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ids": ids})
}

func (s *Server) handleGetChat(c *gin.Context) {
	messages, err := s.chats.Read(c.Param("id"))
	if err != nil {
		if errors.Is(err, chatstore.ErrNotFound) || errors.Is(err, chatstore.ErrInvalidID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read conversation"})
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (s *Server) handleDeleteChat(c *gin.Context) {
	if err := s.chats.Delete(c.Param("id")); err != nil {
		if errors.Is(err, chatstore.ErrNotFound) || errors.Is(err, chatstore.ErrInvalidID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete conversation"})
		return
	}
	c.Status(http.StatusNoContent)
}

// modelOption is one entry of the model picker payload.
type modelOption struct {
	Value             string `json:"value"`
	Label             string `json:"label"`
	Description       string `json:"description"`
	CanGenerateImages bool   `json:"canGenerateImages"`
	CanEditImages     bool   `json:"canEditImages"`
}

func (s *Server) handleListModels(c *gin.Context) {
	infos := s.models.Models()
	options := make([]modelOption, 0, len(infos))
	for _, info := range infos {
		options = append(options, modelOption{
			Value:             info.Name.String(),
			Label:             info.Label,
			Description:       info.Description,
			CanGenerateImages: info.Capabilities.CanGenerateImages,
			CanEditImages:     info.Capabilities.CanEditImages,
		})
	}
	c.JSON(http.StatusOK, gin.H{"models": options})
}
