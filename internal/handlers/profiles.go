package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"roomsync-service/internal/config"
	"roomsync-service/internal/middleware"
	"roomsync-service/internal/models"
	"roomsync-service/internal/repositories"
)

// ProfileHandler serves author display metadata.
type ProfileHandler struct {
	profileRepo repositories.ProfileRepository
	cfg         config.Config
	log         zerolog.Logger
}

// NewProfileHandler builds a ProfileHandler.
func NewProfileHandler(profileRepo repositories.ProfileRepository, cfg config.Config, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{profileRepo: profileRepo, cfg: cfg, log: logger}
}

// GetProfiles returns profiles for a comma-separated ids query parameter.
// Unknown ids are omitted; the client substitutes its default avatar.
func (h *ProfileHandler) GetProfiles(c *gin.Context) {
	raw := c.Query("ids")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing ids"})
		return
	}

	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	profiles, err := h.profileRepo.GetByIDs(c.Request.Context(), ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profiles"})
		return
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

// UpsertMyProfile saves the caller's profile. Declarative avatar override
// rules from the configuration are evaluated here, at write time, so the
// synchronization core never special-cases individual accounts.
func (h *ProfileHandler) UpsertMyProfile(c *gin.Context) {
	authorID := middleware.AuthorID(c)
	if authorID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	var req struct {
		Username  string  `json:"username"`
		AvatarURL *string `json:"avatar_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = "Anonymous"
	}

	avatar := req.AvatarURL
	if override, ok := h.cfg.OverrideFor(username); ok {
		avatar = &override.AvatarURL
		h.log.Info().Str("username", username).Str("avatar", override.AvatarURL).
			Msg("avatar override applied")
	}

	profile, err := h.profileRepo.Upsert(c.Request.Context(), models.Profile{
		ID:        *authorID,
		Username:  username,
		AvatarURL: avatar,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save profile"})
		return
	}
	c.JSON(http.StatusOK, profile)
}
