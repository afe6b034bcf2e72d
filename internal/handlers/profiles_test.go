package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"roomsync-service/internal/config"
	"roomsync-service/internal/mocks"
	"roomsync-service/internal/models"
)

func setupProfileRouter(handler *ProfileHandler, authorID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if authorID != "" {
		r.Use(func(c *gin.Context) {
			c.Set("authorID", authorID)
			c.Next()
		})
	}
	r.GET("/profiles", handler.GetProfiles)
	r.PUT("/profiles/me", handler.UpsertMyProfile)
	return r
}

func TestGetProfilesSuccess(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewProfileHandler(profileRepo, config.Default(), zerolog.Nop())
	router := setupProfileRouter(handler, "")

	profileRepo.On("GetByIDs", mock.Anything, []string{"u1", "u2"}).
		Return([]models.Profile{{ID: "u1", Username: "alice"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/profiles?ids=u1,%20u2,", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Profiles []models.Profile `json:"profiles"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	// Unknown ids are simply absent from the result.
	require.Len(t, resp.Profiles, 1)
	assert.Equal(t, "alice", resp.Profiles[0].Username)
	profileRepo.AssertExpectations(t)
}

func TestGetProfilesMissingIDs(t *testing.T) {
	handler := NewProfileHandler(new(mocks.ProfileRepositoryMock), config.Default(), zerolog.Nop())
	router := setupProfileRouter(handler, "")

	req := httptest.NewRequest(http.MethodGet, "/profiles", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpsertMyProfile(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewProfileHandler(profileRepo, config.Default(), zerolog.Nop())
	router := setupProfileRouter(handler, "user-1")

	want := models.Profile{ID: "user-1", Username: "alice", AvatarURL: ptr("/alice.png")}
	profileRepo.On("Upsert", mock.Anything, want).Return(want, nil).Once()

	body := bytes.NewBufferString(`{"username":"alice","avatar_url":"/alice.png"}`)
	req := httptest.NewRequest(http.MethodPut, "/profiles/me", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	profileRepo.AssertExpectations(t)
}

func TestUpsertMyProfileDefaultsUsername(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewProfileHandler(profileRepo, config.Default(), zerolog.Nop())
	router := setupProfileRouter(handler, "user-1")

	want := models.Profile{ID: "user-1", Username: "Anonymous"}
	profileRepo.On("Upsert", mock.Anything, want).Return(want, nil).Once()

	body := bytes.NewBufferString(`{"username":"   "}`)
	req := httptest.NewRequest(http.MethodPut, "/profiles/me", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	profileRepo.AssertExpectations(t)
}

func TestUpsertMyProfileAvatarOverride(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	cfg := config.Default()
	cfg.AvatarOverrides = []config.AvatarOverride{{Username: "Maddy", AvatarURL: "/maddy.png"}}
	handler := NewProfileHandler(profileRepo, cfg, zerolog.Nop())
	router := setupProfileRouter(handler, "user-2")

	// The override rule matches case-insensitively and wins over the payload.
	want := models.Profile{ID: "user-2", Username: "maddy", AvatarURL: ptr("/maddy.png")}
	profileRepo.On("Upsert", mock.Anything, want).Return(want, nil).Once()

	body := bytes.NewBufferString(`{"username":"maddy","avatar_url":"/other.png"}`)
	req := httptest.NewRequest(http.MethodPut, "/profiles/me", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	profileRepo.AssertExpectations(t)
}

func TestUpsertMyProfileAnonymousRejected(t *testing.T) {
	handler := NewProfileHandler(new(mocks.ProfileRepositoryMock), config.Default(), zerolog.Nop())
	router := setupProfileRouter(handler, "")

	body := bytes.NewBufferString(`{"username":"ghost"}`)
	req := httptest.NewRequest(http.MethodPut, "/profiles/me", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
