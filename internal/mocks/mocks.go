package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"roomsync-service/internal/models"
	"roomsync-service/internal/repositories"
	"roomsync-service/internal/roomsync"
)

type RoomRepositoryMock struct {
	mock.Mock
}

func (m *RoomRepositoryMock) GetByCode(ctx context.Context, code string) (models.Room, error) {
	args := m.Called(ctx, code)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) Create(ctx context.Context) (models.Room, error) {
	args := m.Called(ctx)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) Exists(ctx context.Context, roomID int64) (bool, error) {
	args := m.Called(ctx, roomID)
	return args.Bool(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, roomID int64, authorID *string, content string) (models.Message, error) {
	args := m.Called(ctx, roomID, authorID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListByRoom(ctx context.Context, roomID int64, after time.Time) ([]models.Message, error) {
	args := m.Called(ctx, roomID, after)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type ProfileRepositoryMock struct {
	mock.Mock
}

func (m *ProfileRepositoryMock) GetByIDs(ctx context.Context, ids []string) ([]models.Profile, error) {
	args := m.Called(ctx, ids)
	var profiles []models.Profile
	if val := args.Get(0); val != nil {
		profiles = val.([]models.Profile)
	}
	return profiles, args.Error(1)
}

func (m *ProfileRepositoryMock) Upsert(ctx context.Context, profile models.Profile) (models.Profile, error) {
	args := m.Called(ctx, profile)
	var out models.Profile
	if val := args.Get(0); val != nil {
		out = val.(models.Profile)
	}
	return out, args.Error(1)
}

type RoomResolverMock struct {
	mock.Mock
}

func (m *RoomResolverMock) ResolveRoom(ctx context.Context, code string) (models.Room, error) {
	args := m.Called(ctx, code)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

type HistoryLoaderMock struct {
	mock.Mock
}

func (m *HistoryLoaderMock) History(ctx context.Context, roomID int64, after time.Time) ([]models.Message, error) {
	args := m.Called(ctx, roomID, after)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type ProfileFetcherMock struct {
	mock.Mock
}

func (m *ProfileFetcherMock) FetchProfiles(ctx context.Context, ids []string) ([]models.Profile, error) {
	args := m.Called(ctx, ids)
	var profiles []models.Profile
	if val := args.Get(0); val != nil {
		profiles = val.([]models.Profile)
	}
	return profiles, args.Error(1)
}

type SenderMock struct {
	mock.Mock
}

func (m *SenderMock) Send(ctx context.Context, roomID int64, content string) error {
	args := m.Called(ctx, roomID, content)
	return args.Error(0)
}

var _ repositories.RoomRepository = (*RoomRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ProfileRepository = (*ProfileRepositoryMock)(nil)
var _ roomsync.RoomResolver = (*RoomResolverMock)(nil)
var _ roomsync.HistoryLoader = (*HistoryLoaderMock)(nil)
var _ roomsync.ProfileFetcher = (*ProfileFetcherMock)(nil)
var _ roomsync.Sender = (*SenderMock)(nil)
