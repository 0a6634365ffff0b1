package memory

import (
	"context"
	"testing"
	"time"

	"github.com/mcoot/roomserver/internal/model"
	"github.com/stretchr/testify/suite"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) room(id string) *model.Room {
	return &model.Room{
		ID:        model.RoomID(id),
		Phase:     model.PhaseLobby,
		CreatedAt: time.Now(),
	}
}

func (s *StorageSuite) TestSaveAndGetRoom() {
	err := s.storage.SaveRoom(s.ctx, s.room("R1"))
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRoom(s.ctx, "R1")
	s.Require().NoError(err)
	s.Equal(model.RoomID("R1"), retrieved.ID)
}

func (s *StorageSuite) TestGetRoomNotFound() {
	_, err := s.storage.GetRoom(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestRoomExists() {
	_ = s.storage.SaveRoom(s.ctx, s.room("R1"))

	exists, err := s.storage.RoomExists(s.ctx, "R1")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.storage.RoomExists(s.ctx, "R2")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *StorageSuite) TestDeleteRoom() {
	_ = s.storage.SaveRoom(s.ctx, s.room("R1"))

	s.Require().NoError(s.storage.DeleteRoom(s.ctx, "R1"))

	_, err := s.storage.GetRoom(s.ctx, "R1")
	s.ErrorIs(err, model.ErrRoomNotFound)
	count, _ := s.storage.CountRooms(s.ctx)
	s.Equal(0, count)
}

func (s *StorageSuite) TestDeleteMissingRoomIsNoop() {
	s.NoError(s.storage.DeleteRoom(s.ctx, "R1"))
}

func (s *StorageSuite) TestListRoomsKeepsCreationOrder() {
	_ = s.storage.SaveRoom(s.ctx, s.room("B"))
	_ = s.storage.SaveRoom(s.ctx, s.room("A"))
	_ = s.storage.SaveRoom(s.ctx, s.room("C"))
	_ = s.storage.SaveRoom(s.ctx, s.room("B")) // re-save keeps position
	_ = s.storage.DeleteRoom(s.ctx, "A")

	rooms, err := s.storage.ListRooms(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(rooms, 2)
	s.Equal(model.RoomID("B"), rooms[0].ID)
	s.Equal(model.RoomID("C"), rooms[1].ID)

	count, err := s.storage.CountRooms(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, count)
}
