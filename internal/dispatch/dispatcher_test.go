package dispatch

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/roomserver/internal/dependencies/mocks"
	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/protocol"
	"github.com/mcoot/roomserver/internal/services/registry"
	"github.com/mcoot/roomserver/internal/services/room"
	"github.com/mcoot/roomserver/internal/storage/memory"
	"github.com/mcoot/roomserver/internal/testutil"
)

type DispatcherSuite struct {
	suite.Suite
	sender     *mocks.MockSender
	notifier   *mocks.MockNotifier
	registry   *registry.Registry
	dispatcher *Dispatcher
	ctx        context.Context
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	logger := testutil.NopLogger()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.sender = mocks.NewMockSender()
	s.notifier = mocks.NewMockNotifier()
	s.registry = registry.New(memory.New(), clk, s.notifier,
		registry.Config{MaxRooms: 1, KeyHashCost: bcrypt.MinCost}, logger)
	rooms := room.NewController(s.registry, s.sender, clk, mocks.NewMockRandom(), s.notifier, logger)
	s.dispatcher = New(rooms, s.sender, logger)
	s.ctx = context.Background()
}

func (s *DispatcherSuite) send(conn model.ConnID, raw string) {
	s.dispatcher.HandleMessage(s.ctx, conn, []byte(raw))
}

func (s *DispatcherSuite) TestStartScenario() {
	s.send("c1", "proto=0;roomid=R1;key=_")
	s.send("c1", "proto=1;roomid=R1;name=A;key=_")
	s.send("c2", "proto=1;roomid=R1;name=B;key=_")
	s.send("c1", "proto=2;")
	s.send("c2", "proto=2;")

	for _, conn := range []model.ConnID{"c1", "c2"} {
		s.Equal([]protocol.Proto{
			protocol.ProtoNameChange,
			protocol.ProtoGetUserList,
			protocol.ProtoGetLevelList,
			protocol.ProtoStartGame,
		}, s.sender.Protos(conn))
		s.Equal("proto=4;0=A;1=B", s.sender.Raw(conn)[1])
	}

	r, err := s.registry.GetRoom(s.ctx, "R1")
	s.Require().NoError(err)
	s.Equal(model.PhasePlaying, r.Phase)
}

func (s *DispatcherSuite) TestWrongKeyRepliesInvalidKey() {
	s.send("c1", "proto=0;roomid=R1;key=s3cret")
	s.send("c2", "proto=1;roomid=R1;name=A;key=nope")

	s.Equal([]string{"proto=12;"}, s.sender.Raw("c2"))
	s.False(s.sender.WasClosed("c2"))
	r, _ := s.registry.GetRoom(s.ctx, "R1")
	s.Empty(r.Players)
}

func (s *DispatcherSuite) TestMissingKeyOnPrivateRoomIsInvalid() {
	s.send("c1", "proto=0;roomid=R1;key=s3cret")
	s.send("c2", "proto=1;roomid=R1;name=A")

	s.Equal([]string{"proto=12;"}, s.sender.Raw("c2"))
}

func (s *DispatcherSuite) TestRoomsFullRepliesAndCloses() {
	s.send("c1", "proto=0;roomid=R1")
	s.send("c2", "proto=0;roomid=R2")

	s.Equal([]string{"proto=9;"}, s.sender.Raw("c2"))
	s.True(s.sender.WasClosed("c2"))
	s.False(s.sender.WasClosed("c1"))
}

func (s *DispatcherSuite) TestDuplicateCreateIsSilent() {
	s.send("c1", "proto=0;roomid=R1")
	s.send("c2", "proto=0;roomid=R1")

	s.Empty(s.sender.Sent)
	s.Len(s.notifier.All(), 1)
}

func (s *DispatcherSuite) TestJoinDuringMatchRepliesAlreadyInGame() {
	s.send("c1", "proto=0;roomid=R1")
	s.send("c1", "proto=1;roomid=R1;name=A")
	s.send("c1", "proto=2;")
	s.send("c2", "proto=1;roomid=R1;name=B")

	s.Equal([]string{"proto=10;"}, s.sender.Raw("c2"))
}

func (s *DispatcherSuite) TestDeathScenario() {
	s.send("c1", "proto=0;roomid=R1")
	s.send("c1", "proto=1;roomid=R1;name=A")
	s.send("c2", "proto=1;roomid=R1;name=B")
	s.send("c3", "proto=1;roomid=R1;name=C")
	for _, c := range []model.ConnID{"c1", "c2", "c3"} {
		s.send(c, "proto=2;")
	}
	s.sender.Reset()

	s.send("c1", "proto=6;")
	s.send("c3", "proto=6;")

	s.Equal([]string{"proto=13;winner=B"}, s.sender.Raw("c2"))
	r, _ := s.registry.GetRoom(s.ctx, "R1")
	s.Equal(model.PhaseLobby, r.Phase)
}

func (s *DispatcherSuite) TestPowerupRelay() {
	s.send("c1", "proto=0;roomid=R1")
	s.send("c1", "proto=1;roomid=R1;name=A")
	s.send("c2", "proto=1;roomid=R1;name=B")
	s.sender.Reset()

	s.send("c1", "proto=5;powerup=2;attacking=B")
	s.send("c1", "proto=5;powerup=2")

	s.Equal([]string{"proto=5;powerup=2;user=A"}, s.sender.Raw("c2"))
	s.Empty(s.sender.Raw("c1"))
}

func (s *DispatcherSuite) TestRosterAndPing() {
	s.send("c1", "proto=0;roomid=R1")
	s.send("c1", "proto=1;roomid=R1;name=A")
	s.sender.Reset()

	s.send("c1", "proto=4;")
	s.send("c1", "proto=11;")
	s.send("c9", "proto=4;")

	s.Equal([]string{"proto=4;0=A", "proto=11;"}, s.sender.Raw("c1"))
	s.Empty(s.sender.Raw("c9"))
}

func (s *DispatcherSuite) TestLeaveRoomDeletesEmptyRoom() {
	s.send("c1", "proto=0;roomid=R1")
	s.send("c1", "proto=1;roomid=R1;name=A")

	s.send("c1", "proto=14;")

	_, err := s.registry.GetRoom(s.ctx, "R1")
	s.ErrorIs(err, model.ErrRoomNotFound)
	s.Contains(s.notifier.All(), "Room deleted: R1")
}

func (s *DispatcherSuite) TestDisconnectRemovesPlayer() {
	s.send("c1", "proto=0;roomid=R1")
	s.send("c1", "proto=1;roomid=R1;name=A")
	s.send("c2", "proto=1;roomid=R1;name=B")
	s.sender.Reset()

	s.dispatcher.HandleDisconnect(s.ctx, "c1")
	s.dispatcher.HandleDisconnect(s.ctx, "c1")
	s.dispatcher.HandleDisconnect(s.ctx, "never-joined")

	s.Equal([]string{"proto=4;0=B"}, s.sender.Raw("c2"))
}

func (s *DispatcherSuite) TestGarbageIsDropped() {
	s.send("c1", "hello")
	s.send("c1", "proto=oops;")
	s.send("c1", "proto=99;")
	s.send("c1", "proto=3;")
	s.send("c1", "proto=1;roomid=R1")

	s.Empty(s.sender.Sent)
	s.Empty(s.sender.Closed)
}

func (s *DispatcherSuite) TestNameWithDelimiterIsDropped() {
	s.send("c1", "proto=0;roomid=R1;key=s3cret-"+strings.Repeat("x", 80))
	s.send("c2", "proto=1;roomid=R1;name=a=b;key=s3cret-"+strings.Repeat("x", 80))

	s.Empty(s.sender.Sent)
	r, err := s.registry.GetRoom(s.ctx, "R1")
	s.Require().NoError(err)
	s.Empty(r.Players)

	s.send("c2", "proto=1;roomid=R1;name=ab;key=s3cret-"+strings.Repeat("x", 80))
	s.Equal([]protocol.Proto{protocol.ProtoNameChange}, s.sender.Protos("c2"))
}
