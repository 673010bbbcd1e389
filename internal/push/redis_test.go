package push

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/robalobadob/wordle/apps/go-client/internal/game"
)

type RedisPushTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	bus    *Redis
}

func (s *RedisPushTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	s.client = redis.NewClient(&redis.Options{
		Addr: s.mr.Addr(),
	})

	bus, err := NewRedis(&RedisConfig{RedisClient: s.client})
	s.Require().NoError(err)
	s.bus = bus
}

func (s *RedisPushTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func TestRedisPushTestSuite(t *testing.T) {
	suite.Run(t, new(RedisPushTestSuite))
}

func (s *RedisPushTestSuite) TestNewRedisRejectsMissingClient() {
	_, err := NewRedis(nil)
	s.Error(err)

	_, err = NewRedis(&RedisConfig{})
	s.Error(err)
}

func (s *RedisPushTestSuite) TestPublishedEventIsDelivered() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.bus.Subscribe(ctx, "ROOM1")
	s.Require().NoError(err)

	room := &game.Room{RoomID: "ROOM1", CreatorID: "p1", MaxPlayers: 4, Status: game.RoomInProgress}
	s.Require().NoError(s.bus.Publish(ctx, "ROOM1", Event{Type: GameStarted, Room: room}))

	select {
	case ev := <-events:
		s.Equal(GameStarted, ev.Type)
		s.Equal("ROOM1", ev.RoomID)
		s.Require().NotNil(ev.Room)
		s.Equal(game.RoomInProgress, ev.Room.Status)
	case <-time.After(2 * time.Second):
		s.Fail("timed out waiting for event")
	}
}

func (s *RedisPushTestSuite) TestOtherRoomsAreNotDelivered() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.bus.Subscribe(ctx, "ROOM1")
	s.Require().NoError(err)

	s.Require().NoError(s.bus.Publish(ctx, "ROOM2", Event{Type: PlayerJoined, PlayerID: "p2"}))
	s.Require().NoError(s.bus.Publish(ctx, "ROOM1", Event{Type: PlayerJoined, PlayerID: "p3"}))

	select {
	case ev := <-events:
		s.Equal("p3", ev.PlayerID)
	case <-time.After(2 * time.Second):
		s.Fail("timed out waiting for event")
	}
}

func (s *RedisPushTestSuite) TestChannelClosesOnCancel() {
	ctx, cancel := context.WithCancel(context.Background())

	events, err := s.bus.Subscribe(ctx, "ROOM1")
	s.Require().NoError(err)
	cancel()

	s.Eventually(func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *RedisPushTestSuite) TestMalformedPayloadIsSkipped() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.bus.Subscribe(ctx, "ROOM1")
	s.Require().NoError(err)

	s.mr.Publish(Channel("ROOM1"), "{not json")
	s.Require().NoError(s.bus.Publish(ctx, "ROOM1", Event{Type: GameEnded, TargetWord: "CRANE"}))

	select {
	case ev := <-events:
		s.Equal(GameEnded, ev.Type)
		s.Equal("CRANE", ev.TargetWord)
	case <-time.After(2 * time.Second):
		s.Fail("timed out waiting for event")
	}
}
