package poller_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	clockmocks "github.com/robalobadob/wordle/apps/go-client/internal/common/clock/mocks"
	"github.com/robalobadob/wordle/apps/go-client/internal/game"
	. "github.com/robalobadob/wordle/apps/go-client/internal/poller"
	"github.com/robalobadob/wordle/apps/go-client/internal/poller/mocks"
)

const (
	lobbyEvery = 2 * time.Second
	roomEvery  = time.Second
	waitFor    = 2 * time.Second
)

type SchedulerTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	fetcher *mocks.MockFetcher
	sink    *mocks.MockSink
	clock   *clockmocks.MockClock
	sched   *Scheduler
	got     chan Ticket
}

func (s *SchedulerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.fetcher = mocks.NewMockFetcher(s.ctrl)
	s.sink = mocks.NewMockSink(s.ctrl)
	s.clock = clockmocks.NewMockClock(s.ctrl)
	s.got = make(chan Ticket, 16)

	sched, err := New(&Config{
		Fetcher: s.fetcher,
		Sink:    s.sink,
		Clock:   s.clock,
		Timeout: 5 * time.Second,
	})
	s.Require().NoError(err)
	s.sched = sched
}

func (s *SchedulerTestSuite) TearDownTest() {
	s.sched.Close()
}

func TestSchedulerTestSuite(t *testing.T) {
	suite.Run(t, new(SchedulerTestSuite))
}

// ticker wires the next NewTicker(interval) call to a channel the test
// drives. The returned channel closes when the job stops its ticker.
func (s *SchedulerTestSuite) ticker(interval time.Duration) (chan<- time.Time, <-chan struct{}) {
	ticks := make(chan time.Time)
	stopped := make(chan struct{})
	tk := clockmocks.NewMockTicker(s.ctrl)
	tk.EXPECT().C().Return((<-chan time.Time)(ticks)).AnyTimes()
	tk.EXPECT().Stop().Do(func() { close(stopped) })
	s.clock.EXPECT().NewTicker(interval).Return(tk)
	return ticks, stopped
}

func (s *SchedulerTestSuite) expectLobbyDeliveries(n int) {
	s.sink.EXPECT().LobbyRooms(gomock.Any(), gomock.Any()).
		Do(func(t Ticket, _ []game.Room) { s.got <- t }).
		Times(n)
}

func (s *SchedulerTestSuite) expectRoomDeliveries() {
	s.sink.EXPECT().RoomSnapshot(gomock.Any(), gomock.Any()).
		Do(func(t Ticket, _ *game.Room) { s.got <- t }).
		AnyTimes()
}

func (s *SchedulerTestSuite) next() Ticket {
	select {
	case t := <-s.got:
		return t
	case <-time.After(waitFor):
		s.FailNow("no delivery")
	}
	return Ticket{}
}

func (s *SchedulerTestSuite) waitClosed(ch <-chan struct{}) {
	select {
	case <-ch:
	case <-time.After(waitFor):
		s.FailNow("ticker not stopped")
	}
}

func (s *SchedulerTestSuite) TestNewValidatesConfig() {
	_, err := New(nil)
	s.Error(err)
	_, err = New(&Config{Sink: s.sink})
	s.Error(err)
	_, err = New(&Config{Fetcher: s.fetcher})
	s.Error(err)

	sched, err := New(&Config{Fetcher: s.fetcher, Sink: s.sink})
	s.Require().NoError(err)
	s.Equal(DefaultTimeout, SchedulerTimeout(sched))
	s.NotNil(SchedulerClock(sched))
}

func (s *SchedulerTestSuite) TestLobbyFetchesImmediatelyThenOnTick() {
	ticks, _ := s.ticker(lobbyEvery)
	s.fetcher.EXPECT().ListRooms(gomock.Any()).Return([]game.Room{{RoomID: "R1", Status: game.RoomWaiting}}, nil).Times(2)
	s.expectLobbyDeliveries(2)

	s.sched.StartLobby(lobbyEvery)

	first := s.next()
	s.Equal(ScopeLobby, first.Scope)
	s.True(s.sched.Live(first))

	ticks <- time.Now()
	s.Equal(first, s.next())

	scope, room := s.sched.Active()
	s.Equal(ScopeLobby, scope)
	s.Empty(room)
}

func (s *SchedulerTestSuite) TestStartRoomCancelsLobby() {
	_, lobbyStopped := s.ticker(lobbyEvery)
	s.fetcher.EXPECT().ListRooms(gomock.Any()).Return([]game.Room{}, nil)
	s.expectLobbyDeliveries(1)

	s.sched.StartLobby(lobbyEvery)
	lobby := s.next()

	s.ticker(roomEvery)
	s.fetcher.EXPECT().GetRoom(gomock.Any(), "R1").Return(&game.Room{RoomID: "R1", Status: game.RoomWaiting}, nil)
	s.expectRoomDeliveries()

	s.sched.StartRoom("R1", roomEvery)
	s.False(s.sched.Live(lobby))
	s.waitClosed(lobbyStopped)

	room := s.next()
	s.Equal(ScopeRoom, room.Scope)
	s.Equal("R1", room.RoomID)
	s.Greater(room.Gen, lobby.Gen)
	s.True(s.sched.Live(room))

	scope, id := s.sched.Active()
	s.Equal(ScopeRoom, scope)
	s.Equal("R1", id)
}

func (s *SchedulerTestSuite) TestReentrantStartsAreNoOps() {
	s.ticker(lobbyEvery)
	s.fetcher.EXPECT().ListRooms(gomock.Any()).Return(nil, nil)
	s.expectLobbyDeliveries(1)

	s.sched.StartLobby(lobbyEvery)
	first := s.next()
	s.sched.StartLobby(lobbyEvery)
	s.True(s.sched.Live(first))

	s.ticker(roomEvery)
	s.fetcher.EXPECT().GetRoom(gomock.Any(), "R1").Return(&game.Room{RoomID: "R1", Status: game.RoomWaiting}, nil)
	s.expectRoomDeliveries()
	s.sched.StartRoom("R1", roomEvery)
	r1 := s.next()
	s.sched.StartRoom("R1", roomEvery)
	s.True(s.sched.Live(r1))

	// A different room restarts the job.
	s.ticker(roomEvery)
	s.fetcher.EXPECT().GetRoom(gomock.Any(), "R2").Return(&game.Room{RoomID: "R2", Status: game.RoomWaiting}, nil)
	s.sched.StartRoom("R2", roomEvery)
	r2 := s.next()
	s.Equal("R2", r2.RoomID)
	s.False(s.sched.Live(r1))
	s.True(s.sched.Live(r2))
}

func (s *SchedulerTestSuite) TestFailuresAreLoggedAndPollingContinues() {
	ticks, _ := s.ticker(lobbyEvery)
	gomock.InOrder(
		s.fetcher.EXPECT().ListRooms(gomock.Any()).Return(nil, errors.New("connection refused")),
		s.fetcher.EXPECT().ListRooms(gomock.Any()).Return([]game.Room{}, nil),
	)
	s.expectLobbyDeliveries(1)

	s.sched.StartLobby(lobbyEvery)
	// The unbuffered send only completes once the failed fetch has returned.
	ticks <- time.Now()
	s.Equal(ScopeLobby, s.next().Scope)
}

func (s *SchedulerTestSuite) TestLateResultIsDropped() {
	_, stopped := s.ticker(lobbyEvery)
	started := make(chan struct{})
	release := make(chan struct{})
	s.fetcher.EXPECT().ListRooms(gomock.Any()).DoAndReturn(func(ctx context.Context) ([]game.Room, error) {
		close(started)
		<-release
		return []game.Room{{RoomID: "R1", Status: game.RoomWaiting}}, nil
	})
	// No LobbyRooms expectation: a delivery fails the test.

	s.sched.StartLobby(lobbyEvery)
	<-started
	s.sched.Stop(ScopeLobby)
	close(release)
	s.waitClosed(stopped)

	scope, _ := s.sched.Active()
	s.Equal(ScopeNone, scope)
}

func (s *SchedulerTestSuite) TestStopIsScopedAndSafeWhenIdle() {
	s.sched.Stop(ScopeRoom)
	s.sched.StopAll()

	s.ticker(lobbyEvery)
	s.fetcher.EXPECT().ListRooms(gomock.Any()).Return(nil, nil)
	s.expectLobbyDeliveries(1)
	s.sched.StartLobby(lobbyEvery)
	lobby := s.next()

	// Stopping the other scope leaves the lobby running.
	s.sched.Stop(ScopeRoom)
	s.True(s.sched.Live(lobby))

	s.sched.StopAll()
	s.False(s.sched.Live(lobby))
}

func (s *SchedulerTestSuite) TestCloseRefusesNewJobs() {
	_, stopped := s.ticker(lobbyEvery)
	s.fetcher.EXPECT().ListRooms(gomock.Any()).Return(nil, nil)
	s.expectLobbyDeliveries(1)
	s.sched.StartLobby(lobbyEvery)
	s.next()

	s.sched.Close()
	s.waitClosed(stopped)

	// No NewTicker expectation remains, so these must not start anything.
	s.sched.StartLobby(lobbyEvery)
	s.sched.StartRoom("R1", roomEvery)
	scope, _ := s.sched.Active()
	s.Equal(ScopeNone, scope)
}

func (s *SchedulerTestSuite) TestFetchCarriesTimeout() {
	s.ticker(roomEvery)
	deadline := make(chan time.Duration, 1)
	s.fetcher.EXPECT().GetRoom(gomock.Any(), "R1").DoAndReturn(func(ctx context.Context, _ string) (*game.Room, error) {
		dl, ok := ctx.Deadline()
		s.True(ok)
		deadline <- time.Until(dl)
		return nil, context.DeadlineExceeded
	})

	s.sched.StartRoom("R1", roomEvery)
	select {
	case left := <-deadline:
		s.LessOrEqual(left, 5*time.Second)
		s.Greater(left, 4*time.Second)
	case <-time.After(waitFor):
		s.FailNow("fetch not issued")
	}
}

func TestScopeString(t *testing.T) {
	assert.Equal(t, "lobby", ScopeLobby.String())
	assert.Equal(t, "room", ScopeRoom.String())
	assert.Equal(t, "none", ScopeNone.String())
	assert.Equal(t, "Scope(7)", Scope(7).String())
}
