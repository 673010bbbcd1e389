package solo

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/robalobadob/wordle/apps/go-client/internal/fakeserver"
	"github.com/robalobadob/wordle/apps/go-client/internal/game"
	"github.com/robalobadob/wordle/apps/go-client/internal/identity"
	"github.com/robalobadob/wordle/apps/go-client/internal/remote"
	"github.com/robalobadob/wordle/apps/go-client/internal/remote/mocks"
)

type SessionTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	client  *mocks.MockClient
	session *Session
	ctx     context.Context
}

func (s *SessionTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.client = mocks.NewMockClient(s.ctrl)
	sess, err := New(&Config{Client: s.client})
	s.Require().NoError(err)
	s.session = sess
	s.ctx = context.Background()
}

func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

func (s *SessionTestSuite) start() {
	s.client.EXPECT().CreateGame(gomock.Any(), game.MaxRounds).
		Return(&game.GameState{GameID: "g1", MaxRounds: game.MaxRounds}, nil)
	_, err := s.session.NewGame(s.ctx)
	s.Require().NoError(err)
}

func (s *SessionTestSuite) typeWord(w string) {
	for _, r := range w {
		s.Require().True(s.session.TypeLetter(r))
	}
}

func (s *SessionTestSuite) TestGuessWithoutGame() {
	_, err := s.session.Guess(s.ctx)
	s.ErrorIs(err, ErrNoGame)
	s.False(s.session.TypeLetter('a'))
}

func (s *SessionTestSuite) TestShortGuessRefusedLocally() {
	s.start()
	s.typeWord("abc")
	_, err := s.session.Guess(s.ctx)
	s.ErrorIs(err, game.ErrGuessLength)
	s.Equal("ABC", s.session.Buffer())
}

func (s *SessionTestSuite) TestWordNotFoundKeepsBuffer() {
	s.start()
	s.typeWord("zzzzz")
	s.client.EXPECT().Guess(gomock.Any(), "g1", "ZZZZZ").
		Return(nil, &remote.Error{Kind: remote.KindWordNotFound, Status: 422, Message: "not in our dictionary"})

	_, err := s.session.Guess(s.ctx)
	s.Equal(remote.KindWordNotFound, remote.KindOf(err))
	s.Equal("ZZZZZ", s.session.Buffer())
	s.Equal(err, s.session.View().Err)
}

func (s *SessionTestSuite) TestNetworkErrorClearsBuffer() {
	s.start()
	s.typeWord("crate")
	s.client.EXPECT().Guess(gomock.Any(), "g1", "CRATE").
		Return(nil, &remote.Error{Kind: remote.KindNetwork, Message: "down"})

	_, err := s.session.Guess(s.ctx)
	s.True(remote.IsRetryable(err))
	s.Empty(s.session.Buffer())
}

func (s *SessionTestSuite) TestRefreshIgnoresOlderState() {
	s.start()
	s.typeWord("crate")
	s.client.EXPECT().Guess(gomock.Any(), "g1", "CRATE").
		Return(&game.GameState{GameID: "g1", MaxRounds: 6, CurrentRound: 1,
			Guesses: [][]game.GuessResult{make([]game.GuessResult, 5)}}, nil)
	_, err := s.session.Guess(s.ctx)
	s.Require().NoError(err)

	s.client.EXPECT().GetGame(gomock.Any(), "g1").Return(&game.GameState{GameID: "g1", MaxRounds: 6}, nil)
	gs, err := s.session.Refresh(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, gs.CurrentRound)
}

func (s *SessionTestSuite) TestAbandonForgetsGame() {
	s.start()
	s.client.EXPECT().DeleteGame(gomock.Any(), "g1").Return(nil)
	s.Require().NoError(s.session.Abandon(s.ctx))
	s.Nil(s.session.View().Game)
	s.ErrorIs(s.session.Abandon(s.ctx), ErrNoGame)
}

func TestNewValidates(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
	_, err = New(&Config{})
	assert.Error(t, err)
}

func TestPlayAgainstServer(t *testing.T) {
	fake := fakeserver.New(fakeserver.Options{Answer: "CRANE", Words: []string{"CRATE", "SLATE"}})
	srv := httptest.NewServer(fake)
	defer srv.Close()

	store := identity.NewMemoryStore()
	defer store.Close()
	finished := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	sess, err := New(&Config{
		Client:   remote.NewHTTPClient(remote.Options{BaseURL: srv.URL, RateLimit: -1}),
		Recorder: store,
		Now:      func() time.Time { return finished },
	})
	require.NoError(t, err)
	ctx := context.Background()

	gs, err := sess.NewGame(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, gs.CurrentRound)

	typeWord := func(w string) {
		for _, r := range w {
			require.True(t, sess.TypeLetter(r))
		}
	}

	typeWord("qqqqq")
	_, err = sess.Guess(ctx)
	assert.Equal(t, remote.KindWordNotFound, remote.KindOf(err))
	assert.Equal(t, "QQQQQ", sess.Buffer())
	sess.ClearBuffer()

	typeWord("crate")
	gs, err = sess.Guess(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, gs.CurrentRound)
	assert.Empty(t, gs.TargetWord)

	typeWord("crane")
	gs, err = sess.Guess(ctx)
	require.NoError(t, err)
	assert.True(t, gs.GameOver)
	assert.True(t, gs.Won)
	assert.Equal(t, "CRANE", gs.TargetWord)

	_, err = sess.Guess(ctx)
	assert.ErrorIs(t, err, ErrGameOver)

	results, err := store.Results(ctx, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, identity.Result{
		Mode: identity.ModeSolo, GameID: gs.GameID, Won: true, Guesses: 2,
		TargetWord: "CRANE", FinishedAt: finished,
	}, results[0])
}
