package identity_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	uuidmocks "github.com/robalobadob/wordle/apps/go-client/internal/common/uuid/mocks"
	. "github.com/robalobadob/wordle/apps/go-client/internal/identity"
	"github.com/robalobadob/wordle/apps/go-client/internal/identity/mocks"
)

// StoreTestSuite runs the same contract against every backend.
type StoreTestSuite struct {
	suite.Suite
	open  func(t *testing.T) Store
	store Store
	ctx   context.Context
}

func (s *StoreTestSuite) SetupTest() {
	s.store = s.open(s.T())
	s.ctx = context.Background()
}

func (s *StoreTestSuite) TearDownTest() {
	s.NoError(s.store.Close())
}

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{open: func(*testing.T) Store { return NewMemoryStore() }})
}

func TestSQLiteStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{open: func(t *testing.T) Store {
		st, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "client.db"))
		require.NoError(t, err)
		return st
	}})
}

func (s *StoreTestSuite) TestGetMissingKey() {
	_, err := s.store.Get(s.ctx, KeyPlayerID)
	s.ErrorIs(err, ErrNotFound)
}

func (s *StoreTestSuite) TestSetOverwrites() {
	s.Require().NoError(s.store.Set(s.ctx, KeyUsername, "alice"))
	s.Require().NoError(s.store.Set(s.ctx, KeyUsername, "bob"))

	v, err := s.store.Get(s.ctx, KeyUsername)
	s.Require().NoError(err)
	s.Equal("bob", v)
}

func (s *StoreTestSuite) TestResultsNewestFirstAndDeduplicated() {
	at := time.Date(2025, 4, 5, 10, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.RecordResult(s.ctx, Result{Mode: ModeSolo, GameID: "g1", Won: true, Guesses: 3, TargetWord: "CRANE", FinishedAt: at}))
	s.Require().NoError(s.store.RecordResult(s.ctx, Result{Mode: ModeMultiplayer, GameID: "R1", Rank: 2, Points: 7, Guesses: 6, FinishedAt: at.Add(time.Minute)}))
	// Same game again: ignored.
	s.Require().NoError(s.store.RecordResult(s.ctx, Result{Mode: ModeSolo, GameID: "g1", Won: false, FinishedAt: at.Add(time.Hour)}))

	got, err := s.store.Results(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("R1", got[0].GameID)
	s.Equal(ModeMultiplayer, got[0].Mode)
	s.Equal(7, got[0].Points)
	s.Equal("g1", got[1].GameID)
	s.True(got[1].Won)
	s.True(at.Equal(got[1].FinishedAt))

	one, err := s.store.Results(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(one, 1)
}

func (s *StoreTestSuite) TestLoadOrCreateIsStable() {
	ctrl := gomock.NewController(s.T())
	ids := uuidmocks.NewMockUUID(ctrl)
	ids.EXPECT().NewUUID().Return("4f1c2b9a-0000-4000-8000-000000000001").Times(1)

	first, err := LoadOrCreate(s.ctx, s.store, ids, "")
	s.Require().NoError(err)
	s.Equal("4f1c2b9a-0000-4000-8000-000000000001", first.PlayerID)
	s.Equal("player-4f1c2b", first.Username)

	// Second load reuses the id: NewUUID is not called again.
	second, err := LoadOrCreate(s.ctx, s.store, ids, "")
	s.Require().NoError(err)
	s.Equal(first, second)

	renamed, err := LoadOrCreate(s.ctx, s.store, ids, "  alice ")
	s.Require().NoError(err)
	s.Equal(first.PlayerID, renamed.PlayerID)
	s.Equal("alice", renamed.Username)

	v, err := s.store.Get(s.ctx, KeyUsername)
	s.Require().NoError(err)
	s.Equal("alice", v)
}

func TestSetUsernameValidates(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	assert.ErrorIs(t, SetUsername(ctx, st, "   "), ErrInvalidUsername)
	assert.ErrorIs(t, SetUsername(ctx, st, "abcdefghijklmnopqrstu"), ErrInvalidUsername)
	assert.NoError(t, SetUsername(ctx, st, "ünïcode"))
}

func TestLoadOrCreatePropagatesStoreErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	ids := uuidmocks.NewMockUUID(ctrl)
	ctx := context.Background()

	st.EXPECT().Get(ctx, KeyPlayerID).Return("", errors.New("disk I/O error"))
	_, err := LoadOrCreate(ctx, st, ids, "")
	assert.ErrorContains(t, err, "load player id")

	st.EXPECT().Get(ctx, KeyPlayerID).Return("", ErrNotFound)
	ids.EXPECT().NewUUID().Return("id-1")
	st.EXPECT().Set(ctx, KeyPlayerID, "id-1").Return(errors.New("read-only"))
	_, err = LoadOrCreate(ctx, st, ids, "")
	assert.ErrorContains(t, err, "save player id")
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.db")
	ctx := context.Background()

	st, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, st.Set(ctx, KeyPlayerID, "p-123"))
	require.NoError(t, st.Close())

	// Migrations are recorded, so reopening does not re-apply them.
	st, err = OpenSQLite(path)
	require.NoError(t, err)
	defer st.Close()
	v, err := st.Get(ctx, KeyPlayerID)
	require.NoError(t, err)
	assert.Equal(t, "p-123", v)
}
