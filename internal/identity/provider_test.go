package identity

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsroom/internal/dependencies/mocks"
	"github.com/mcoot/rpsroom/internal/dependencies/random"
	"github.com/mcoot/rpsroom/internal/model"
	"github.com/mcoot/rpsroom/internal/testutil"
)

type failingStore struct {
	loadErr error
	saveErr error
	saves   int
}

func (s *failingStore) Load(ctx context.Context) (model.Identity, error) {
	return "", s.loadErr
}

func (s *failingStore) Save(ctx context.Context, id model.Identity) error {
	s.saves++
	return s.saveErr
}

type ProviderSuite struct {
	suite.Suite
	random *mocks.MockRandom
	ctx    context.Context
}

func TestProviderSuite(t *testing.T) {
	suite.Run(t, new(ProviderSuite))
}

func (s *ProviderSuite) SetupTest() {
	s.random = mocks.NewMockRandom()
	s.ctx = context.Background()
}

func (s *ProviderSuite) TestGeneratesAndPersistsOnFirstCall() {
	s.random.QueueUUID("uuid-1")
	store := NewMemoryStore()
	p := NewProvider(store, s.random, testutil.NopLogger())

	s.Equal(model.Identity("uuid-1"), p.GetOrCreate(s.ctx))

	persisted, err := store.Load(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.Identity("uuid-1"), persisted)
}

func (s *ProviderSuite) TestReturnsPersistedIdentityInNewProvider() {
	s.random.QueueUUID("uuid-1", "uuid-2")
	store := NewMemoryStore()

	first := NewProvider(store, s.random, testutil.NopLogger()).GetOrCreate(s.ctx)
	second := NewProvider(store, s.random, testutil.NopLogger()).GetOrCreate(s.ctx)

	s.Equal(first, second)
}

func (s *ProviderSuite) TestRepeatedCallsAreStable() {
	s.random.QueueUUID("uuid-1", "uuid-2")
	p := NewProvider(NewMemoryStore(), s.random, testutil.NopLogger())

	s.Equal(p.GetOrCreate(s.ctx), p.GetOrCreate(s.ctx))
}

func (s *ProviderSuite) TestSaveFailureStillYieldsIdentity() {
	s.random.QueueUUID("uuid-1", "uuid-2")
	store := &failingStore{loadErr: ErrNotFound, saveErr: errors.New("disk full")}
	p := NewProvider(store, s.random, testutil.NopLogger())

	s.Equal(model.Identity("uuid-1"), p.GetOrCreate(s.ctx))
	// Cached for the process even though nothing was persisted
	s.Equal(model.Identity("uuid-1"), p.GetOrCreate(s.ctx))
	s.Equal(1, store.saves)
}

func (s *ProviderSuite) TestLoadFailureGeneratesFreshIdentity() {
	s.random.QueueUUID("uuid-1")
	store := &failingStore{loadErr: errors.New("permission denied")}
	p := NewProvider(store, s.random, testutil.NopLogger())

	s.Equal(model.Identity("uuid-1"), p.GetOrCreate(s.ctx))
}

func (s *ProviderSuite) TestFileStoreRoundTrip() {
	path := filepath.Join(s.T().TempDir(), "nested", "identity")
	store := NewFileStore(path)

	_, err := store.Load(s.ctx)
	s.ErrorIs(err, ErrNotFound)

	p := NewProvider(store, random.New(), testutil.NopLogger())
	id := p.GetOrCreate(s.ctx)
	s.NotEmpty(id)

	data, err := os.ReadFile(path)
	s.Require().NoError(err)
	s.Equal(string(id), string(data))

	info, err := os.Stat(path)
	s.Require().NoError(err)
	s.Equal(os.FileMode(0600), info.Mode().Perm())

	reloaded := NewProvider(NewFileStore(path), random.New(), testutil.NopLogger()).GetOrCreate(s.ctx)
	s.Equal(id, reloaded)
}

func (s *ProviderSuite) TestFileStoreTreatsBlankFileAsMissing() {
	path := filepath.Join(s.T().TempDir(), "identity")
	s.Require().NoError(os.WriteFile(path, []byte("  \n"), 0600))

	_, err := NewFileStore(path).Load(s.ctx)
	s.ErrorIs(err, ErrNotFound)
}
