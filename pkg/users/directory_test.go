package users

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"catalogue/pkg/models"
	"catalogue/pkg/recordstore"
)

// DirectoryTestSuite tests the user directory and authenticator.
type DirectoryTestSuite struct {
	suite.Suite
	tempDir   string
	dbPath    string
	directory *Directory
	ctx       context.Context
}

// SetupSuite runs once before all tests.
func (s *DirectoryTestSuite) SetupSuite() {
	var err error
	s.tempDir, err = os.MkdirTemp("", "users-test-*")
	s.Require().NoError(err)
	s.ctx = context.Background()
}

// TearDownSuite runs once after all tests.
func (s *DirectoryTestSuite) TearDownSuite() {
	if s.tempDir != "" {
		os.RemoveAll(s.tempDir)
	}
}

// SetupTest runs before each test.
func (s *DirectoryTestSuite) SetupTest() {
	s.dbPath = filepath.Join(s.tempDir, "users.db")
	var err error
	s.directory, err = Open(s.ctx, s.dbPath)
	s.Require().NoError(err)
}

// TearDownTest runs after each test.
func (s *DirectoryTestSuite) TearDownTest() {
	if s.directory != nil {
		s.directory.Close()
	}
	os.Remove(s.dbPath)
	os.Remove(s.dbPath + "-wal")
	os.Remove(s.dbPath + "-shm")
}

// TestHashPassword tests that the hash is deterministic and depends on both inputs.
func (s *DirectoryTestSuite) TestHashPassword() {
	hash := HashPassword("alice", "secret")
	s.Len(hash, 64)
	s.Equal(hash, HashPassword("alice", "secret"))
	s.NotEqual(hash, HashPassword("alice", "other"))
	s.NotEqual(hash, HashPassword("bob", "secret"))
	s.NotContains(hash, "secret")
}

// TestAdminAuthenticates tests the built-in administrator credentials.
func (s *DirectoryTestSuite) TestAdminAuthenticates() {
	user, failure := s.directory.Authenticate(s.ctx, "admin", "letmein")
	s.Nil(failure)
	s.Require().NotNil(user)
	s.Equal("admin", user.ID)
	s.Equal(HashPassword("admin", "letmein"), user.PasswordHash)

	user, failure = s.directory.Authenticate(s.ctx, "admin", "wrong")
	s.Nil(user)
	s.Require().NotNil(failure)
	s.ErrorIs(failure, ErrMismatch)
	s.NotEmpty(failure.Reason)
}

// TestAdminIsNotShadowedByStore tests that a stored admin row cannot replace the built-in one.
func (s *DirectoryTestSuite) TestAdminIsNotShadowedByStore() {
	_, err := s.directory.stored.store.Run(s.ctx,
		`INSERT INTO users (user, passwd_hash) VALUES (?, ?)`, "admin", HashPassword("admin", "hijack"))
	s.Require().NoError(err)

	_, failure := s.directory.Authenticate(s.ctx, "admin", "letmein")
	s.Nil(failure)

	_, failure = s.directory.Authenticate(s.ctx, "admin", "hijack")
	s.NotNil(failure)

	list, err := s.directory.List(s.ctx)
	s.Require().NoError(err)
	s.Equal([]models.User{{ID: "admin"}}, list)
}

// TestListAlwaysIncludesAdmin tests the listing on an empty store.
func (s *DirectoryTestSuite) TestListAlwaysIncludesAdmin() {
	list, err := s.directory.List(s.ctx)
	s.Require().NoError(err)
	s.Equal([]models.User{{ID: "admin"}}, list)
}

// TestListAppendsAdmin tests that stored users come first and hashes are omitted.
func (s *DirectoryTestSuite) TestListAppendsAdmin() {
	s.Require().NoError(s.directory.Register(s.ctx, "alice", "secret"))
	s.Require().NoError(s.directory.Register(s.ctx, "bob", "hunter2"))

	list, err := s.directory.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.ElementsMatch([]models.User{{ID: "alice"}, {ID: "bob"}}, list[:2])
	s.Equal(models.User{ID: "admin"}, list[2])
}

// TestGet tests lookups across providers.
func (s *DirectoryTestSuite) TestGet() {
	admin, err := s.directory.Get(s.ctx, "admin")
	s.Require().NoError(err)
	s.Require().NotNil(admin)
	s.Equal(HashPassword("admin", "letmein"), admin.PasswordHash)

	s.Require().NoError(s.directory.Register(s.ctx, "alice", "secret"))
	alice, err := s.directory.Get(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().NotNil(alice)
	s.Equal(HashPassword("alice", "secret"), alice.PasswordHash)

	missing, err := s.directory.Get(s.ctx, "nobody")
	s.NoError(err)
	s.Nil(missing)
}

// TestCheckPasswordRoundTrip tests comparing pre-hashed passwords.
func (s *DirectoryTestSuite) TestCheckPasswordRoundTrip() {
	hash := HashPassword("alice", "secret")
	s.Require().NoError(s.directory.Add(s.ctx, "alice", hash))

	ok, err := s.directory.CheckPassword(s.ctx, "alice", hash)
	s.NoError(err)
	s.True(ok)

	ok, err = s.directory.CheckPassword(s.ctx, "alice", HashPassword("alice", "wrong"))
	s.ErrorIs(err, ErrMismatch)
	s.False(ok)

	ok, err = s.directory.CheckPassword(s.ctx, "alice", "secret")
	s.ErrorIs(err, ErrMismatch)
	s.False(ok)
}

// TestCheckPasswordUnknownUser tests the not found error.
func (s *DirectoryTestSuite) TestCheckPasswordUnknownUser() {
	ok, err := s.directory.CheckPassword(s.ctx, "nobody", HashPassword("nobody", "x"))
	s.ErrorIs(err, ErrNotFound)
	s.False(ok)
}

// TestAuthenticateStoredUser tests authentication of a registered user.
func (s *DirectoryTestSuite) TestAuthenticateStoredUser() {
	s.Require().NoError(s.directory.Register(s.ctx, "alice", "secret"))

	user, failure := s.directory.Authenticate(s.ctx, "alice", "secret")
	s.Nil(failure)
	s.Require().NotNil(user)
	s.Equal("alice", user.ID)

	_, failure = s.directory.Authenticate(s.ctx, "alice", "wrong")
	s.Require().NotNil(failure)
	s.ErrorIs(failure, ErrMismatch)

	_, failure = s.directory.Authenticate(s.ctx, "nobody", "secret")
	s.Require().NotNil(failure)
	s.ErrorIs(failure, ErrNotFound)
}

// TestAddDuplicate tests unique user ids, including the reserved admin id.
func (s *DirectoryTestSuite) TestAddDuplicate() {
	s.Require().NoError(s.directory.Register(s.ctx, "alice", "secret"))
	s.ErrorIs(s.directory.Register(s.ctx, "alice", "other"), recordstore.ErrConflict)
	s.ErrorIs(s.directory.Register(s.ctx, "admin", "other"), recordstore.ErrConflict)
}

// TestRemove tests removing stored users and ignoring built-in ones.
func (s *DirectoryTestSuite) TestRemove() {
	s.Require().NoError(s.directory.Register(s.ctx, "alice", "secret"))

	removed, err := s.directory.Remove(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(int64(1), removed)

	removed, err = s.directory.Remove(s.ctx, "admin")
	s.Require().NoError(err)
	s.Equal(int64(0), removed)

	admin, err := s.directory.Get(s.ctx, "admin")
	s.Require().NoError(err)
	s.NotNil(admin)
}

// TestSessions tests the session identity mapping.
func (s *DirectoryTestSuite) TestSessions() {
	s.Require().NoError(s.directory.Register(s.ctx, "alice", "secret"))

	sessionID := s.directory.Serialize(models.User{ID: "alice"})
	s.Equal("alice", sessionID)

	user, err := s.directory.Deserialize(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Equal("alice", user.ID)

	_, err = s.directory.Remove(s.ctx, "alice")
	s.Require().NoError(err)

	user, err = s.directory.Deserialize(s.ctx, sessionID)
	s.ErrorIs(err, ErrSessionInvalid)
	s.Nil(user)

	admin, err := s.directory.Deserialize(s.ctx, "admin")
	s.Require().NoError(err)
	s.Equal("admin", admin.ID)
}

func TestDirectorySuite(t *testing.T) {
	suite.Run(t, new(DirectoryTestSuite))
}
