package bloggerservice

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/sushihentaime/nanoblog/internal/common"
	"github.com/sushihentaime/nanoblog/internal/storage"
)

func setupTestEnvironment(t *testing.T) (*BloggerService, *sql.DB, *storage.MockObjectStore, func() error) {
	db := common.TestDB("file://../../migrations", t)
	store := new(storage.MockObjectStore)
	cache := common.NewCache(5*time.Minute, 10*time.Minute)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cleanup := func() error {
		cache.Flush()
		store.ExpectedCalls = nil
		store.Calls = nil

		_, err := db.Exec("DELETE FROM users")
		return err
	}

	return NewBloggerService(db, store, cache, logger), db, store, cleanup
}

// createUser inserts a user with its blogger profile and returns the user id.
func createUser(t *testing.T, s *BloggerService, db *sql.DB, username string) int {
	var id int
	err := db.QueryRow(`
		INSERT INTO users (username, email, first_name, last_name, password)
		VALUES ($1, $2, 'Test', 'User', 'x')
		RETURNING id`, username, username+"@example.com").Scan(&id)
	assert.NoError(t, err)

	err = common.WithTx(context.Background(), db, func(tx *sql.Tx) error {
		return s.CreateBlogger(tx, context.Background(), id)
	})
	assert.NoError(t, err)

	return id
}

func countFollows(t *testing.T, db *sql.DB) int {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM follows").Scan(&n)
	assert.NoError(t, err)
	return n
}

func TestCreateBloggerTwice(t *testing.T) {
	s, db, _, cleanup := setupTestEnvironment(t)
	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})

	id := createUser(t, s, db, "alice")

	err := common.WithTx(context.Background(), db, func(tx *sql.Tx) error {
		return s.CreateBlogger(tx, context.Background(), id)
	})
	assert.ErrorIs(t, err, ErrDuplicateBlogger)
}

func TestFollow(t *testing.T) {
	s, db, _, cleanup := setupTestEnvironment(t)

	testCases := []struct {
		name      string
		target    string
		times     int
		wantErr   error
		wantEdges int
	}{
		{name: "follow another user", target: "bob", times: 1, wantEdges: 1},
		{name: "follow twice", target: "bob", times: 2, wantEdges: 1},
		{name: "follow yourself", target: "alice", times: 1, wantEdges: 1},
		{name: "unknown user", target: "nobody", times: 1, wantErr: ErrNotFound, wantEdges: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Cleanup(func() {
				assert.NoError(t, cleanup())
			})

			alice := createUser(t, s, db, "alice")
			createUser(t, s, db, "bob")

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			for i := 0; i < tc.times; i++ {
				target, err := s.Follow(ctx, alice, tc.target)
				if tc.wantErr != nil {
					assert.ErrorIs(t, err, tc.wantErr)
					continue
				}
				assert.NoError(t, err)
				assert.Equal(t, tc.target, target.Username)
			}

			assert.Equal(t, tc.wantEdges, countFollows(t, db))
		})
	}
}

func TestUnfollow(t *testing.T) {
	s, db, _, cleanup := setupTestEnvironment(t)
	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	alice := createUser(t, s, db, "alice")
	bob := createUser(t, s, db, "bob")
	createUser(t, s, db, "carol")

	blogger, err := s.GetBlogger(ctx, alice)
	assert.NoError(t, err)

	// removing an absent edge is a no-op
	_, err = s.Unfollow(ctx, alice, "bob")
	assert.NoError(t, err)
	assert.Equal(t, 0, countFollows(t, db))

	_, err = s.Follow(ctx, alice, "bob")
	assert.NoError(t, err)
	_, err = s.Follow(ctx, alice, "carol")
	assert.NoError(t, err)

	following, err := s.IsFollowing(ctx, blogger.ID, bob)
	assert.NoError(t, err)
	assert.True(t, following)

	targets, err := s.Following(ctx, blogger.ID)
	assert.NoError(t, err)
	assert.Len(t, targets, 2)
	assert.Equal(t, "bob", targets[0].Username)
	assert.Equal(t, "carol", targets[1].Username)

	_, err = s.Unfollow(ctx, alice, "bob")
	assert.NoError(t, err)

	following, err = s.IsFollowing(ctx, blogger.ID, bob)
	assert.NoError(t, err)
	assert.False(t, following)

	_, err = s.Unfollow(ctx, alice, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, countFollows(t, db))
}

func TestFollowConcurrent(t *testing.T) {
	s, db, _, cleanup := setupTestEnvironment(t)
	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})

	alice := createUser(t, s, db, "alice")
	createUser(t, s, db, "bob")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Follow(context.Background(), alice, "bob")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, countFollows(t, db))
}

func TestUpdateProfile(t *testing.T) {
	s, db, store, cleanup := setupTestEnvironment(t)

	picture := func() *Picture {
		return &Picture{Filename: "me.png", ContentType: "image/png", Size: 5, Body: strings.NewReader("image")}
	}

	testCases := []struct {
		name      string
		setup     func(store *storage.MockObjectStore)
		input     ProfileInput
		wantErr   bool
		upstream  bool
		wantURL   string
		wantCalls int
	}{
		{
			name:  "bio and age",
			input: ProfileInput{Bio: "hello", Age: intptr(40)},
		},
		{
			name: "with picture",
			setup: func(store *storage.MockObjectStore) {
				store.On("Upload", mock.AnythingOfType("string"), "image/png").Return("https://bucket/pic.png", nil)
			},
			input:     ProfileInput{Bio: "hello", Picture: picture()},
			wantURL:   "https://bucket/pic.png",
			wantCalls: 1,
		},
		{
			name:    "invalid input never reaches the store",
			input:   ProfileInput{Age: intptr(-1), Picture: picture()},
			wantErr: true,
		},
		{
			name: "store unavailable",
			setup: func(store *storage.MockObjectStore) {
				store.On("Upload", mock.AnythingOfType("string"), "image/png").Return("", errors.New("connection reset"))
			},
			input:     ProfileInput{Bio: "hello", Picture: picture()},
			wantErr:   true,
			upstream:  true,
			wantCalls: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Cleanup(func() {
				assert.NoError(t, cleanup())
			})

			id := createUser(t, s, db, "alice")
			if tc.setup != nil {
				tc.setup(store)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			b, err := s.UpdateProfile(ctx, id, tc.input)
			assert.Len(t, store.Calls, tc.wantCalls)

			if tc.wantErr {
				assert.Error(t, err)
				var upErr common.UpstreamError
				assert.Equal(t, tc.upstream, errors.As(err, &upErr))

				stored, err := s.GetBlogger(ctx, id)
				assert.NoError(t, err)
				assert.Nil(t, stored.Bio)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tc.input.Bio, *b.Bio)
			if tc.wantURL != "" {
				assert.Equal(t, tc.wantURL, *b.ProfilePictureURL)

				url, err := s.PictureURL(ctx, b.ID)
				assert.NoError(t, err)
				assert.Equal(t, tc.wantURL, url)
			} else {
				_, err := s.PictureURL(ctx, b.ID)
				assert.ErrorIs(t, err, ErrNotFound)
			}
		})
	}
}

func TestUpdateProfileReplacesPicture(t *testing.T) {
	s, db, store, cleanup := setupTestEnvironment(t)
	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := createUser(t, s, db, "alice")

	store.On("Upload", mock.AnythingOfType("string"), "image/png").Return("https://bucket/first.png", nil).Once()
	first, err := s.UpdateProfile(ctx, id, ProfileInput{Picture: &Picture{ContentType: "image/png", Size: 1, Body: strings.NewReader("1")}})
	assert.NoError(t, err)
	oldKey := *first.pictureKey
	assert.True(t, strings.HasPrefix(oldKey, "profile-pictures/"))

	store.On("Upload", mock.AnythingOfType("string"), "image/png").Return("https://bucket/second.png", nil).Once()
	store.On("Delete", oldKey).Return(nil).Once()

	second, err := s.UpdateProfile(ctx, id, ProfileInput{Bio: "new", Picture: &Picture{ContentType: "image/png", Size: 1, Body: strings.NewReader("2")}})
	assert.NoError(t, err)
	assert.Equal(t, "https://bucket/second.png", *second.ProfilePictureURL)
	assert.NotEqual(t, oldKey, *second.pictureKey)
	store.AssertCalled(t, "Delete", oldKey)

	// a profile edit without a picture keeps the current one
	third, err := s.UpdateProfile(ctx, id, ProfileInput{Bio: "newer"})
	assert.NoError(t, err)
	assert.Equal(t, "https://bucket/second.png", *third.ProfilePictureURL)
}

func TestUpdateProfileConcurrentPictures(t *testing.T) {
	s, db, store, cleanup := setupTestEnvironment(t)
	t.Cleanup(func() {
		assert.NoError(t, cleanup())
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id := createUser(t, s, db, "alice")

	store.On("Upload", mock.AnythingOfType("string"), "image/png").Return("https://bucket/pic.png", nil)
	store.On("Delete", mock.AnythingOfType("string")).Return(nil)

	initial, err := s.UpdateProfile(ctx, id, ProfileInput{Picture: &Picture{ContentType: "image/png", Size: 1, Body: strings.NewReader("0")}})
	assert.NoError(t, err)
	initialKey := *initial.pictureKey

	const edits = 2
	var wg sync.WaitGroup
	for i := 0; i < edits; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpdateProfile(ctx, id, ProfileInput{Picture: &Picture{ContentType: "image/png", Size: 1, Body: strings.NewReader("x")}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	final, err := s.GetBlogger(ctx, id)
	assert.NoError(t, err)

	deleted := map[string]int{}
	for _, c := range store.Calls {
		if c.Method == "Delete" {
			deleted[c.Arguments.String(0)]++
		}
	}

	// each replaced picture is deleted once and the current one never
	assert.Len(t, deleted, edits)
	assert.Equal(t, 1, deleted[initialKey])
	assert.NotContains(t, deleted, *final.pictureKey)
	for key, n := range deleted {
		assert.Equal(t, 1, n, key)
	}
}
