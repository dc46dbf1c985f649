package bloggerservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sushihentaime/nanoblog/internal/common"
	"github.com/sushihentaime/nanoblog/internal/storage"
)

func NewBloggerService(db *sql.DB, store storage.ObjectStore, c *common.Cache, logger *slog.Logger) *BloggerService {
	return &BloggerService{
		db:     db,
		m:      newBloggerModel(db),
		store:  store,
		c:      c,
		logger: logger,
	}
}

// CreateBlogger adds the empty profile of a freshly registered user. It runs inside
// the caller's transaction.
func (s *BloggerService) CreateBlogger(tx *sql.Tx, ctx context.Context, userID int) error {
	return s.m.insertBlogger(tx, ctx, userID)
}

// GetBlogger returns the profile of userID.
func (s *BloggerService) GetBlogger(ctx context.Context, userID int) (*Blogger, error) {
	key := common.CacheKeyBloggerByUserID(userID)

	if s.c != nil {
		if cached, ok := s.c.Get(key); ok {
			return cached.(*Blogger), nil
		}
	}

	b, err := s.m.getBloggerByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.c != nil {
		s.c.Set(key, b)
	}

	return b, nil
}

// Follow adds targetUsername to the follow set of the acting user. Following an
// account twice, or following yourself, is allowed and changes nothing the second time.
func (s *BloggerService) Follow(ctx context.Context, actingUserID int, targetUsername string) (*Target, error) {
	return s.mutateFollow(ctx, actingUserID, targetUsername, s.m.insertFollow)
}

// Unfollow removes targetUsername from the follow set of the acting user. Removing an
// absent edge changes nothing.
func (s *BloggerService) Unfollow(ctx context.Context, actingUserID int, targetUsername string) (*Target, error) {
	return s.mutateFollow(ctx, actingUserID, targetUsername, s.m.deleteFollow)
}

func (s *BloggerService) mutateFollow(ctx context.Context, actingUserID int, targetUsername string, mutate func(tx *sql.Tx, ctx context.Context, bloggerID, userID int) error) (*Target, error) {
	var target *Target

	err := common.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		blogger, err := s.m.lockBloggerByUserID(tx, ctx, actingUserID)
		if err != nil {
			return err
		}

		target, err = s.m.getUserByUsername(tx, ctx, targetUsername)
		if err != nil {
			return err
		}

		return mutate(tx, ctx, blogger.ID, target.ID)
	})
	if err != nil {
		return nil, err
	}

	return target, nil
}

// IsFollowing reports whether the blogger follows userID.
func (s *BloggerService) IsFollowing(ctx context.Context, bloggerID, userID int) (bool, error) {
	return s.m.isFollowing(ctx, bloggerID, userID)
}

// Following lists the users the blogger follows, ordered by username.
func (s *BloggerService) Following(ctx context.Context, bloggerID int) ([]Target, error) {
	return s.m.listFollowing(ctx, bloggerID)
}

// UpdateProfile validates and stores the profile of userID. A new picture is uploaded
// before the row is written; the previous picture is removed once the row points at
// the new one.
func (s *BloggerService) UpdateProfile(ctx context.Context, userID int, in ProfileInput) (*Blogger, error) {
	update, err := ValidateProfile(in)
	if err != nil {
		return nil, err
	}

	blogger, err := s.m.getBloggerByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var url, key sql.NullString
	if update.Picture != nil {
		key = sql.NullString{String: fmt.Sprintf("%s/%d/%s", pictureKeyPrefix, blogger.ID, uuid.NewString()), Valid: true}

		location, err := s.store.Upload(ctx, key.String, update.Picture.Body, update.Picture.ContentType)
		if err != nil {
			return nil, common.UpstreamError{Service: "object storage", Err: err}
		}
		url = sql.NullString{String: location, Valid: true}
	}

	// the replaced key is read under the row lock so that concurrent edits each
	// delete the picture they actually replaced
	var oldKey *string
	err = common.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		locked, err := s.m.lockBloggerByUserID(tx, ctx, userID)
		if err != nil {
			return err
		}
		oldKey = locked.pictureKey

		return s.m.updateProfile(tx, ctx, locked.ID, update.Bio, update.Age, url, key)
	})
	if err != nil {
		if key.Valid {
			s.deletePicture(ctx, key.String)
		}
		return nil, err
	}

	if key.Valid && oldKey != nil {
		s.deletePicture(ctx, *oldKey)
	}

	if s.c != nil {
		s.c.Delete(common.CacheKeyBloggerByUserID(userID))
	}

	return s.m.getBloggerByUserID(ctx, userID)
}

// PictureURL returns where the picture of blogger id is stored.
func (s *BloggerService) PictureURL(ctx context.Context, id int) (string, error) {
	b, err := s.m.getBloggerByID(ctx, id)
	if err != nil {
		return "", err
	}

	if b.ProfilePictureURL == nil || *b.ProfilePictureURL == "" {
		return "", ErrNotFound
	}

	return *b.ProfilePictureURL, nil
}

func (s *BloggerService) deletePicture(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil && s.logger != nil {
		s.logger.Error("could not delete profile picture", slog.String("key", key), slog.String("error", err.Error()))
	}
}
