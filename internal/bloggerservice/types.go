package bloggerservice

import (
	"database/sql"
	"io"
	"log/slog"

	"github.com/sushihentaime/nanoblog/internal/common"
	"github.com/sushihentaime/nanoblog/internal/storage"
)

const (
	MaxBioLength     = 430
	MaxUploadSize    = 2500000
	pictureKeyPrefix = "profile-pictures"
)

// Blogger holds the profile data attached one-to-one to a user.
type Blogger struct {
	ID                int     `json:"id"`
	UserID            int     `json:"user_id"`
	Bio               *string `json:"bio"`
	Age               *int    `json:"age"`
	ProfilePictureURL *string `json:"profile_picture_url"`

	pictureKey *string
}

// Target is the user on the other end of a follow edge.
type Target struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// Picture is an uploaded profile picture as received from the client.
type Picture struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ProfileInput carries the edit-profile form. Empty Bio and nil Age clear the field.
type ProfileInput struct {
	Bio     string
	Age     *int
	Picture *Picture
}

// ProfileUpdate is a validated ProfileInput.
type ProfileUpdate struct {
	Bio     sql.NullString
	Age     sql.NullInt32
	Picture *Picture
}

type BloggerService struct {
	db     *sql.DB
	m      *DBModel
	store  storage.ObjectStore
	c      *common.Cache
	logger *slog.Logger
}

type DBModel struct {
	db *sql.DB
}
