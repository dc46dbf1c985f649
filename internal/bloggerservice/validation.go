package bloggerservice

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/sushihentaime/nanoblog/internal/common"
)

// ValidateProfile checks the edit-profile form without touching the database or the
// object store.
func ValidateProfile(in ProfileInput) (*ProfileUpdate, error) {
	v := common.NewValidator()

	bio := strings.TrimSpace(in.Bio)
	v.Check(v.CheckStringLength(bio, 0, MaxBioLength), "bio", fmt.Sprintf("must not be more than %d characters long", MaxBioLength))

	if in.Age != nil {
		v.Check(*in.Age > 0, "age", "must be a positive number")
		v.Check(*in.Age < 200, "age", "must be less than 200")
	}

	if in.Picture != nil {
		v.Check(strings.HasPrefix(in.Picture.ContentType, "image"), "profile_picture", "file type is not image")
		v.Check(in.Picture.Size <= MaxUploadSize, "profile_picture", fmt.Sprintf("file too big (max size is %d bytes)", MaxUploadSize))
	}

	if !v.Valid() {
		return nil, v.ValidationError()
	}

	u := &ProfileUpdate{
		Bio:     sql.NullString{String: bio, Valid: bio != ""},
		Picture: in.Picture,
	}
	if in.Age != nil {
		u.Age = sql.NullInt32{Int32: int32(*in.Age), Valid: true}
	}

	return u, nil
}
