package blogservice

import (
	"fmt"
	"strings"

	"github.com/sushihentaime/nanoblog/internal/common"
)

func validateText(v *common.Validator, text string) {
	v.Check(text != "", "text", "must be provided")
	v.Check(v.CheckStringLength(text, 0, MaxTextLength), "text", fmt.Sprintf("must not be more than %d characters long", MaxTextLength))
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}

func cleanText(text string) string {
	return strings.TrimSpace(sanitizeText(text))
}

// ValidatePost checks the text of a new post.
func ValidatePost(text string) (PostInput, error) {
	text = cleanText(text)

	v := common.NewValidator()
	validateText(v, text)
	if !v.Valid() {
		return PostInput{}, v.ValidationError()
	}

	return PostInput{Text: text}, nil
}

// ValidateComment checks the text of a new comment and the id of the post it answers.
func ValidateComment(text string, postID int) (CommentInput, error) {
	text = cleanText(text)

	v := common.NewValidator()
	validateText(v, text)
	validateInt(v, postID, "post")
	if !v.Valid() {
		return CommentInput{}, v.ValidationError()
	}

	return CommentInput{Text: text, PostID: postID}, nil
}
