package blogservice

import (
	"net/url"
	"strings"
)

type View int

const (
	ViewHome View = iota
	ViewFollowing
	ViewUser
)

func (v View) String() string {
	switch v {
	case ViewFollowing:
		return "following"
	case ViewUser:
		return "user"
	default:
		return "home"
	}
}

// Destination is the feed a submission returns to.
type Destination struct {
	View     View
	Username string
}

// ParseDestination reads the redirect tag of a submitted form. It accepts "home",
// "following", "user:<username>" and "user" with the username in redirectUser. Anything
// else, including a user view without a username, is home.
func ParseDestination(tag, redirectUser string) Destination {
	tag = strings.TrimSpace(tag)

	switch {
	case tag == "following":
		return Destination{View: ViewFollowing}
	case strings.HasPrefix(tag, "user:"):
		return userDestination(strings.TrimPrefix(tag, "user:"))
	case tag == "user":
		return userDestination(redirectUser)
	default:
		return Destination{View: ViewHome}
	}
}

func userDestination(username string) Destination {
	username = strings.TrimSpace(username)
	if username == "" {
		return Destination{View: ViewHome}
	}
	return Destination{View: ViewUser, Username: username}
}

// Path is the URL path of the destination feed.
func (d Destination) Path() string {
	switch d.View {
	case ViewFollowing:
		return "/following"
	case ViewUser:
		return "/user/" + url.PathEscape(d.Username)
	default:
		return "/"
	}
}

// Form is the post form shown with a feed: empty after a successful submission, or
// the rejected text with its errors.
type Form struct {
	Text   string            `json:"text"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Submission is the outcome of a post submission: which feed to show next and the
// form to show with it.
type Submission struct {
	Destination Destination
	Form        Form
	Post        *Post
}

func (s Submission) Created() bool {
	return s.Post != nil
}
