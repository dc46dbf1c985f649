package main

import (
	"bytes"
	"html/template"

	"github.com/sushihentaime/nanoblog/internal/blogservice"
)

// commentTemplate renders a single comment for the client to append under its post.
var commentTemplate = template.Must(template.New("comment").Parse(
	`<li class="comment" id="comment-{{.ID}}">` +
		`<a class="comment-author" href="/user/{{.Username}}">{{.Username}}</a> ` +
		`<span class="comment-text">{{.Text}}</span> ` +
		`<time datetime="{{.CreatedAt.UTC.Format "2006-01-02T15:04:05.999999Z07:00"}}">{{.CreatedAt.UTC.Format "Jan 2, 2006 15:04"}}</time>` +
		`</li>`))

func renderComment(c *blogservice.Comment) (string, error) {
	buf := new(bytes.Buffer)
	if err := commentTemplate.Execute(buf, c); err != nil {
		return "", err
	}
	return buf.String(), nil
}
