package blogservice

import "regexp"

var scriptTagPattern = regexp.MustCompile(`(?is)<\s*script[^>]*>(.*?)<\s*/\s*script\s*>`)

func sanitizeText(text string) string {
	return scriptTagPattern.ReplaceAllString(text, "")
}
