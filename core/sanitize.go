package core

import (
	"github.com/microcosm-cc/bluemonday"
)

var ugcPolicy = bluemonday.UGCPolicy()

// Sanitize strips unsafe HTML (scripts, event handlers...) from user generated content.
func Sanitize(s string) string {
	return ugcPolicy.Sanitize(s)
}
