package site

import (
	"strings"
)

const storagePublicPath = "/storage/v1/object/public/"

// ResolveResourceURL builds the public URL of a stored object. The reference
// is not checked for existence.
func ResolveResourceURL(base, bucket, ref string) string {
	if ref == "" {
		return ""
	}
	return strings.TrimSuffix(base, "/") + storagePublicPath + bucket + "/" + ref
}

// ChannelName is the pub/sub channel carrying change events for a table.
func ChannelName(table string) string {
	return "changes:" + table
}

func MatchesEvent(filter []EventType, t EventType) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == EventAll || f == t {
			return true
		}
	}
	return false
}
