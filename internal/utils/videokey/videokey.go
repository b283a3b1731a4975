// Package videokey derives deterministic object-store keys for one upload.
// All objects belonging to an upload (media and preview) share the id prefix
// so that bulk cleanup only needs the id.
package videokey

import (
	"fmt"
	"regexp"
)

const keyPrefix = "videos"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9.-]+`)

// DeriveID builds the asset id from the owner and the upload timestamp in
// milliseconds. The id is deterministic on purpose: two uploads by the same
// owner in the same millisecond collide on the primary key instead of
// silently overwriting each other.
func DeriveID(ownerID string, nowMillis int64) string {
	return fmt.Sprintf("%s-%d", Sanitize(ownerID), nowMillis)
}

// DeriveKey returns the object-store key for the primary media file.
func DeriveKey(id, filename string) string {
	name := Sanitize(filename)
	if name == "" {
		name = "media"
	}
	return fmt.Sprintf("%s/%s/%s", keyPrefix, id, name)
}

// PreviewKey returns the object-store key for the derived still frame.
func PreviewKey(id string) string {
	return fmt.Sprintf("%s/%s/preview.jpg", keyPrefix, id)
}

// Prefix returns the common key prefix shared by all objects of an upload.
func Prefix(id string) string {
	return keyPrefix + "/" + id + "/"
}

// Sanitize strips everything outside [A-Za-z0-9.-] so user-supplied names
// cannot traverse paths or inject key separators.
func Sanitize(name string) string {
	return unsafeChars.ReplaceAllString(name, "")
}
