package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// GenerateETag generates an ETag for a resource based on its ID and creation time.
// Format: "<resource_type>-<id>-<created_at_unix_nano>"
func GenerateETag(resourceType, id string, at time.Time) string {
	return fmt.Sprintf(`"%s-%s-%d"`, resourceType, id, at.UnixNano())
}

// SetETagHeader sets the ETag header on the response.
func SetETagHeader(w http.ResponseWriter, resourceType, id string, at time.Time) {
	w.Header().Set("ETag", GenerateETag(resourceType, id, at))
}

// CheckIfNoneMatch reports whether the client already holds the current
// representation, i.e. whether If-None-Match lists the resource's ETag.
func CheckIfNoneMatch(r *http.Request, resourceType, id string, at time.Time) bool {
	header := r.Header.Get("If-None-Match")
	if header == "" {
		return false
	}
	if strings.TrimSpace(header) == "*" {
		return true
	}

	current := GenerateETag(resourceType, id, at)
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "W/")
		if tag == current {
			return true
		}
	}
	return false
}
