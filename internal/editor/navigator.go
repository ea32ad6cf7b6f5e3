package editor

import (
	"net/url"
	"strings"
)

// Navigator replaces the address of the editing surface without navigating.
type Navigator interface {
	Replace(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Replace(path string) { f(path) }

// CanonicalPath is the editor address of a document owned by handle.
func CanonicalPath(handle, id string) string {
	return "/portfolio/" + url.PathEscape(handle) + "/edit/" + url.PathEscape(id)
}

// ParseEditPath accepts both /portfolio/<handle>/edit/<id> and the older
// /portfolio/edit/<id>. The handle is empty for the older form.
func ParseEditPath(path string) (handle, id string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) == 3 && parts[0] == "portfolio" && parts[1] == "edit":
		id = parts[2]
	case len(parts) == 4 && parts[0] == "portfolio" && parts[2] == "edit":
		handle, id = parts[1], parts[3]
	default:
		return "", "", false
	}
	var err error
	if handle, err = url.PathUnescape(handle); err != nil {
		return "", "", false
	}
	if id, err = url.PathUnescape(id); err != nil || id == "" {
		return "", "", false
	}
	return handle, id, true
}
