package links

import (
	"net/url"
	"regexp"
	"strings"
)

type RouteKind string

const (
	RouteHome     RouteKind = "home"
	RouteEvent    RouteKind = "event"
	RouteProfile  RouteKind = "profile"
	RouteSnapshot RouteKind = "snapshot"
)

// Route is where a deep link points.
type Route struct {
	Kind RouteKind `json:"kind"`
	ID   string    `json:"id,omitempty"`
}

var (
	routeEvent    = regexp.MustCompile(`#event:([^;]+)`)
	routeProfile  = regexp.MustCompile(`#profile:([^;]+)`)
	routeSnapshot = regexp.MustCompile(`#s:([^;]+)`)
)

// ParseRoute reads a location fragment and query string. Fragments win;
// an event query parameter is the fallback.
func ParseRoute(fragment, query string) Route {
	if fragment != "" && !strings.HasPrefix(fragment, "#") {
		fragment = "#" + fragment
	}
	if m := routeEvent.FindStringSubmatch(fragment); m != nil {
		return Route{Kind: RouteEvent, ID: m[1]}
	}
	if m := routeProfile.FindStringSubmatch(fragment); m != nil {
		return Route{Kind: RouteProfile, ID: m[1]}
	}
	if m := routeSnapshot.FindStringSubmatch(fragment); m != nil {
		return Route{Kind: RouteSnapshot, ID: m[1]}
	}
	if q, err := url.ParseQuery(strings.TrimPrefix(query, "?")); err == nil {
		if id := q.Get("event"); id != "" {
			return Route{Kind: RouteEvent, ID: id}
		}
	}
	return Route{Kind: RouteHome}
}

// EventURL is the in-app deep link to an event.
func EventURL(origin, eventID string) string {
	return strings.TrimRight(origin, "/") + "/#event:" + eventID
}

// ProfileURL is the in-app deep link to a profile.
func ProfileURL(origin, userID string) string {
	return strings.TrimRight(origin, "/") + "/#profile:" + userID
}
