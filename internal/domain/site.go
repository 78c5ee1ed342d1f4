package domain

import (
	"net"
	"regexp"
	"strings"
)

var siteShape = regexp.MustCompile(`^([A-Za-z0-9_][A-Za-z0-9\-_]*\.)+[A-Za-z0-9\-_]{2,63}$`)

// ValidSystemID reports whether value is a well-formed IP address. System
// identifiers are host IPs; membership in the query log is not checked.
func ValidSystemID(value string) bool {
	return net.ParseIP(strings.TrimSpace(value)) != nil
}

// ValidSite reports whether value looks like a queryable site name. It
// filters out URLs, bare words and injection noise before the value is
// used in lookups.
func ValidSite(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" || len(value) > 253 {
		return false
	}
	return siteShape.MatchString(value)
}

// RegistrableDomain extracts the last two dot-separated labels of a site
// name. This is approximate: multi-label public suffixes are not accounted
// for. A name with fewer than two labels is returned unchanged.
func RegistrableDomain(site string) string {
	site = strings.TrimSpace(site)
	labels := strings.Split(site, ".")
	if len(labels) < 2 {
		return site
	}
	return strings.Join(labels[len(labels)-2:], ".")
}
