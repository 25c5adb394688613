package links

import (
	"net/url"
	"strings"
)

// Resolve turns a possibly-relative href into an absolute URL using the
// publisher's base URL. Hrefs that already carry a scheme are returned
// unchanged. Protocol-relative hrefs ("//host/path") take the base scheme.
// Every other href is joined to the origin of base.
func Resolve(href, base string) string {
	href = strings.TrimSpace(href)
	if u, err := url.Parse(href); err == nil && u.Scheme != "" {
		return href
	}

	scheme, root := origin(base)

	if strings.HasPrefix(href, "//") {
		return scheme + ":" + href
	}
	if strings.HasPrefix(href, "/") {
		return root + href
	}
	return root + "/" + href
}

// origin returns the scheme and "scheme://host" of base. A base that does
// not parse as an absolute URL is used as-is without its trailing slash.
func origin(base string) (scheme, root string) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "https", strings.TrimRight(base, "/")
	}
	return u.Scheme, u.Scheme + "://" + u.Host
}
