// Package wordpress talks to the WordPress.com public REST API: it builds
// posts query targets and fetches and decodes their payloads.
package wordpress

const (
	// APIHost is the public WordPress.com API origin, with trailing slash.
	APIHost = "https://public-api.wordpress.com/"
	// APIVersion is the REST namespace segment, with trailing slash.
	APIVersion = "wp/v2/"
)

// Builder derives request targets for a given API host and version.
// The zero value uses APIHost and APIVersion.
type Builder struct {
	Host    string
	Version string
}

// Target concatenates host, version, the site identifier, and the per_page
// parameter in that order. The site identifier is inserted verbatim.
func (b Builder) Target(pageSize, site string) string {
	host, version := b.Host, b.Version
	if host == "" {
		host = APIHost
	}
	if version == "" {
		version = APIVersion
	}
	return host + version + "sites/" + site + "/posts?per_page=" + pageSize
}

// BuildTarget is Builder{}.Target.
func BuildTarget(pageSize, site string) string {
	return Builder{}.Target(pageSize, site)
}
