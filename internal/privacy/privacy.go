// Package privacy scrubs personal data such as photo URLs, email addresses
// and API keys from messages before they leave the process.
package privacy

import (
	"crypto/sha256"
	"fmt"
	"net/netip"
	"net/url"
	"regexp"
	"strings"
)

var (
	urlPattern    = regexp.MustCompile(`\bhttps?://\S+`)
	emailPattern  = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	apiKeyPattern = regexp.MustCompile(`AIza[0-9A-Za-z_-]{20,}`)
)

// ScrubMessage anonymizes URLs and email addresses and removes API keys
func ScrubMessage(message string) string {
	message = apiKeyPattern.ReplaceAllString(message, "[API_KEY]")
	message = urlPattern.ReplaceAllStringFunc(message, AnonymizeURL)
	return emailPattern.ReplaceAllStringFunc(message, MaskEmail)
}

// AnonymizeURL replaces a URL with a stable hash of its scheme, host class
// and path shape. Credentials and query strings never reach the hash input.
func AnonymizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		hash := sha256.Sum256([]byte(rawURL))
		return fmt.Sprintf("url-hash-%x", hash[:8])
	}

	var parts []string
	if u.Scheme != "" {
		parts = append(parts, u.Scheme)
	}
	if host := u.Hostname(); host != "" {
		parts = append(parts, categorizeHost(host))
	}
	if u.Port() != "" {
		parts = append(parts, "port-"+u.Port())
	}
	if u.Path != "" && u.Path != "/" {
		parts = append(parts, anonymizePath(u.Path))
	}

	hash := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("url-%x", hash[:12])
}

// MaskEmail keeps the first letter of the local part and the domain
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "[EMAIL]"
	}
	return local[:1] + "***@" + domain
}

// categorizeHost reduces a host to a coarse class
func categorizeHost(host string) string {
	if host == "localhost" {
		return "localhost"
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		switch {
		case addr.IsLoopback():
			return "localhost"
		case addr.IsPrivate(), addr.IsLinkLocalUnicast():
			return "private-ip"
		default:
			return "public-ip"
		}
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		return "domain-" + parts[len(parts)-1]
	}
	return "unknown-host"
}

// anonymizePath hashes each path segment, keeping the file extension
func anonymizePath(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return "root"
	}

	segments := strings.Split(path, "/")
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		hash := sha256.Sum256([]byte(segment))
		seg := fmt.Sprintf("seg-%x", hash[:4])
		if i := strings.LastIndexByte(segment, '.'); i > 0 {
			seg += strings.ToLower(segment[i:])
		}
		out = append(out, seg)
	}
	return strings.Join(out, "/")
}
