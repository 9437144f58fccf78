// Utilities for turning a browser "Copy as cURL" command into credentials for the ytmusicapi proxy and yt-dlp.
package shared

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	headerFlag = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	cookieFlag = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
)

// CurlHeaders represents parsed headers and cookies from a cURL command.
type CurlHeaders struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(filepath string) (*CurlHeaders, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(content)
}

// ParseCurlCommand parses a cURL command string and extracts headers.
//
// A cookie passed with -b wins over a "cookie:" header.
func ParseCurlCommand(data []byte) (*CurlHeaders, error) {
	curlCmd := string(data)
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	headers := make(map[string]string)
	var headerCookie string

	for _, match := range headerFlag.FindAllStringSubmatch(curlCmd, -1) {
		key, value, ok := strings.Cut(firstGroup(match), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if strings.EqualFold(key, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		headers[key] = value
	}

	cookie := headerCookie
	if match := cookieFlag.FindStringSubmatch(curlCmd); match != nil {
		cookie = firstGroup(match)
	}

	if len(headers) == 0 && cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}

	return &CurlHeaders{
		Headers: headers,
		Cookie:  cookie,
	}, nil
}

func firstGroup(match []string) string {
	for _, g := range match[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

// ToHeadersRaw converts parsed headers to headers_raw format for ytmusicapi.
//
// Format is newline-separated "Key: Value" pairs, sorted by key.
func (c *CurlHeaders) ToHeadersRaw() string {
	keys := make([]string, 0, len(c.Headers))
	for key := range c.Headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", key, c.Headers[key]))
	}

	if c.Cookie != "" {
		lines = append(lines, fmt.Sprintf("cookie: %s", c.Cookie))
	}

	return strings.Join(lines, "\n")
}

// Cookies splits the cookie string into name/value pairs in their original order.
func (c *CurlHeaders) Cookies() [][2]string {
	var pairs [][2]string
	for _, part := range strings.Split(c.Cookie, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || name == "" {
			continue
		}
		pairs = append(pairs, [2]string{name, value})
	}
	return pairs
}

// ToNetscapeCookies renders the cookies in the Netscape cookies.txt format yt-dlp reads via --cookies.
func (c *CurlHeaders) ToNetscapeCookies(domain string, expires time.Time) string {
	if !strings.HasPrefix(domain, ".") {
		domain = "." + domain
	}

	var sb strings.Builder
	sb.WriteString("# Netscape HTTP Cookie File\n")
	for _, pair := range c.Cookies() {
		fmt.Fprintf(&sb, "%s\tTRUE\t/\tTRUE\t%d\t%s\t%s\n", domain, expires.Unix(), pair[0], pair[1])
	}
	return sb.String()
}

// WriteCookiesFile writes cookies for domain to path with owner-only permissions.
func (c *CurlHeaders) WriteCookiesFile(path, domain string) error {
	if len(c.Cookies()) == 0 {
		return fmt.Errorf("%w: curl command carries no cookies", ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create cookies directory: %w", err)
	}
	content := c.ToNetscapeCookies(domain, time.Now().AddDate(1, 0, 0))
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write cookies file: %w", err)
	}
	return nil
}
