// =============================================================================
// fetch.go - HTTP helpers shared by the source adapters
// =============================================================================
package pipeline

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

func infof(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[info] "+format+"\n", args...)
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[warn] "+format+"\n", args...)
}

// httpGet performs a GET with the shared client and browser-like headers and
// returns the whole body. Callers own error context.
func httpGet(url string, cfg SourceConfig) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "*/*")
	resp, err := cfg.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// httpGetJSON fetches url and decodes the JSON body into out.
func httpGetJSON(url string, cfg SourceConfig, out any) error {
	body, err := httpGet(url, cfg)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// fetchFeed downloads and parses an RSS/Atom feed. The body is sanitized
// before parsing: several of the feeds emit bare ampersands and raw control
// characters that make them invalid XML.
func fetchFeed(url string, cfg SourceConfig) (*gofeed.Feed, error) {
	body, err := httpGet(url, cfg)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	text := strings.TrimPrefix(string(body), "\ufeff")
	text = stripControlChars(text)
	text = sanitizeFeedXML(text)
	feed, err := gofeed.NewParser().ParseString(text)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return feed, nil
}

// reEntity matches a well-formed entity body directly after an ampersand.
var reEntity = regexp.MustCompile(`^(?:amp|lt|gt|quot|apos|#[0-9]+|#x[0-9a-fA-F]+);`)

// sanitizeFeedXML escapes bare ampersands while leaving existing entities
// and numeric references untouched.
func sanitizeFeedXML(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '&' && !reEntity.MatchString(s[i+1:]) {
			b.WriteString("&amp;")
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// stripControlChars removes the C0 control characters (except tab, LF, CR)
// plus DEL that CNKI feeds embed in titles.
func stripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

var (
	reScript = regexp.MustCompile(`(?is)<script.*?</script>`)
	reTag    = regexp.MustCompile(`<[^>]+>`)
	reSpaces = regexp.MustCompile(`\s+`)
)

// cleanHTMLTags strips markup from a feed fragment and unescapes entities,
// collapsing runs of whitespace.
func cleanHTMLTags(s string) string {
	s = reScript.ReplaceAllString(s, "")
	s = reTag.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// normalizeDate turns the assorted feed date formats (RFC 2822, ISO 8601,
// bare dates) into YYYY-MM-DD in the given zone. Unparseable input falls
// back to a leading YYYY-MM-DD prefix if one is present, else "".
func normalizeDate(raw string, loc *time.Location) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.In(loc).Format("2006-01-02")
		}
	}
	if len(raw) >= 10 {
		prefix := raw[:10]
		if _, err := time.Parse("2006-01-02", prefix); err == nil {
			return prefix
		}
	}
	return ""
}

// truncateRunes returns at most n runes of s without splitting a rune.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
