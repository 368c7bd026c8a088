// Package geocoding resolves free-text address expressions through
// Overpass-compatible OSM endpoints.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"sofialert/internal/domain/entity"
	"sofialert/internal/errors"
)

const (
	// Overpass rejects unbounded result sets; the pipeline only needs a few
	// candidates per address expression.
	maxResultsPerQuery = 5

	queryTimeoutSeconds = 25

	maxErrorBodyBytes = 4 << 10
)

// HTTPError reports a non-200 response from an Overpass endpoint.
type HTTPError struct {
	StatusCode int
	Remark     string
}

func (e *HTTPError) Error() string {
	if e.Remark != "" {
		return fmt.Sprintf("overpass returned status %d: %s", e.StatusCode, e.Remark)
	}

	return fmt.Sprintf("overpass returned status %d", e.StatusCode)
}

// RemarkError reports a server-side remark in an otherwise successful
// response, typically a query rejection or a runtime limit.
type RemarkError struct {
	Remark string
}

func (e *RemarkError) Error() string {
	return fmt.Sprintf("overpass remark: %s", e.Remark)
}

// OverpassClient queries one Overpass endpoint.
type OverpassClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOverpassClient creates a client for a single Overpass endpoint.
func NewOverpassClient(endpoint string, timeout time.Duration, logger *slog.Logger) *OverpassClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OverpassClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Endpoint returns the endpoint URL this client talks to.
func (c *OverpassClient) Endpoint() string {
	return c.endpoint
}

type overpassResponse struct {
	Remark   string            `json:"remark"`
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *overpassCenter   `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geocode resolves a free-text address expression against the endpoint.
func (c *OverpassClient) Geocode(ctx context.Context, query string) ([]entity.Address, error) {
	form := url.Values{"data": {buildQuery(query)}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "query overpass endpoint %s", c.endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

		return nil, &HTTPError{StatusCode: resp.StatusCode, Remark: parseRemark(body)}
	}

	var decoded overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, "decode overpass response")
	}
	if decoded.Remark != "" {
		return nil, &RemarkError{Remark: decoded.Remark}
	}

	return c.toAddresses(query, decoded.Elements), nil
}

func (c *OverpassClient) toAddresses(query string, elements []overpassElement) []entity.Address {
	addresses := make([]entity.Address, 0, len(elements))
	for _, element := range elements {
		lat, lon := element.Lat, element.Lon
		if element.Center != nil {
			lat, lon = element.Center.Lat, element.Center.Lon
		}
		if lat == 0 && lon == 0 {
			continue
		}

		addresses = append(addresses, entity.Address{
			OriginalText:     query,
			FormattedAddress: formatAddress(element.Tags),
			Latitude:         lat,
			Longitude:        lon,
		})
	}

	return addresses
}

// buildQuery assembles an Overpass QL name search scoped to the Sofia
// municipality area.
func buildQuery(text string) string {
	escaped := escapeRegex(text)

	return fmt.Sprintf(`[out:json][timeout:%d];
area["name"="София"]["admin_level"="6"]->.searchArea;
(
  nwr["name"~"%s",i](area.searchArea);
  nwr["addr:street"~"%s",i](area.searchArea);
);
out center %d;`, queryTimeoutSeconds, escaped, escaped, maxResultsPerQuery)
}

// escapeRegex neutralizes regex metacharacters and quotes so crawled address
// text cannot break out of the QL string literal.
func escapeRegex(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch r {
		case '\\', '.', '+', '*', '?', '(', ')', '[', ']', '{', '}', '^', '$', '|':
			b.WriteRune('\\')
			b.WriteRune(r)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

func formatAddress(tags map[string]string) string {
	if tags == nil {
		return ""
	}

	var parts []string
	if street := tags["addr:street"]; street != "" {
		part := street
		if number := tags["addr:housenumber"]; number != "" {
			part += " " + number
		}
		parts = append(parts, part)
	} else if name := tags["name"]; name != "" {
		parts = append(parts, name)
	}
	if city := tags["addr:city"]; city != "" {
		parts = append(parts, city)
	}

	return strings.Join(parts, ", ")
}

var remarkParagraphs = regexp.MustCompile(`(?s)<p>(.*?)</p>`)

var htmlTags = regexp.MustCompile(`<[^>]+>`)

// parseRemark extracts the human-readable error text from an Overpass HTML
// error page. Returns the raw body when no paragraph markup is present.
func parseRemark(body []byte) string {
	matches := remarkParagraphs.FindAllSubmatch(body, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(string(body))
	}

	var parts []string
	for _, match := range matches {
		text := htmlTags.ReplaceAllString(string(match[1]), "")
		text = strings.TrimSpace(html.UnescapeString(text))
		if text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "; ")
}
