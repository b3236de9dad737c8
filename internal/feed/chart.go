package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Chart scrapes a chart list page: every "ul.chart li" entry holds the song
// title in ".chart-content h4" and its artists in ".chart-content p".
type Chart struct {
	URL        string
	HTTPClient *http.Client
	UserAgent  string
}

func (c Chart) Name() string { return "chart:" + c.URL }

func (c Chart) Titles(ctx context.Context) ([]RawTitle, error) {
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse chart page: %w", err)
	}

	var raws []RawTitle
	doc.Find("ul.chart li").Each(func(_ int, li *goquery.Selection) {
		content := li.Find(".chart-content")
		songTitle := strings.TrimSpace(content.Find("h4").First().Text())
		artists := strings.TrimSpace(content.Find("p").First().Text())
		if songTitle == "" && artists == "" {
			return
		}
		raws = append(raws, RawTitle{Artist: artists, Title: songTitle, Provider: "chart"})
	})
	return raws, nil
}
