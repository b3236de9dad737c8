// Package azlyrics scrapes artist discographies from AZLyrics pages.
package azlyrics

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/gosimple/slug"
	"golang.org/x/sync/errgroup"

	"songcatalog/internal/discography"
)

const Name = "azlyrics"

// song pages fetched at once per artist
const pageConcurrency = 4

// Client implements discography.Source by scraping the artist index page and
// every song page linked from it.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

func New(httpClient *http.Client, userAgent string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    "https://www.azlyrics.com",
		userAgent:  userAgent,
	}
}

func (c *Client) Name() string { return Name }

// ArtistPath returns the index page path for an artist: "/q/queen.html".
func ArtistPath(artist string) string {
	name := strings.TrimSpace(artist)
	if len(name) > 4 && strings.EqualFold(name[:4], "the ") {
		name = name[4:]
	}
	key := strings.ReplaceAll(slug.Make(name), "-", "")
	if key == "" {
		return ""
	}
	initial := key[:1]
	if r := rune(key[0]); unicode.IsDigit(r) {
		initial = "19"
	}
	return "/" + initial + "/" + key + ".html"
}

type link struct {
	album int
	title string
	href  string
}

// Discography fails only when the artist index cannot be read. An unknown
// artist (404) is an empty discography; a song page that cannot be read
// becomes a track without lyrics.
func (c *Client) Discography(ctx context.Context, artist string) (discography.Discography, error) {
	d := discography.Discography{Artist: artist}
	path := ArtistPath(artist)
	if path == "" {
		return d, nil
	}

	doc, status, err := c.fetch(ctx, c.baseURL+path)
	if err != nil {
		return d, err
	}
	if status == http.StatusNotFound {
		return d, nil
	}

	var links []link
	album := -1
	doc.Find("#listAlbum > div").Each(func(_ int, s *goquery.Selection) {
		switch {
		case s.HasClass("album"):
			name := strings.TrimSpace(s.Find("b").First().Text())
			name = strings.Trim(name, `"`)
			if name == "" {
				name = strings.TrimSpace(s.Text())
			}
			d.Albums = append(d.Albums, discography.Album{Title: name})
			album = len(d.Albums) - 1
		case s.HasClass("listalbum-item"):
			a := s.Find("a").First()
			href, ok := a.Attr("href")
			title := strings.TrimSpace(a.Text())
			if !ok || title == "" {
				return
			}
			if album < 0 {
				d.Albums = append(d.Albums, discography.Album{Title: "other songs"})
				album = len(d.Albums) - 1
			}
			links = append(links, link{album: album, title: title, href: href})
		}
	})

	lyrics := make([]string, len(links))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pageConcurrency)
	for i, l := range links {
		g.Go(func() error {
			lyrics[i] = c.songLyrics(gctx, c.resolve(path, l.href))
			return nil
		})
	}
	g.Wait()

	for i, l := range links {
		d.Albums[l.album].Tracks = append(d.Albums[l.album].Tracks, discography.Track{
			Title:  l.title,
			Lyrics: lyrics[i],
		})
	}
	return d, nil
}

// songLyrics returns the lyric text of a song page, or "" when unavailable.
func (c *Client) songLyrics(ctx context.Context, pageURL string) string {
	doc, status, err := c.fetch(ctx, pageURL)
	if err != nil || status != http.StatusOK {
		return ""
	}
	var text string
	doc.Find(".col-xs-12.col-lg-8.text-center > div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if _, hasClass := s.Attr("class"); hasClass {
			return true
		}
		if _, hasID := s.Attr("id"); hasID {
			return true
		}
		text = strings.TrimSpace(strings.ReplaceAll(s.Text(), "\r", ""))
		return false
	})
	return text
}

func (c *Client) resolve(base, href string) string {
	root, err := url.Parse(c.baseURL + base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return root.ResolveReference(ref).String()
}

func (c *Client) fetch(ctx context.Context, pageURL string) (*goquery.Document, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create azlyrics request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("azlyrics request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, resp.StatusCode, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("azlyrics returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to parse azlyrics page: %w", err)
	}
	return doc, resp.StatusCode, nil
}
