// Package lrclib reads artist discographies from the LRCLib lyrics database.
package lrclib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"songcatalog/internal/discography"
)

const Name = "lrclib"

// Client implements discography.Source on top of the LRCLib search API.
type Client struct {
	httpClient *http.Client
	apiURL     string
	userAgent  string
	retryDelay time.Duration
}

func New(httpClient *http.Client, userAgent string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		apiURL:     "https://lrclib.net/api/search",
		userAgent:  userAgent,
		retryDelay: 2 * time.Second,
	}
}

func (c *Client) Name() string { return Name }

// Discography groups every LRCLib record credited to artist into albums.
// An artist with no records yields an empty discography and no error.
// Retries once on transient network errors.
func (c *Client) Discography(ctx context.Context, artist string) (discography.Discography, error) {
	records, err := c.search(ctx, artist)
	if err != nil {
		// API errors (4xx, 5xx) would fail identically, only retry the network
		if !isTransient(err) {
			return discography.Discography{}, err
		}
		select {
		case <-ctx.Done():
			return discography.Discography{}, err
		case <-time.After(c.retryDelay):
		}
		if records, err = c.search(ctx, artist); err != nil {
			return discography.Discography{}, err
		}
	}
	return group(artist, records), nil
}

func isTransient(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

func (c *Client) search(ctx context.Context, artist string) ([]record, error) {
	params := url.Values{}
	params.Set("q", artist)
	params.Set("artist_name", artist)

	reqURL := fmt.Sprintf("%s?%s", c.apiURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create lrclib request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lrclib request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lrclib returned status %d", resp.StatusCode)
	}

	var records []record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode lrclib response: %w", err)
	}
	return records, nil
}

type record struct {
	TrackName    string `json:"trackName"`
	ArtistName   string `json:"artistName"`
	AlbumName    string `json:"albumName"`
	Instrumental bool   `json:"instrumental"`
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
}

// group keeps the records credited to artist and folds them into albums in
// first-seen order. Repeated (album, track) pairs keep the first one with lyrics.
func group(artist string, records []record) discography.Discography {
	d := discography.Discography{Artist: artist}
	albumIdx := map[string]int{}
	trackIdx := map[string]int{}
	want := strings.ToLower(artist)

	for _, r := range records {
		if !strings.Contains(strings.ToLower(r.ArtistName), want) {
			continue
		}
		ai, ok := albumIdx[r.AlbumName]
		if !ok {
			ai = len(d.Albums)
			albumIdx[r.AlbumName] = ai
			d.Albums = append(d.Albums, discography.Album{Title: r.AlbumName})
		}

		lyrics := r.lyrics()
		tkey := r.AlbumName + "\x00" + strings.ToLower(r.TrackName)
		if ti, ok := trackIdx[tkey]; ok {
			if d.Albums[ai].Tracks[ti].Lyrics == "" {
				d.Albums[ai].Tracks[ti].Lyrics = lyrics
			}
			continue
		}
		trackIdx[tkey] = len(d.Albums[ai].Tracks)
		d.Albums[ai].Tracks = append(d.Albums[ai].Tracks, discography.Track{Title: r.TrackName, Lyrics: lyrics})
	}
	return d
}

var lrcTimestamp = regexp.MustCompile(`^\s*(\[\d{1,2}:\d{2}(?:[.:]\d{1,3})?\]\s*)+`)

func (r record) lyrics() string {
	if r.Instrumental {
		return ""
	}
	if strings.TrimSpace(r.PlainLyrics) != "" {
		return r.PlainLyrics
	}
	if r.SyncedLyrics == "" {
		return ""
	}
	lines := strings.Split(r.SyncedLyrics, "\n")
	for i, l := range lines {
		lines[i] = lrcTimestamp.ReplaceAllString(l, "")
	}
	return strings.Join(lines, "\n")
}
