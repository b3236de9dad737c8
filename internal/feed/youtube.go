package feed

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"songcatalog/internal/title"
)

var execCommand = exec.CommandContext

// YouTube lists the entries of a playlist with yt-dlp without downloading them.
type YouTube struct {
	Playlist string
}

func (y YouTube) Name() string { return "youtube:" + y.Playlist }

func (y YouTube) Titles(ctx context.Context) ([]RawTitle, error) {
	cmd := execCommand(ctx, "yt-dlp",
		"--flat-playlist",
		"--ignore-errors",
		"--print", "%(id)s\t%(title)s\t%(duration)s",
		y.Playlist,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("playlist extraction cancelled")
		}
		return nil, fmt.Errorf("yt-dlp failed to list playlist: %w\nDetails: %s", err, stderr.String())
	}

	var raws []RawTitle
	scanner := bufio.NewScanner(&stdout)
	for scanner.Scan() {
		if r, ok := parsePlaylistLine(scanner.Text()); ok {
			raws = append(raws, r)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading yt-dlp output: %w", err)
	}
	return raws, nil
}

// parsePlaylistLine reads one "id<TAB>title<TAB>duration" line.
// yt-dlp prints NA for missing fields.
func parsePlaylistLine(line string) (RawTitle, bool) {
	parts := strings.Split(line, "\t")
	if len(parts) < 2 {
		return RawTitle{}, false
	}
	get := func(i int) string {
		if i < len(parts) && parts[i] != "NA" {
			return strings.TrimSpace(parts[i])
		}
		return ""
	}

	text, featured := title.CleanVideoTitle(get(1))
	if text == "" || text == "[Private video]" || text == "[Deleted video]" {
		return RawTitle{}, false
	}
	r := RawTitle{
		Text:     text,
		Featured: featured,
		Provider: "youtube",
		VideoID:  get(0),
	}
	if secs, err := strconv.ParseFloat(get(2), 64); err == nil && secs > 0 {
		r.Length = time.Duration(secs * float64(time.Second))
	}
	return r, true
}
