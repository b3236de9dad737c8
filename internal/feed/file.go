package feed

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// File reads one raw title per line. Blank lines and lines starting with '#'
// are ignored.
type File struct {
	Path string
}

func (f File) Name() string { return "file:" + f.Path }

func (f File) Titles(_ context.Context) ([]RawTitle, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open titles file: %w", err)
	}
	defer fh.Close()

	var raws []RawTitle
	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raws = append(raws, RawTitle{Text: line, Provider: "file"})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", f.Path, err)
	}
	return raws, nil
}

// Static serves a fixed list of titles, as typed on the command line or
// posted to the web API.
type Static struct {
	Label string
	Texts []string
}

func (s Static) Name() string { return s.Label }

func (s Static) Titles(_ context.Context) ([]RawTitle, error) {
	raws := make([]RawTitle, 0, len(s.Texts))
	for _, t := range s.Texts {
		if t = strings.TrimSpace(t); t != "" {
			raws = append(raws, RawTitle{Text: t, Provider: s.Label})
		}
	}
	return raws, nil
}
