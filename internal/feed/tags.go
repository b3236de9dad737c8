package feed

import (
	"context"
	"fmt"

	"go.senan.xyz/taglib"

	"songcatalog/pkg/utils"
)

// Tags reads title, artist and genre tags from the audio files under Dir.
// Files without a title tag are skipped.
type Tags struct {
	Dir string
}

func (t Tags) Name() string { return "tags:" + t.Dir }

func (t Tags) Titles(ctx context.Context) ([]RawTitle, error) {
	files, err := utils.FindAudioFiles(t.Dir)
	if err != nil {
		return nil, err
	}

	var raws []RawTitle
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("tag scan cancelled: %w", err)
		}

		tags, err := taglib.ReadTags(path)
		if err != nil {
			continue
		}
		songTitle := firstTag(tags, taglib.Title)
		if songTitle == "" {
			continue
		}

		r := RawTitle{Provider: "tags", Gender: firstTag(tags, taglib.Genre)}
		if artist := firstTag(tags, taglib.Artist); artist != "" {
			r.Artist, r.Title = artist, songTitle
		} else {
			r.Text = songTitle
		}
		raws = append(raws, r)
	}
	return raws, nil
}

func firstTag(tags map[string][]string, key string) string {
	if vals, ok := tags[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	return ""
}
