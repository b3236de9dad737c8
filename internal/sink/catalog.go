package sink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"songcatalog/internal/lyrics"
	"songcatalog/internal/song"
)

type SongRecord struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	Title         string `gorm:"uniqueIndex:idx_song_title"`
	Artists       string
	Gender        string
	LengthSeconds int
	Provider      string
	VideoID       string `gorm:"index:idx_video_id"`
	Created       time.Time
	CreatedAt     time.Time
}

func (SongRecord) TableName() string { return "songs" }

type LyricRecord struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	SongID    string `gorm:"type:varchar(36);uniqueIndex:idx_lyric_song"`
	Source    string
	Album     string
	Track     string
	Ratio     float64
	Text      string
	UpdatedAt time.Time
}

func (LyricRecord) TableName() string { return "lyrics" }

type UnmatchedRecord struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Title     string `gorm:"uniqueIndex:idx_unmatched_title"`
	Artists   string
	UpdatedAt time.Time
}

func (UnmatchedRecord) TableName() string { return "unmatched" }

type TitleErrorRecord struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Raw       string `gorm:"uniqueIndex:idx_title_error_raw"`
	CreatedAt time.Time
}

func (TitleErrorRecord) TableName() string { return "title_errors" }

// Catalog stores every artifact in an SQLite database.
type Catalog struct {
	db   *gorm.DB
	path string
}

func NewCatalog(path string) (*Catalog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating catalog dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	// a single writer avoids "database is locked"
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&SongRecord{}, &LyricRecord{}, &UnmatchedRecord{}, &TitleErrorRecord{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Catalog{db: db, path: path}, nil
}

// ErrorsLocation points at the unmatched table.
func (c *Catalog) ErrorsLocation() string {
	return c.path + " (table unmatched)"
}

func (c *Catalog) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newSongRecord(s song.Song) SongRecord {
	return SongRecord{
		ID:            uuid.NewString(),
		Title:         s.Title,
		Artists:       s.ArtistLine(),
		Gender:        s.Gender,
		LengthSeconds: int(s.Length / time.Second),
		Provider:      s.Provider,
		VideoID:       s.VideoID,
		Created:       s.Created,
	}
}

// SaveSongs inserts songs; a title already in the catalog keeps its first record.
func (c *Catalog) SaveSongs(songs []song.Song) error {
	if len(songs) == 0 {
		return nil
	}
	records := make([]SongRecord, len(songs))
	for i, s := range songs {
		records[i] = newSongRecord(s)
	}
	err := c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "title"}},
		DoNothing: true,
	}).CreateInBatches(&records, 100).Error
	if err != nil {
		return fmt.Errorf("saving songs: %w", err)
	}
	return nil
}

func (c *Catalog) SaveTitleErrors(raws []string) error {
	if len(raws) == 0 {
		return nil
	}
	records := make([]TitleErrorRecord, len(raws))
	for i, r := range raws {
		records[i] = TitleErrorRecord{ID: uuid.NewString(), Raw: r}
	}
	err := c.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&records).Error
	if err != nil {
		return fmt.Errorf("saving title errors: %w", err)
	}
	return nil
}

// songID returns the id of the song titled s.Title, inserting it when missing.
func (c *Catalog) songID(tx *gorm.DB, s song.Song) (string, error) {
	var rec SongRecord
	err := tx.Where("title = ?", s.Title).First(&rec).Error
	if err == nil {
		return rec.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("querying song: %w", err)
	}
	rec = newSongRecord(s)
	if err := tx.Create(&rec).Error; err != nil {
		return "", fmt.Errorf("creating song: %w", err)
	}
	return rec.ID, nil
}

// SaveLyrics stores the lyrics of a matched song, replacing earlier ones, and
// removes the song from the unmatched table.
func (c *Catalog) SaveLyrics(m lyrics.Match) error {
	return c.db.Transaction(func(tx *gorm.DB) error {
		id, err := c.songID(tx, m.Song)
		if err != nil {
			return err
		}
		rec := LyricRecord{
			ID:     uuid.NewString(),
			SongID: id,
			Source: m.Source,
			Album:  m.Album,
			Track:  m.Track.Title,
			Ratio:  m.Ratio,
			Text:   m.Lyrics(),
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "song_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"source", "album", "track", "ratio", "text", "updated_at"}),
		}).Create(&rec).Error
		if err != nil {
			return fmt.Errorf("saving lyrics: %w", err)
		}
		return tx.Where("title = ?", m.Song.Title).Delete(&UnmatchedRecord{}).Error
	})
}

// SaveErrors records unmatched songs.
func (c *Catalog) SaveErrors(songs []song.Song) error {
	if len(songs) == 0 {
		return nil
	}
	records := make([]UnmatchedRecord, len(songs))
	for i, s := range songs {
		records[i] = UnmatchedRecord{ID: uuid.NewString(), Title: s.Title, Artists: s.ArtistLine()}
	}
	err := c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "title"}},
		DoUpdates: clause.AssignmentColumns([]string{"artists", "updated_at"}),
	}).Create(&records).Error
	if err != nil {
		return fmt.Errorf("saving unmatched songs: %w", err)
	}
	return nil
}

// Lyrics returns the stored lyric text for a title.
func (c *Catalog) Lyrics(title string) (string, bool, error) {
	var rec LyricRecord
	err := c.db.Joins("JOIN songs ON songs.id = lyrics.song_id").
		Where("songs.title = ?", title).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying lyrics: %w", err)
	}
	return rec.Text, true, nil
}

// Unmatched lists the titles of unmatched songs in title order.
func (c *Catalog) Unmatched() ([]string, error) {
	var titles []string
	if err := c.db.Model(&UnmatchedRecord{}).Order("title").Pluck("title", &titles).Error; err != nil {
		return nil, fmt.Errorf("listing unmatched songs: %w", err)
	}
	return titles, nil
}

// SongCount returns how many songs the catalog holds.
func (c *Catalog) SongCount() (int64, error) {
	var n int64
	err := c.db.Model(&SongRecord{}).Count(&n).Error
	return n, err
}

// artistsOf splits a stored artist line.
func artistsOf(line string) []string {
	var out []string
	for _, a := range strings.Split(line, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Songs returns every stored song in insertion order.
func (c *Catalog) Songs() ([]song.Song, error) {
	var recs []SongRecord
	if err := c.db.Order("created_at, title").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing songs: %w", err)
	}
	songs := make([]song.Song, len(recs))
	for i, r := range recs {
		songs[i] = song.Song{
			Artists:  artistsOf(r.Artists),
			Title:    r.Title,
			Gender:   r.Gender,
			Length:   time.Duration(r.LengthSeconds) * time.Second,
			Created:  r.Created,
			Provider: r.Provider,
			VideoID:  r.VideoID,
		}
	}
	return songs, nil
}
