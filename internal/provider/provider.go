// Package provider builds lyric sources by identifier.
//
// The Source interface is defined in internal/discography, where the cache
// consumes it. Each sub-package implements it for one service.
package provider

import (
	"fmt"
	"net/http"

	"songcatalog/internal/discography"
	"songcatalog/internal/provider/azlyrics"
	"songcatalog/internal/provider/lrclib"
)

// UserAgent is sent with every request to a lyric source.
const UserAgent = "songcatalog/1.0"

// Known lists the supported source identifiers in default priority order.
var Known = []string{lrclib.Name, azlyrics.Name}

// IsKnown reports whether id names a supported source.
func IsKnown(id string) bool {
	for _, k := range Known {
		if k == id {
			return true
		}
	}
	return false
}

// New returns the source registered under id. A nil client gets the
// source's default timeout.
func New(id string, client *http.Client) (discography.Source, error) {
	switch id {
	case lrclib.Name:
		return lrclib.New(client, UserAgent), nil
	case azlyrics.Name:
		return azlyrics.New(client, UserAgent), nil
	}
	return nil, fmt.Errorf("%w: %s", discography.ErrUnknownSource, id)
}

// NewAll builds every source in ids, in order.
func NewAll(ids []string, client *http.Client) ([]discography.Source, error) {
	sources := make([]discography.Source, 0, len(ids))
	for _, id := range ids {
		s, err := New(id, client)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, nil
}
