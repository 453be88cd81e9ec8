package services

import "strings"

// BuildQuery builds a Spotify search query from a song and an optional artist.
//
// With an artist the query filters on both fields, otherwise on the track name alone.
func BuildQuery(name, artist string) string {
	name = strings.TrimSpace(name)
	artist = strings.TrimSpace(artist)
	if artist == "" {
		return "track:" + name
	}
	return "track:" + name + " artist:" + artist
}
