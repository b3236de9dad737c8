package azlyrics

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const artistPage = `<html><body>
<div id="listAlbum">
  <a id="1"></a>
  <div class="album">album: <b>"A Night at the Opera"</b> (1975)</div>
  <div class="listalbum-item"><a href="/lyrics/queen/bohemianrhapsody.html">Bohemian Rhapsody</a></div>
  <div class="listalbum-item"><a href="../lyrics/queen/loveofmylife.html">Love Of My Life</a></div>
  <div class="album">album: <b>"Hot Space"</b> (1982)</div>
  <div class="listalbum-item"><a href="/lyrics/queen/underpressure.html">Under Pressure</a></div>
  <div class="listalbum-item"><a href="/lyrics/queen/missing.html">Missing Song</a></div>
</div>
</body></html>`

const songPage = `<html><body>
<div class="col-xs-12 col-lg-8 text-center">
  <div class="ringtone">ringtone</div>
  <div id="azmxmbanner"></div>
  <div>
<!-- Usage of azlyrics.com content by any third-party lyrics provider is prohibited. -->
%s<br>
second line<br>
</div>
  <div class="noprint">share</div>
</div>
</body></html>`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/q/queen.html":
			w.Write([]byte(artistPage))
		case "/lyrics/queen/bohemianrhapsody.html":
			w.Write([]byte(fmtSong("Is this the real life?")))
		case "/lyrics/queen/loveofmylife.html":
			w.Write([]byte(fmtSong("Love of my life")))
		case "/lyrics/queen/underpressure.html":
			w.Write([]byte(fmtSong("Pressure pushing down on me")))
		case "/lyrics/queen/missing.html":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
}

func fmtSong(first string) string {
	return fmt.Sprintf(songPage, first)
}

func TestDiscography(t *testing.T) {
	srv := newServer(t)
	defer srv.Close()

	c := New(nil, "songcatalog/1.0")
	c.baseURL = srv.URL

	d, err := c.Discography(context.Background(), "Queen")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Albums) != 2 {
		t.Fatalf("got %d albums, want 2", len(d.Albums))
	}
	if d.Albums[0].Title != "A Night at the Opera" || d.Albums[1].Title != "Hot Space" {
		t.Errorf("album titles = %q, %q", d.Albums[0].Title, d.Albums[1].Title)
	}

	opera := d.Albums[0].Tracks
	if len(opera) != 2 || opera[0].Title != "Bohemian Rhapsody" || opera[1].Title != "Love Of My Life" {
		t.Fatalf("opera tracks = %+v", opera)
	}
	if want := "Is this the real life?\nsecond line"; opera[0].Lyrics != want {
		t.Errorf("lyrics = %q, want %q", opera[0].Lyrics, want)
	}
	if opera[1].Lyrics == "" {
		t.Error("relative link should resolve against the artist page")
	}

	hot := d.Albums[1].Tracks
	if len(hot) != 2 {
		t.Fatalf("hot space tracks = %+v", hot)
	}
	if hot[1].Title != "Missing Song" || hot[1].Lyrics != "" {
		t.Errorf("failing song page should give empty lyrics, got %+v", hot[1])
	}
}

func TestDiscographyUnknownArtist(t *testing.T) {
	srv := newServer(t)
	defer srv.Close()

	c := New(nil, "")
	c.baseURL = srv.URL

	d, err := c.Discography(context.Background(), "Nobody Special")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Empty() {
		t.Errorf("expected empty discography, got %+v", d)
	}
}

func TestDiscographyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(nil, "")
	c.baseURL = srv.URL

	if _, err := c.Discography(context.Background(), "Queen"); err == nil {
		t.Fatal("expected error for unavailable index page")
	}
}

func TestArtistPath(t *testing.T) {
	tests := map[string]string{
		"Queen":       "/q/queen.html",
		"The Beatles": "/b/beatles.html",
		"AC/DC":       "/a/acdc.html",
		"Beyoncé":     "/b/beyonce.html",
		"50 Cent":     "/19/50cent.html",
		"Thelonious":  "/t/thelonious.html",
		"!!!":         "",
	}
	for in, want := range tests {
		if got := ArtistPath(in); got != want {
			t.Errorf("ArtistPath(%q) = %q, want %q", in, got, want)
		}
	}
}
