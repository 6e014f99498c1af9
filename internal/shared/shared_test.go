package shared

import "testing"

func TestNormalizeName(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "basic normalization",
			in:   "Artist Name",
			want: "artist name",
		},
		{
			name: "punctuation stripped",
			in:   "AC/DC",
			want: "acdc",
		},
		{
			name: "apostrophes and mixed case",
			in:   "Guns N' Roses",
			want: "guns n roses",
		},
		{
			name: "extra whitespace",
			in:   "  The   Beatles  ",
			want: "the beatles",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeName(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeName() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeTrackKey(t *testing.T) {
	tc := []struct {
		name   string
		title  string
		artist string
		want   string
	}{
		{
			name:   "basic normalization",
			title:  "Song Title",
			artist: "Artist Name",
			want:   "song title|artist name",
		},
		{
			name:   "extra whitespace",
			title:  "  Song   Title  ",
			artist: "  Artist   Name  ",
			want:   "song title|artist name",
		},
		{
			name:   "mixed case with punctuation",
			title:  "Don't Stop Me Now",
			artist: "Queen",
			want:   "dont stop me now|queen",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTrackKey(tt.title, tt.artist)
			if got != tt.want {
				t.Errorf("NormalizeTrackKey() = %v, want %v", got, tt.want)
			}
		})
	}
}
