package models

import "testing"

func TestSongArtist(t *testing.T) {
	tc := []struct {
		name string
		song Song
		want string
	}{
		{
			name: "primary artist",
			song: Song{Title: "Pressure", Artists: []string{"Muse", "Someone Else"}},
			want: "Muse",
		},
		{
			name: "no artists",
			song: Song{Title: "Unknown"},
			want: "",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.song.Artist(); got != tt.want {
				t.Errorf("Artist() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNativeRecord(t *testing.T) {
	t.Run("resolvable requires stable key", func(t *testing.T) {
		rec := NativeRecord{Service: "spotify", NativeID: "abc", Kind: KindSong}
		if rec.Resolvable() {
			t.Error("record without stable key should not be resolvable")
		}

		rec.StableKey = "USUM71703861"
		if !rec.Resolvable() {
			t.Error("record with ISRC should be resolvable")
		}
	})

	t.Run("valid requires service, id and kind", func(t *testing.T) {
		tc := []struct {
			name string
			rec  NativeRecord
			want bool
		}{
			{"complete", NativeRecord{Service: "applemusic", NativeID: "123", Kind: KindSong}, true},
			{"missing native id", NativeRecord{Service: "applemusic", Kind: KindSong}, false},
			{"missing service", NativeRecord{NativeID: "123", Kind: KindSong}, false},
			{"missing kind", NativeRecord{Service: "applemusic", NativeID: "123"}, false},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if got := tt.rec.Valid(); got != tt.want {
					t.Errorf("Valid() = %v, want %v", got, tt.want)
				}
			})
		}
	})
}
