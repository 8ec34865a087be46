package zip

import (
	"testing"
	"time"

	flate "github.com/chronos-tachyon/zipflate"
)

func TestPackMSDOSTime(t *testing.T) {
	type testRow struct {
		name    string
		input   time.Time
		want    uint32
		wantErr bool
	}

	testData := [...]testRow{
		{
			name:  "epoch",
			input: time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC),
			want:  0x00210000,
		},
		{
			name:  "odd-second-truncated",
			input: time.Date(1980, time.January, 1, 0, 0, 1, 0, time.UTC),
			want:  0x00210000,
		},
		{
			name:  "ordinary",
			input: time.Date(2021, time.June, 15, 13, 45, 30, 0, time.UTC),
			want:  uint32(41)<<25 | uint32(6)<<21 | uint32(15)<<16 | uint32(13)<<11 | uint32(45)<<5 | uint32(15),
		},
		{
			name:  "max-year",
			input: time.Date(2099, time.December, 31, 23, 59, 58, 0, time.UTC),
			want:  uint32(119)<<25 | uint32(12)<<21 | uint32(31)<<16 | uint32(23)<<11 | uint32(59)<<5 | uint32(29),
		},
		{
			name:    "year-too-early",
			input:   time.Date(1979, time.December, 31, 0, 0, 0, 0, time.UTC),
			wantErr: true,
		},
		{
			name:    "year-too-late",
			input:   time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC),
			wantErr: true,
		},
	}

	for _, row := range testData {
		t.Run(row.name, func(t *testing.T) {
			got, err := packMSDOSTime(row.input)
			if row.wantErr {
				if err == nil {
					t.Fatal("expected an error, got nil")
				}
				var zerr flate.ZipError
				if ce, ok := err.(flate.ZipError); ok {
					zerr = ce
				}
				if zerr.ErrCode != flate.InvalidDate {
					t.Errorf("expected flate.InvalidDate, got %#v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != row.want {
				t.Errorf("packMSDOSTime(%v) = 0x%08x, want 0x%08x", row.input, got, row.want)
			}
		})
	}
}

func TestUnpackMSDOSTime_RoundTrip(t *testing.T) {
	inputs := []time.Time{
		time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2021, time.June, 15, 13, 45, 30, 0, time.UTC),
		time.Date(2099, time.December, 31, 23, 59, 58, 0, time.UTC),
	}

	for _, want := range inputs {
		packed, err := packMSDOSTime(want)
		if err != nil {
			t.Fatalf("packMSDOSTime(%v) failed: %v", want, err)
		}
		got := unpackMSDOSTime(packed)
		if !got.Equal(want) {
			t.Errorf("round trip of %v produced %v", want, got)
		}
	}
}
