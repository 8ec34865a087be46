package zip

import (
	"time"

	flate "github.com/chronos-tachyon/zipflate"
)

// packMSDOSTime encodes t as the combined 32-bit MS-DOS date/time field
// PKWARE APPNOTE.TXT §4.4.6 stores at local-header offset 10: the date word
// in the high 16 bits, the time word in the low 16 bits, each little-endian
// when the 4-byte field is written out. Only years 1980 through 2099 are
// representable; everything outside that range is InvalidDate.
func packMSDOSTime(t time.Time) (uint32, error) {
	year := t.Year()
	if year < 1980 || year > 2099 {
		return 0, flate.ZipError{
			ErrCode: flate.InvalidDate,
			MTime:   t,
			Problem: "modification time year is outside the representable MS-DOS range 1980-2099",
		}
	}

	dosDate := uint32(year-1980)<<9 | uint32(t.Month())<<5 | uint32(t.Day())
	dosTime := uint32(t.Hour())<<11 | uint32(t.Minute())<<5 | uint32(t.Second())>>1
	return dosDate<<16 | dosTime, nil
}

// unpackMSDOSTime decodes the 32-bit MS-DOS date/time field packMSDOSTime
// produces, returning a UTC time.Time. ZIP does not record a timezone, so
// the returned value should be treated as wall-clock time in whatever zone
// the archive's producer was using.
func unpackMSDOSTime(v uint32) time.Time {
	dosDate := uint16(v >> 16)
	dosTime := uint16(v & 0xFFFF)

	year := int(dosDate>>9) + 1980
	month := time.Month((dosDate >> 5) & 0x0F)
	day := int(dosDate & 0x1F)

	hour := int(dosTime >> 11)
	minute := int((dosTime >> 5) & 0x3F)
	second := int(dosTime&0x1F) * 2

	if month < time.January {
		month = time.January
	}
	if day < 1 {
		day = 1
	}

	return time.Date(year, month, day, hour, minute, second, 0, time.UTC)
}
