package timeutil

import "time"

func Now() time.Time {
	return time.Now().UTC()
}

func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
