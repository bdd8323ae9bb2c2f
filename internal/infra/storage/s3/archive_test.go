package s3

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	at := time.Date(2024, 5, 1, 13, 4, 5, 0, time.FixedZone("CEST", 2*3600))
	key := ObjectKey("https://www.Airbnb.com/calendar/ical/1.ics?s=abc", []byte("BEGIN:VCALENDAR"), at)
	assert.Regexp(t, `^feeds/www\.airbnb\.com/2024/05/01/110405-[0-9a-f]{12}\.ics$`, key)

	other := ObjectKey("https://www.airbnb.com/calendar/ical/1.ics", []byte("BEGIN:VCALENDAR\r\n"), at)
	assert.NotEqual(t, key, other)

	assert.Contains(t, ObjectKey("::bad", nil, at), "feeds/unknown/")
}

func TestNewFeedArchiveValidation(t *testing.T) {
	_, err := NewFeedArchive(" ", false, "k", "s", "b", nil)
	assert.Error(t, err)
	_, err = NewFeedArchive("http://localhost:9000", false, "k", "s", "", nil)
	assert.Error(t, err)

	a, err := NewFeedArchive("http://localhost:9000", false, "k", "s", "feeds", nil)
	require.NoError(t, err)
	assert.Equal(t, "feeds", a.bucket)
}

func TestParseEndpoint(t *testing.T) {
	assert.Equal(t, "minio:9000", parseEndpoint("http://minio:9000"))
	assert.Equal(t, "minio:9000", parseEndpoint("minio:9000"))
}
