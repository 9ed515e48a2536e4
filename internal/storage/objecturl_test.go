package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractPath_RoundTrip(t *testing.T) {
	s := NewMinioStorage("localhost:9000", "minioadmin", "minioadmin", false)

	key := "images/550e8400-e29b-41d4-a716-446655440000.jpg"
	url := s.PublicURL("reports-images", key)
	require.NotEmpty(t, url)

	got, ok := ExtractPath(url, "reports-images")
	require.True(t, ok)
	require.Equal(t, key, got)
}

func TestExtractPath_SupabaseStyleURL(t *testing.T) {
	url := "https://abc.supabase.co/storage/v1/object/public/reports-images/images/uuid.jpg"
	got, ok := ExtractPath(url, "reports-images")
	require.True(t, ok)
	require.Equal(t, "images/uuid.jpg", got)
}

func TestExtractPath_StripsQueryString(t *testing.T) {
	base := "http://localhost:9000/reports-images/images/uuid.png"
	withQuery, ok := ExtractPath(base+"?token=abc&x=1", "reports-images")
	require.True(t, ok)

	plain, ok2 := ExtractPath(base, "reports-images")
	require.True(t, ok2)
	require.Equal(t, plain, withQuery)
	require.Equal(t, "images/uuid.png", withQuery)
}

func TestExtractPath_MalformedInput(t *testing.T) {
	cases := []struct {
		name   string
		url    string
		bucket string
	}{
		{"empty url", "", "reports-images"},
		{"empty bucket", "http://localhost:9000/reports-images/images/a.jpg", ""},
		{"bucket absent", "http://localhost:9000/other-bucket/images/a.jpg", "reports-images"},
		{"url ends at bucket", "http://x/reports-images", "reports-images"},
		{"empty key after bucket", "http://x/reports-images/", "reports-images"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := ExtractPath(tc.url, tc.bucket)
			require.False(t, ok)
		})
	}
}

func TestExtractPath_FirstOccurrenceWins(t *testing.T) {
	// Bucket text appearing earlier in the URL shifts the extracted path;
	// documented approximation of the substring scan.
	url := "http://reports-images.example.com/reports-images/images/a.jpg"
	got, ok := ExtractPath(url, "reports-images")
	require.True(t, ok)
	require.Equal(t, "example.com/reports-images/images/a.jpg", got)
}

func TestPublicURL_EmptyParts(t *testing.T) {
	s := NewMinioStorage("localhost:9000", "minioadmin", "minioadmin", false)
	require.Empty(t, s.PublicURL("", "images/a.jpg"))
	require.Empty(t, s.PublicURL("reports-images", ""))

	unconfigured := NewMinioStorage("", "", "", false)
	require.Empty(t, unconfigured.PublicURL("reports-images", "images/a.jpg"))
}

func TestUnconfiguredStorage_FailsOnFirstUse(t *testing.T) {
	s := NewMinioStorage("", "", "", false)

	ctx := context.Background()
	err := s.Remove(ctx, "reports-images", "images/a.jpg")
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = s.SignedURL(ctx, "reports-images", "images/a.jpg", 0)
	require.ErrorIs(t, err, ErrNotConfigured)
}
