package storage

import "strings"

// ExtractPath recovers the object key from a previously issued public URL.
// It scans for the first occurrence of bucket in url and returns everything
// after "bucket/", with any query string stripped. Returns "" and false on
// malformed input (empty url or bucket, or bucket not present in url).
//
// Example: ".../object/public/reports-images/images/uuid.jpg" with bucket
// "reports-images" yields "images/uuid.jpg". If the bucket name happens to
// occur earlier in the URL as unrelated text, the first occurrence wins —
// a known approximation, since URL formats here always embed the bucket
// exactly once.
func ExtractPath(url, bucket string) (string, bool) {
	if url == "" || bucket == "" {
		return "", false
	}
	idx := strings.Index(url, bucket)
	if idx == -1 {
		return "", false
	}
	start := idx + len(bucket) + 1 // skip the separator after the bucket name
	if start > len(url) {
		return "", false
	}
	path := url[start:]
	if q := strings.IndexByte(path, '?'); q != -1 {
		path = path[:q]
	}
	if path == "" {
		return "", false
	}
	return path, true
}
