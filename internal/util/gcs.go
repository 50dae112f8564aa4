package util

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// WriteObject stores data at bucketName/objectName and returns the number of
// bytes written.
func WriteObject(ctx context.Context, client *storage.Client, bucketName, objectName, contentType string, data []byte) (int64, error) {
	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}

	n, err := w.Write(data)
	if err != nil {
		_ = w.Close()
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return int64(n), nil
}

// ListObjects returns the attributes of every object under prefix, in the
// order the bucket lists them.
func ListObjects(ctx context.Context, client *storage.Client, bucketName, prefix string) ([]*storage.ObjectAttrs, error) {
	var out []*storage.ObjectAttrs
	it := client.Bucket(bucketName).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, attrs)
	}
	return out, nil
}

// GSURL formats a gs:// reference.
func GSURL(bucketName, objectName string) string {
	return fmt.Sprintf("gs://%s/%s", bucketName, objectName)
}

// DecodeBase64Payload strips an optional "data:<mime>;base64," prefix and
// decodes the rest.
func DecodeBase64Payload(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ","); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+1:]
	}
	if s == "" {
		return nil, fmt.Errorf("empty upload payload")
	}
	return base64.StdEncoding.DecodeString(s)
}

// ParseStorageURL splits a stored object reference into bucket and object
// path. Supported forms:
//   - gs://<bucket>/<object>
//   - https://storage.googleapis.com/<bucket>/<object>
//   - https://<bucket>.storage.googleapis.com/<object>
//
// Query strings (signed URLs) are ignored.
func ParseStorageURL(raw string) (bucket, objectPath string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", fmt.Errorf("empty storage url")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	host := strings.ToLower(u.Host)
	p := strings.TrimPrefix(u.Path, "/")

	switch {
	case u.Scheme == "gs":
		bucket, objectPath = u.Host, p
	case host == "storage.googleapis.com":
		bucket, objectPath, _ = strings.Cut(p, "/")
	case strings.HasSuffix(host, ".storage.googleapis.com"):
		bucket, objectPath = strings.TrimSuffix(host, ".storage.googleapis.com"), p
	default:
		return "", "", fmt.Errorf("unsupported storage url: %s", raw)
	}

	if bucket == "" || objectPath == "" {
		return "", "", fmt.Errorf("invalid storage url format: %s", raw)
	}
	return bucket, objectPath, nil
}

var unsafePathChars = regexp.MustCompile(`[^a-z0-9_\-]`)

// SanitizePart makes s safe to use as one object path segment.
func SanitizePart(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafePathChars.ReplaceAllString(s, "")
	if s == "" {
		return "unknown"
	}
	return s
}
