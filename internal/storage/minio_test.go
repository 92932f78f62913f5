package storage

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
)

func TestExportPrefix(t *testing.T) {
	if got := ExportPrefix(42, "abc"); got != "exports/42/abc/" {
		t.Fatalf("ExportPrefix = %q", got)
	}
}

func TestParseBucketLookup(t *testing.T) {
	cases := map[string]minio.BucketLookupType{
		"":      minio.BucketLookupAuto,
		"auto":  minio.BucketLookupAuto,
		" DNS ": minio.BucketLookupDNS,
		"path":  minio.BucketLookupPath,
	}
	for in, want := range cases {
		got, err := parseBucketLookup(in)
		if err != nil || got != want {
			t.Errorf("parseBucketLookup(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := parseBucketLookup("virtual"); err == nil {
		t.Fatal("expected error for unknown lookup")
	}
}

func TestIsMissing(t *testing.T) {
	if !isMissing(minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}) {
		t.Fatal("NoSuchKey should count as missing")
	}
	if isMissing(minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}) {
		t.Fatal("access denied is not missing")
	}
	if isMissing(errors.New("connection reset")) {
		t.Fatal("transport errors are not missing")
	}
}
