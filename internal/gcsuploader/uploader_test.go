package gcsuploader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGCSURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{uri: "gs://statements/2024/march.pdf", wantBucket: "statements", wantObject: "2024/march.pdf"},
		{uri: "gs://b/file.csv", wantBucket: "b", wantObject: "file.csv"},
		{uri: "s3://b/file.csv", wantErr: true},
		{uri: "gs://bucket-only", wantErr: true},
		{uri: "gs://bucket/", wantErr: true},
		{uri: "gs:///file.csv", wantErr: true},
		{uri: "gs://bucket/folder/", wantErr: true},
		{uri: "/local/file.csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseGCSURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantObject, object)
		})
	}
}

func TestExtractFilenameFromGCSURI(t *testing.T) {
	assert.Equal(t, "file.pdf", ExtractFilenameFromGCSURI("gs://bucket/folder/file.pdf"))
	assert.Equal(t, "file.pdf", ExtractFilenameFromGCSURI("gs://bucket/file.pdf"))
	assert.Equal(t, "bucket", ExtractFilenameFromGCSURI("gs://bucket"))
}

func TestIsGCSURI(t *testing.T) {
	assert.True(t, IsGCSURI("gs://b/o.csv"))
	assert.False(t, IsGCSURI("statement.csv"))
}

func TestClientOptions(t *testing.T) {
	assert.Empty(t, ClientOptions(""))
	assert.Len(t, ClientOptions("/secrets/sa.json"), 1)
}
