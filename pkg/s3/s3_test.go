package s3

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/carevisit_backend/config"
)

func TestDocumentKey(t *testing.T) {
	org, patient := uuid.New(), uuid.New()

	k := DocumentKey(org, patient, "Care Plan.PDF")
	prefix := "documents/" + org.String() + "/" + patient.String() + "/"
	assert.True(t, strings.HasPrefix(k, prefix), k)
	assert.True(t, strings.HasSuffix(k, ".pdf"), k)
	assert.NotEqual(t, k, DocumentKey(org, patient, "Care Plan.PDF"))

	noExt := DocumentKey(org, patient, "scan")
	_, err := uuid.Parse(strings.TrimPrefix(noExt, prefix))
	assert.NoError(t, err)
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(config.S3Config{Region: "ap-northeast-1"})
	assert.Error(t, err)
}

func TestPresignDownload(t *testing.T) {
	c, err := New(config.S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		Bucket:          "carevisit",
		PresignTTLSec:   60,
	})
	require.NoError(t, err)

	u, err := c.PresignDownload(context.Background(), "documents/a/b/c.pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "http://localhost:9000/carevisit/documents/a/b/c.pdf?"), u)
	assert.Contains(t, u, "X-Amz-Expires=60")
}
