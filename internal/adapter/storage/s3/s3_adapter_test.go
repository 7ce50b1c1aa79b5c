package s3

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
)

func TestPublicURLAndKeyFromURL(t *testing.T) {
	s := newS3Storage(nil, "listings", "http://localhost:9000/", logger.NewNop())

	url := s.PublicURL("user-1/1709294400000_desk photo.png")
	assert.Equal(t, "http://localhost:9000/listings/user-1/1709294400000_desk%20photo.png", url)

	key, ok := s.KeyFromURL(url)
	assert.True(t, ok)
	assert.Equal(t, "user-1/1709294400000_desk photo.png", key)
}

func TestKeyFromURL_Foreign(t *testing.T) {
	s := newS3Storage(nil, "listings", "http://localhost:9000", logger.NewNop())

	for _, u := range []string{
		"",
		"http://localhost:9000/listings/",
		"http://localhost:9000/other/user-1/a.png",
		"https://cdn.example.com/listings/user-1/a.png",
	} {
		_, ok := s.KeyFromURL(u)
		assert.False(t, ok, u)
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}))
	assert.False(t, isNotFound(errors.New("dial tcp: refused")))
}

func TestIsPreconditionFailed(t *testing.T) {
	assert.True(t, isPreconditionFailed(minio.ErrorResponse{Code: "PreconditionFailed", StatusCode: 412}))
	assert.True(t, isPreconditionFailed(minio.ErrorResponse{StatusCode: 412}))
	assert.False(t, isPreconditionFailed(minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}))
	assert.False(t, isPreconditionFailed(errors.New("dial tcp: refused")))
}

func TestUpload_ConditionalPutConflict(t *testing.T) {
	var ifNoneMatch string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			ifNoneMatch = r.Header.Get("If-None-Match")
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusPreconditionFailed)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>PreconditionFailed</Code><Message>At least one of the pre-conditions you specified did not hold</Message></Error>`))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	client, err := minio.New(strings.TrimPrefix(srv.URL, "http://"), &minio.Options{
		Creds:  credentials.NewStaticV4("access", "secret", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)
	s := newS3Storage(client, "listings", srv.URL, logger.NewNop())

	err = s.Upload(context.Background(), "user-1/1709294400000_desk.png", []byte{0x89, 'P', 'N', 'G'}, "image/png")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "*", ifNoneMatch)
}
