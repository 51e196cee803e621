package rembg

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chaos-io/nobg/util/http/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func fakeRemoveBG(t *testing.T, status int, contentType string, body []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "auto", r.FormValue("size"))

		file, header, err := r.FormFile("image_file")
		require.NoError(t, err)
		defer func() {
			_ = file.Close()
		}()
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "jpeg-bytes", string(data))
		assert.Equal(t, "upload.jpg", header.Filename)
		assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))

		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
}

func TestRemoveBG_Remove(t *testing.T) {
	t.Parallel()

	server := fakeRemoveBG(t, http.StatusOK, "image/png", []byte("png-bytes"))
	defer server.Close()

	r := NewRemoveBG("secret", server.URL, time.Second, nil)
	out, err := r.Remove(context.Background(), &Input{Data: []byte("jpeg-bytes")})
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(out.Data))
	assert.Equal(t, "image/png", out.ContentType)
}

func TestRemoveBG_Remove_UpstreamError(t *testing.T) {
	t.Parallel()

	server := fakeRemoveBG(t, http.StatusBadRequest, "application/json", []byte(`{"errors":[{"title":"No image given"}]}`))
	defer server.Close()

	r := NewRemoveBG("secret", server.URL, time.Second, nil)
	_, err := r.Remove(context.Background(), &Input{Data: []byte("jpeg-bytes")})

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusBadRequest, upstream.Status)
	assert.Equal(t, `remove.bg returned status 400: {"errors":[{"title":"No image given"}]}`, upstream.Error())
}

func TestRemoveBG_Remove_NonOKSuccess(t *testing.T) {
	t.Parallel()

	server := fakeRemoveBG(t, http.StatusAccepted, "", nil)
	defer server.Close()

	r := NewRemoveBG("secret", server.URL, time.Second, nil)
	_, err := r.Remove(context.Background(), &Input{Data: []byte("jpeg-bytes")})

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "remove.bg returned status 202", upstream.Message)
}

func TestRemoveBG_Remove_NotConfigured(t *testing.T) {
	t.Parallel()

	r := NewRemoveBG("", "", 0, nil)
	assert.False(t, r.Configured())

	_, err := r.Remove(context.Background(), &Input{Data: []byte("x")})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestRemoveBG_Remove_NetworkError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	cli := mocks.NewMockIClient(ctrl)
	refused := errors.New("dial tcp: connection refused")
	cli.EXPECT().DoHTTPRequest(gomock.Any(), gomock.Any()).Return(refused)

	r := NewRemoveBG("secret", "", 0, cli)
	_, err := r.Remove(context.Background(), &Input{Data: []byte("x"), Filename: "a.png", ContentType: "image/png"})

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.ErrorIs(t, err, refused)
}

func TestRemoveBG_Remove_DefaultContentType(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	}))
	defer server.Close()

	out, err := NewRemoveBG("secret", server.URL, 0, nil).Remove(context.Background(), &Input{Data: []byte("x")})
	require.NoError(t, err)
	// 上游没有 Content-Type 时默认 image/png
	assert.Equal(t, "image/png", out.ContentType)
}
