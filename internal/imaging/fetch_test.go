package imaging

import (
	"context"
	"image/color"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/nutritive-go/internal/errors"
)

func newMockClient(t *testing.T) *http.Client {
	t.Helper()
	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func TestFetchDownloadsImage(t *testing.T) {
	client := newMockClient(t)
	body := encodePNG(t, solidImage(16, 16, color.White))
	httpmock.RegisterResponder(http.MethodGet, "https://images.example.com/thali.png",
		httpmock.NewBytesResponder(http.StatusOK, body))

	data, err := Fetch(context.Background(), client, "https://images.example.com/thali.png", 0)
	require.NoError(t, err)
	assert.Equal(t, body, data)

	photo, err := Open(context.Background(), client, "https://images.example.com/thali.png", 0)
	require.NoError(t, err)
	assert.Equal(t, 16, photo.Width())
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestFetchErrors(t *testing.T) {
	client := newMockClient(t)
	httpmock.RegisterResponder(http.MethodGet, "https://images.example.com/missing.png",
		httpmock.NewStringResponder(http.StatusNotFound, "not found"))
	httpmock.RegisterResponder(http.MethodGet, "https://images.example.com/huge.png",
		httpmock.NewBytesResponder(http.StatusOK, make([]byte, 2048)))

	_, err := Fetch(context.Background(), client, "https://images.example.com/missing.png", 0)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork))

	_, err = Fetch(context.Background(), client, "https://images.example.com/huge.png", 1024)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryLimit))

	_, err = Fetch(context.Background(), client, "ftp://images.example.com/a.png", 0)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	// unregistered URL: httpmock returns a transport error
	_, err = Fetch(context.Background(), client, "https://images.example.com/other.png", 0)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork))
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	assert.True(t, IsURL("https://a/b.jpg"))
	assert.True(t, IsURL("http://a/b.jpg"))
	assert.False(t, IsURL("/tmp/b.jpg"))
	assert.False(t, IsURL("meal.jpg"))
}
