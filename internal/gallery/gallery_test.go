package gallery

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishal1807gupta/go-splitwise/internal/api"
	"github.com/vishal1807gupta/go-splitwise/internal/apitest"
	"github.com/vishal1807gupta/go-splitwise/internal/apperrors"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	gifHeader  = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	webpHeader = []byte("RIFF\x24\x00\x00\x00WEBPVP8 ")
)

func newGallery(t *testing.T, groupID int64) (*Gallery, *apitest.Backend) {
	t.Helper()
	backend := apitest.New(t)
	client, err := api.New(backend.URL())
	require.NoError(t, err)
	return New(client, groupID, nil), backend
}

func TestCheckImage(t *testing.T) {
	for name, data := range map[string][]byte{"png": pngHeader, "jpeg": jpegHeader, "gif": gifHeader, "webp": webpHeader} {
		mime, err := CheckImage(data)
		require.NoError(t, err, name)
		assert.Equal(t, "image/"+name, mime)
	}

	_, err := CheckImage(nil)
	assert.Equal(t, MsgNoImage, apperrors.Message(err))

	_, err = CheckImage([]byte("just some text"))
	assert.Equal(t, MsgUnsupported, apperrors.Message(err))

	_, err = CheckImage([]byte("BM\x3a\x00\x00\x00\x00\x00\x00\x00\x36\x00\x00\x00\x28\x00"))
	assert.Equal(t, MsgUnsupported, apperrors.Message(err))
}

func TestUploadRejectsLargeFileBeforeNetwork(t *testing.T) {
	g, backend := newGallery(t, 3)
	big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, MaxUploadSize)...)

	_, err := g.Upload(context.Background(), "big.png", big)
	require.Error(t, err)
	assert.Equal(t, "File is too large. Please select an image under 5MB.", apperrors.Message(err))
	assert.Equal(t, 0, backend.Calls("memories_upload"))
}

func TestUploadPrependsAndDeleteFilters(t *testing.T) {
	g, backend := newGallery(t, 3)
	old := backend.AddMemory(3, "old.png")
	ctx := context.Background()

	list, err := g.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	created, err := g.Upload(ctx, "new.png", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "new.png", created.Filename)
	got := g.Memories()
	require.Len(t, got, 2)
	assert.Equal(t, created.ID, got[0].ID)
	assert.Equal(t, 1, backend.Calls("memories"), "upload does not re-fetch")

	g.RequestDelete(old.ID)
	g.CancelDelete()
	_, ok := g.PendingDelete()
	assert.False(t, ok)
	assert.Equal(t, MsgNothingPending, apperrors.Message(g.ConfirmDelete(ctx)))
	assert.Equal(t, 0, backend.Calls("memories_delete"))

	g.RequestDelete(old.ID)
	require.NoError(t, g.ConfirmDelete(ctx))
	got = g.Memories()
	require.Len(t, got, 1)
	assert.Equal(t, created.ID, got[0].ID)
	_, ok = g.PendingDelete()
	assert.False(t, ok)
}

func TestDeleteFailureKeepsList(t *testing.T) {
	g, backend := newGallery(t, 3)
	m := backend.AddMemory(3, "a.png")
	ctx := context.Background()
	_, err := g.Fetch(ctx)
	require.NoError(t, err)

	backend.Fail("memories_delete", http.StatusInternalServerError, "s3 down")
	g.RequestDelete(m.ID)
	err = g.ConfirmDelete(ctx)
	assert.Equal(t, MsgDeleteFailed, apperrors.Message(err))
	assert.Len(t, g.Memories(), 1)
	id, ok := g.PendingDelete()
	assert.True(t, ok)
	assert.Equal(t, m.ID, id)
}

func TestUploadFailure(t *testing.T) {
	g, backend := newGallery(t, 3)
	backend.Fail("memories_upload", http.StatusInternalServerError, "x")

	_, err := g.Upload(context.Background(), "a.gif", gifHeader)
	assert.Equal(t, MsgUploadFailed, apperrors.Message(err))
	assert.Empty(t, g.Memories())
	assert.False(t, g.Uploading())
}
