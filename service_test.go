package pannier_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quaelen/pannier"
	"github.com/quaelen/pannier/memstore"
)

const origin = "https://files.example.com"

func TestService_Upload_Success(t *testing.T) {
	store := memstore.New()
	svc := pannier.NewService(store, pannier.ServiceConfig{})

	result, err := svc.Upload(context.Background(), pannier.UploadInput{
		FileName:    "holiday.jpg",
		ContentType: "image/jpeg",
		Body:        strings.NewReader("jpeg bytes"),
	}, origin)

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, strings.HasSuffix(result.Key, ".jpg"))
	assert.NotContains(t, result.Key, "holiday")
	assert.Equal(t, origin+"/"+result.Key, result.URL)
	assert.Equal(t, pannier.CategoryImage, result.Category)

	info, rc, err := store.Get(context.Background(), result.Key)
	assert.NoError(t, err)
	defer func() { _ = rc.Close() }()
	assert.Equal(t, "image/jpeg", info.ContentType)
	data, err := io.ReadAll(rc)
	assert.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
}

func TestService_Upload_CustomPath(t *testing.T) {
	svc := pannier.NewService(memstore.New(), pannier.ServiceConfig{})

	result, err := svc.Upload(context.Background(), pannier.UploadInput{
		FileName:      "pic.png",
		ContentType:   "image/png",
		UseCustomPath: true,
		CustomPath:    "/photos/2026/",
		Body:          strings.NewReader("png"),
	}, origin)

	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Key, "photos/2026/"))
}

func TestService_Upload_CustomPathIgnoredWhenDisabled(t *testing.T) {
	svc := pannier.NewService(memstore.New(), pannier.ServiceConfig{})

	result, err := svc.Upload(context.Background(), pannier.UploadInput{
		FileName:      "pic.png",
		ContentType:   "image/png",
		UseCustomPath: false,
		CustomPath:    "photos/2026",
		Body:          strings.NewReader("png"),
	}, origin)

	assert.NoError(t, err)
	assert.NotContains(t, result.Key, "/")
}

func TestService_Upload_MissingBody(t *testing.T) {
	svc := pannier.NewService(memstore.New(), pannier.ServiceConfig{})

	_, err := svc.Upload(context.Background(), pannier.UploadInput{
		FileName:    "pic.png",
		ContentType: "image/png",
	}, origin)

	assert.ErrorIs(t, err, pannier.ErrBadUpload)
}

func TestService_Upload_RestrictTypes(t *testing.T) {
	svc := pannier.NewService(memstore.New(), pannier.ServiceConfig{RestrictTypes: true})

	_, err := svc.Upload(context.Background(), pannier.UploadInput{
		FileName:    "malware.xyz",
		ContentType: "application/x-whatever",
		Body:        strings.NewReader("data"),
	}, origin)
	assert.ErrorIs(t, err, pannier.ErrBadUpload)

	// Known extension passes even with an unhelpful content type.
	result, err := svc.Upload(context.Background(), pannier.UploadInput{
		FileName:    "song.mp3",
		ContentType: "application/octet-stream",
		Body:        strings.NewReader("data"),
	}, origin)
	assert.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.Key, ".mp3"))
}

func TestService_Upload_DefaultsContentType(t *testing.T) {
	store := memstore.New()
	svc := pannier.NewService(store, pannier.ServiceConfig{})

	result, err := svc.Upload(context.Background(), pannier.UploadInput{
		FileName: "mystery",
		Body:     strings.NewReader("data"),
	}, origin)

	assert.NoError(t, err)
	info, rc, err := store.Get(context.Background(), result.Key)
	assert.NoError(t, err)
	_ = rc.Close()
	assert.Equal(t, "application/octet-stream", info.ContentType)
}

func TestService_Fetch_NotFound(t *testing.T) {
	svc := pannier.NewService(memstore.New(), pannier.ServiceConfig{})

	_, _, err := svc.Fetch(context.Background(), "missing.txt")

	assert.ErrorIs(t, err, pannier.ErrNotFound)
}

func TestService_Fetch_TrimsLeadingSlash(t *testing.T) {
	store := memstore.New()
	_, err := store.Put(context.Background(), "a.txt", "text/plain", strings.NewReader("hi"))
	assert.NoError(t, err)

	svc := pannier.NewService(store, pannier.ServiceConfig{})
	info, rc, err := svc.Fetch(context.Background(), "/a.txt")

	assert.NoError(t, err)
	defer func() { _ = rc.Close() }()
	assert.Equal(t, "a.txt", info.Key)
}

func TestService_Remove_Idempotent(t *testing.T) {
	store := memstore.New()
	_, err := store.Put(context.Background(), "a.txt", "text/plain", strings.NewReader("hi"))
	assert.NoError(t, err)

	svc := pannier.NewService(store, pannier.ServiceConfig{})

	assert.NoError(t, svc.Remove(context.Background(), "a.txt"))
	assert.NoError(t, svc.Remove(context.Background(), "a.txt"))
	assert.NoError(t, svc.Remove(context.Background(), "never-existed.txt"))
}

func TestService_Browse_DelegatesToResolver(t *testing.T) {
	store := memstore.New()
	_, err := store.Put(context.Background(), "photos/1.jpg", "image/jpeg", strings.NewReader("x"))
	assert.NoError(t, err)

	svc := pannier.NewService(store, pannier.ServiceConfig{})
	listing, err := svc.Browse(context.Background(), "", origin)

	assert.NoError(t, err)
	assert.Len(t, listing.Directories, 1)
	assert.Equal(t, "photos", listing.Directories[0].Name)
}

func TestService_UploadThenBrowseRoundTrip(t *testing.T) {
	store := memstore.New()
	svc := pannier.NewService(store, pannier.ServiceConfig{})

	result, err := svc.Upload(context.Background(), pannier.UploadInput{
		FileName:      "pic.webp",
		ContentType:   "image/webp",
		UseCustomPath: true,
		CustomPath:    "art",
		Body:          strings.NewReader("bytes"),
	}, origin)
	assert.NoError(t, err)

	listing, err := svc.Browse(context.Background(), "art", origin)
	assert.NoError(t, err)
	assert.Len(t, listing.Files, 1)
	assert.Equal(t, result.Key, listing.Files[0].Key)
	assert.Equal(t, result.URL, listing.Files[0].URL)
}
