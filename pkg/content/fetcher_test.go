package content_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/auth"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/content"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
	httpclient "github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/http"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/test/testutil"
)

var rawAccept = auth.HeaderAuth{Headers: map[string]string{"Accept": "application/vnd.github.v3.raw"}}

func newFetcher() *content.Fetcher {
	return content.NewFetcher(httpclient.NewClient(httpclient.Options{}), nil)
}

func TestFetchListing_Directory(t *testing.T) {
	host := testutil.NewContentHost(t)
	host.AddFile("root.mon", []byte("monitor Root {}"))
	host.AddFile("pkg/a.mon", []byte("monitor A {}"))
	host.AddSymlink("link")

	listing, err := newFetcher().FetchListing(context.Background(), host.ContentURL(""), rawAccept)
	require.NoError(t, err)
	assert.False(t, listing.Single)
	require.Len(t, listing.Items, 3)

	byName := map[string]content.Item{}
	for _, it := range listing.Items {
		byName[it.Name()] = it
	}
	assert.Equal(t, content.ShapeDirectory, byName["pkg"].Shape())
	assert.Empty(t, byName["pkg"].DownloadURL())
	assert.Equal(t, content.ShapeFileIndirect, byName["root.mon"].Shape())
	assert.Equal(t, content.ShapeUnsupported, byName["link"].Shape())
	assert.Equal(t, "symlink", byName["link"].UnsupportedType())
	assert.Equal(t, host.ContentURL("pkg"), byName["pkg"].APIURL())
}

func TestFetchListing_DownloadURLs(t *testing.T) {
	host := testutil.NewContentHost(t)
	host.DownloadURLs = true
	host.AddFile("blocks/Sum.mon", []byte("monitor Sum {}"))

	listing, err := newFetcher().FetchListing(context.Background(), host.ContentURL("blocks"), rawAccept)
	require.NoError(t, err)
	require.Len(t, listing.Items, 1)
	assert.Equal(t, content.ShapeFileDirect, listing.Items[0].Shape())
	assert.Equal(t, "blocks/Sum.mon", listing.Items[0].Path())
}

func TestFetchListing_SingleFileRaw(t *testing.T) {
	host := testutil.NewContentHost(t)
	host.AddFile("blocks/Sum.mon", []byte("monitor Sum {}"))

	listing, err := newFetcher().FetchListing(context.Background(), host.ContentURL("blocks/Sum.mon"), rawAccept)
	require.NoError(t, err)
	assert.True(t, listing.Single)
	require.Len(t, listing.Items, 1)
	item := listing.Items[0]
	assert.Equal(t, content.ShapeFileInline, item.Shape())
	assert.Equal(t, "Sum.mon", item.Name())
	assert.Equal(t, "monitor Sum {}", string(item.Content()))
}

func TestFetchListing_SingleFileEnvelope(t *testing.T) {
	host := testutil.NewContentHost(t)
	host.Envelope = true
	host.AddFile("blocks/Sum.mon", []byte("monitor Sum {}"))

	listing, err := newFetcher().FetchListing(context.Background(), host.ContentURL("blocks/Sum.mon"), nil)
	require.NoError(t, err)
	assert.True(t, listing.Single)
	require.Len(t, listing.Items, 1)
	assert.Equal(t, "blocks/Sum.mon", listing.Items[0].Path())
	assert.Equal(t, "monitor Sum {}", string(listing.Items[0].Content()))
}

func TestFetchListing_NotFound(t *testing.T) {
	host := testutil.NewContentHost(t)

	_, err := newFetcher().FetchListing(context.Background(), host.ContentURL("missing"), rawAccept)
	require.Error(t, err)
	var upstream *errors.UpstreamRequestError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusNotFound, upstream.Status)
}

func TestFetchListing_EntryWithoutURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"name":"a b.mon","path":"x/a b.mon","type":"file"}]`))
	}))
	defer server.Close()

	listing, err := newFetcher().FetchListing(context.Background(), server.URL+"/repos/o/r/contents/x?ref=dev", nil)
	require.NoError(t, err)
	require.Len(t, listing.Items, 1)
	assert.Equal(t, server.URL+"/repos/o/r/contents/x/a%20b.mon?ref=dev", listing.Items[0].APIURL())
}

func TestFetchListing_JSONFileContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"blocks": ["a", "b"]}`))
	}))
	defer server.Close()

	listing, err := newFetcher().FetchListing(context.Background(), server.URL+"/config.json", nil)
	require.NoError(t, err)
	require.Len(t, listing.Items, 1)
	assert.Equal(t, content.ShapeFileInline, listing.Items[0].Shape())
	assert.Equal(t, "config.json", listing.Items[0].Name())
	assert.JSONEq(t, `{"blocks": ["a", "b"]}`, string(listing.Items[0].Content()))
}

func TestFetchFileBytes(t *testing.T) {
	host := testutil.NewContentHost(t)
	host.AddFile("a.mon", []byte("monitor A {}"))

	tests := []struct {
		name   string
		setup  func()
		accept auth.Authenticator
		item   func() content.Item
	}{
		{
			name: "inline",
			item: func() content.Item {
				return content.NewInlineFile("a.mon", "a.mon", host.ContentURL("a.mon"), []byte("monitor A {}"))
			},
		},
		{
			name: "direct",
			item: func() content.Item {
				return content.NewFile("a.mon", "a.mon", host.ContentURL("a.mon"), host.Server.URL+"/raw/a.mon", 0)
			},
		},
		{
			name:   "indirect raw",
			accept: rawAccept,
			item: func() content.Item {
				return content.NewFile("a.mon", "a.mon", host.ContentURL("a.mon"), "", 0)
			},
		},
		{
			name: "indirect envelope",
			item: func() content.Item {
				return content.NewFile("a.mon", "a.mon", host.ContentURL("a.mon"), "", 0)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := newFetcher().FetchFileBytes(context.Background(), tt.item(), tt.accept)
			require.NoError(t, err)
			assert.Equal(t, "monitor A {}", string(data))
		})
	}
}

func TestFetchFileBytes_EnvelopeDecoding(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{name: "base64", body: `{"content":"SGVsbG8=","encoding":"base64"}`, want: "Hello"},
		{name: "encoding absent", body: `{"content":"SGVs\nbG8=\n"}`, want: "Hello"},
		{name: "malformed base64", body: `{"content":"not base64!","encoding":"base64"}`, wantErr: errors.ErrContentDecode},
		{name: "other encoding is raw", body: `{"content":"x","encoding":"utf-8"}`, want: `{"content":"x","encoding":"utf-8"}`},
		{name: "non envelope object", body: `{"name":"x"}`, want: `{"name":"x"}`},
		{name: "plain text", body: "event E {}", want: "event E {}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			item := content.NewFile("f", "f", server.URL+"/f", "", 0)
			data, err := newFetcher().FetchFileBytes(context.Background(), item, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestFetchFileBytes_LargeFileFollowsDownloadURL(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()
	mux.HandleFunc("/contents/big.mon", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":"","encoding":"none","download_url":"` + server.URL + `/raw/big.mon"}`))
	})
	mux.HandleFunc("/raw/big.mon", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("big content"))
	})

	item := content.NewFile("big.mon", "big.mon", server.URL+"/contents/big.mon", "", 0)
	data, err := newFetcher().FetchFileBytes(context.Background(), item, nil)
	require.NoError(t, err)
	assert.Equal(t, "big content", string(data))
}

func TestFetchFileBytes_Directory(t *testing.T) {
	_, err := newFetcher().FetchFileBytes(context.Background(), content.NewDirectory("pkg", "pkg", "http://h/pkg"), nil)
	assert.ErrorIs(t, err, errors.ErrValidation)
}
