package datatruck

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_FetchLoads_NotConfigured(t *testing.T) {
	_, err := New("", "").FetchLoads(context.Background())
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = New("http://localhost:9000", "").FetchLoads(context.Background())
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_FetchLoads_BareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Token secret", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"L-1","last_status":"watch"},{"id":"L-2"}]`))
	}))
	defer srv.Close()

	loads, err := New(srv.URL, "secret").FetchLoads(context.Background())
	require.NoError(t, err)
	require.Len(t, loads, 2)
	require.Equal(t, "L-1", loads[0].ID)
	require.Equal(t, "WATCH", loads[0].LastStatus)
	require.Equal(t, "OK", loads[1].LastStatus)
}

func TestClient_FetchLoads_EnvelopeKeys(t *testing.T) {
	for _, key := range []string{"results", "data", "loads"} {
		t.Run(key, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprintf(w, `{"%s":[{"id":"L-1"}]}`, key)
			}))
			defer srv.Close()

			loads, err := New(srv.URL, "secret").FetchLoads(context.Background())
			require.NoError(t, err)
			require.Len(t, loads, 1)
		})
	}
}

func TestClient_FetchLoads_FollowsRelativeNext(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/loads":
			_, _ = w.Write([]byte(`{"results":[{"id":"L-1"}],"next":"/api/loads2"}`))
		case "/api/loads2":
			// next внутри pagination и относительный курсор.
			_, _ = w.Write([]byte(`{"data":[{"id":"L-2"}],"pagination":{"next":"loads3"}}`))
		case "/api/loads3":
			_, _ = w.Write([]byte(`{"loads":[{"id":"L-3"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	loads, err := New(srv.URL+"/api/loads", "secret").FetchLoads(context.Background())
	require.NoError(t, err)
	require.Len(t, loads, 3)
	require.Equal(t, []string{"/api/loads", "/api/loads2", "/api/loads3"}, paths)
}

func TestClient_FetchLoads_PageBound(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		// Всегда есть next: без ограничения обход не закончился бы никогда.
		_, _ = w.Write([]byte(`{"results":[{"id":"L"}],"next":"/api/loads"}`))
	}))
	defer srv.Close()

	loads, err := New(srv.URL+"/api/loads", "secret").FetchLoads(context.Background())
	require.NoError(t, err)
	require.Equal(t, maxPages, requests)
	require.Len(t, loads, maxPages)
}

func TestClient_FetchLoads_MalformedCursorStops(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"id":"L-1"}],"next":"http://bad host/loads"}`))
	}))
	defer srv.Close()

	loads, err := New(srv.URL, "secret").FetchLoads(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, requests)
	require.Len(t, loads, 1)
}

func TestClient_FetchLoads_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "secret").FetchLoads(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}
