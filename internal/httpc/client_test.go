package httpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte(`{"status":0}`))
		case "/bad":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"status":-22}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream down"))
		}
	}))
	defer srv.Close()

	var out struct {
		Status int `json:"status"`
	}

	code, err := DoJSON(context.Background(), nil, http.MethodGet, srv.URL+"/ok", &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, out.Status)

	code, err = DoJSON(context.Background(), srv.Client(), http.MethodPut, srv.URL+"/bad", &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, -22, out.Status)

	code, err = DoJSON(context.Background(), srv.Client(), http.MethodGet, srv.URL+"/gone", &out)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "upstream down", statusErr.Body)
}
