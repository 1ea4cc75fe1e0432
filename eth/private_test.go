package eth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTesseraStoreRaw(t *testing.T) {
	key := make([]byte, 64)
	key[0] = 0xab

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storeraw", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req storeRawRequest
		assert.Nil(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0xca, 0xfe}), req.Payload)
		assert.Equal(t, "sender", req.From)

		_ = json.NewEncoder(w).Encode(storeRawResponse{Key: base64.StdEncoding.EncodeToString(key)})
	}))
	defer server.Close()

	client := NewTesseraClient(server.Client(), &TesseraProps{
		URL:     server.URL + "/",
		From:    "sender",
		Timeout: time.Second,
	})

	p, err := client.StoreRaw(context.Background(), []byte{0xca, 0xfe})

	assert.Nil(t, err)
	assert.Equal(t, key, p)
}

func TestTesseraStoreRawErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("unknown recipient"))
	}))
	defer server.Close()

	client := NewTesseraClient(server.Client(), &TesseraProps{URL: server.URL, Timeout: time.Second})

	_, err := client.StoreRaw(context.Background(), []byte{0xca, 0xfe})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown recipient")
}

func TestTesseraStoreRawInvalidKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"key":"not base64!"}`))
	}))
	defer server.Close()

	client := NewTesseraClient(server.Client(), &TesseraProps{URL: server.URL, Timeout: time.Second})

	_, err := client.StoreRaw(context.Background(), []byte{0xca, 0xfe})

	assert.Error(t, err)
}
