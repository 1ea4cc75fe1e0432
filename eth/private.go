package eth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	stderr "github.com/pkg/errors"

	"github.com/oasislabs/quorum-functions/rw"
)

// PrivacyManager stores the payload of private transactions so that
// only the hash of the payload is included in the chain
type PrivacyManager interface {
	// StoreRaw stores payload and returns the hash that replaces it
	// as the data of the transaction
	StoreRaw(ctx context.Context, payload []byte) ([]byte, error)
}

// HttpClient is the subset of *http.Client used by the
// privacy manager client
type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TesseraProps configure a TesseraClient
type TesseraProps struct {
	// URL of the third party API of the privacy manager
	URL string

	// From is the public key of the privacy manager sending the
	// payload. When empty the default key of the node is used
	From string

	// Timeout bounds each call to the privacy manager
	Timeout time.Duration
}

// TesseraClient is a PrivacyManager backed by the tessera third
// party API
type TesseraClient struct {
	client  HttpClient
	url     string
	from    string
	timeout time.Duration
}

// NewTesseraClient creates a new TesseraClient. If client is nil
// http.DefaultClient is used
func NewTesseraClient(client HttpClient, props *TesseraProps) *TesseraClient {
	if client == nil {
		client = http.DefaultClient
	}

	return &TesseraClient{
		client:  client,
		url:     strings.TrimSuffix(props.URL, "/"),
		from:    props.From,
		timeout: props.Timeout,
	}
}

type storeRawRequest struct {
	Payload string `json:"payload"`
	From    string `json:"from,omitempty"`
}

type storeRawResponse struct {
	Key string `json:"key"`
}

// StoreRaw implementation of PrivacyManager for TesseraClient
func (c *TesseraClient) StoreRaw(ctx context.Context, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(storeRawRequest{
		Payload: base64.StdEncoding.EncodeToString(payload),
		From:    c.from,
	})
	if err != nil {
		return nil, stderr.Wrap(err, "failed to encode storeraw request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/storeraw", bytes.NewReader(body))
	if err != nil {
		return nil, stderr.Wrap(err, "failed to build storeraw request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, stderr.Wrap(err, "failed to store private payload")
	}
	defer func() { _ = res.Body.Close() }()

	p, err := rw.ReadAllWithLimit(res.Body, rw.ReadLimitProps{FailOnExceed: true, Limit: 1 << 12})
	if err != nil {
		return nil, stderr.Wrap(err, "failed to read storeraw response")
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("privacy manager responded with status %d: %s", res.StatusCode, string(p))
	}

	var out storeRawResponse
	if err := json.Unmarshal(p, &out); err != nil {
		return nil, stderr.Wrap(err, "failed to decode storeraw response")
	}

	key, err := base64.StdEncoding.DecodeString(out.Key)
	if err != nil || len(key) == 0 {
		return nil, fmt.Errorf("privacy manager returned invalid key %q", out.Key)
	}

	return key, nil
}
