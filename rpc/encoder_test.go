package rpc

import (
	"bytes"
	"io/ioutil"
	"testing"

	"github.com/stretchr/testify/assert"
)

type receipt struct {
	hash string
}

func (r receipt) String() string {
	return "TXHash: " + r.hash
}

func TestJsonEncoderEncode(t *testing.T) {
	buffer := bytes.NewBufferString("")

	err := JsonEncoder{}.Encode(buffer, map[string]string{
		"functionName":    "get",
		"contractAddress": "0x01",
	})
	assert.Nil(t, err)

	p, err := ioutil.ReadAll(buffer)
	assert.Nil(t, err)
	assert.Equal(t, "{\"contractAddress\":\"0x01\",\"functionName\":\"get\"}\n", string(p))
}

func TestTextEncoderEncodeStringer(t *testing.T) {
	buffer := bytes.NewBufferString("")

	err := TextEncoder{}.Encode(buffer, receipt{hash: "0x01"})

	assert.Nil(t, err)
	assert.Equal(t, "TXHash: 0x01", buffer.String())
	assert.Equal(t, ContentTypeText, TextEncoder{}.ContentType(receipt{}))
}

func TestTextEncoderEncodeError(t *testing.T) {
	buffer := bytes.NewBufferString("")

	err := TextEncoder{}.Encode(buffer, Error{ErrorCode: 2001, Description: "bad request"})

	assert.Nil(t, err)
	assert.Equal(t, "bad request", buffer.String())
}

func TestTextEncoderEncodeFallbackJson(t *testing.T) {
	buffer := bytes.NewBufferString("")

	err := TextEncoder{}.Encode(buffer, map[string]string{"health": "healthy"})

	assert.Nil(t, err)
	assert.Equal(t, "{\"health\":\"healthy\"}\n", buffer.String())
	assert.Equal(t, ContentTypeJson, TextEncoder{}.ContentType(map[string]string{}))
}
