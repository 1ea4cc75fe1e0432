package rpc

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/oasislabs/quorum-functions/rw"
	stderr "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestJsonDecoderDecode(t *testing.T) {
	buffer := bytes.NewBufferString("{\"contractAddress\":\"0x01\",\"functionName\":\"get\"}\n")
	m := make(map[string]string)

	err := JsonDecoder{}.Decode(buffer, &m)

	assert.Nil(t, err)
	assert.Equal(t, map[string]string{
		"functionName":    "get",
		"contractAddress": "0x01",
	}, m)
}

func TestJsonDecoderDecodeUseNumber(t *testing.T) {
	buffer := bytes.NewBufferString("{\"inputParams\":[115792089237316195423570985008687907853269984665640564039457584007913129639935]}")
	var m map[string][]interface{}

	err := JsonDecoder{}.Decode(buffer, &m)

	assert.Nil(t, err)
	assert.Equal(t, json.Number("115792089237316195423570985008687907853269984665640564039457584007913129639935"),
		m["inputParams"][0])
}

func TestJsonDecoderDecodeWithLimit(t *testing.T) {
	buffer := bytes.NewBufferString("{\"contractAddress\":\"0x01\",\"functionName\":\"get\"}\n")
	m := make(map[string]string)

	err := JsonDecoder{}.DecodeWithLimit(buffer, &m, rw.ReadLimitProps{
		FailOnExceed: true,
		Limit:        1024,
	})

	assert.Nil(t, err)
	assert.Equal(t, map[string]string{
		"functionName":    "get",
		"contractAddress": "0x01",
	}, m)
}

func TestJsonDecoderDecodeWithLimitTooSmall(t *testing.T) {
	buffer := bytes.NewBufferString("{\"contractAddress\":\"0x01\",\"functionName\":\"get\"}\n")
	m := make(map[string]string)

	err := JsonDecoder{}.DecodeWithLimit(buffer, &m, rw.ReadLimitProps{
		FailOnExceed: false,
		Limit:        10,
	})

	assert.Equal(t, "failed to decode json: unexpected EOF", err.Error())
}

func TestJsonDecoderDecodeWithLimitTooMuchData(t *testing.T) {
	buffer := bytes.NewBufferString("{\"contractAddress\":\"0x01\",\"functionName\":\"get\"}\n")
	m := make(map[string]string)

	err := JsonDecoder{}.DecodeWithLimit(buffer, &m, rw.ReadLimitProps{
		FailOnExceed: true,
		Limit:        10,
	})

	assert.Equal(t, rw.ErrLimitExceeded, stderr.Cause(err))
}

func TestJsonDecoderDecodeMalformed(t *testing.T) {
	m := make(map[string]string)

	err := JsonDecoder{}.Decode(bytes.NewBufferString("{\"contractAddress\":"), &m)

	assert.Error(t, err)
}
