package rw

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitReaderRead(t *testing.T) {
	buf := bytes.NewBuffer([]byte("some data"))
	p := make([]byte, 64)

	n, err := NewLimitReader(buf, ReadLimitProps{FailOnExceed: true, Limit: 16}).Read(p)

	assert.Nil(t, err)
	assert.Equal(t, 0, buf.Len())
	assert.Equal(t, 9, n)
	assert.Equal(t, "some data", string(p[:n]))
}

func TestLimitReaderCountsAcrossReads(t *testing.T) {
	buf := bytes.NewBuffer([]byte("some data"))
	p := make([]byte, 5)

	r := NewLimitReader(buf, ReadLimitProps{FailOnExceed: true, Limit: 8})

	n, err := r.Read(p)
	assert.Nil(t, err)
	assert.Equal(t, 5, n)

	n, err = r.Read(p)
	assert.Equal(t, ErrLimitExceeded, err)
	assert.Equal(t, 0, n)
}

func TestLimitReaderReadWithLimitErrExceed(t *testing.T) {
	buf := bytes.NewBuffer([]byte("some data"))
	p := make([]byte, 64)

	n, err := NewLimitReader(buf, ReadLimitProps{FailOnExceed: true, Limit: 8}).Read(p)

	assert.Equal(t, ErrLimitExceeded, err)
	assert.Equal(t, 0, buf.Len())
	assert.Equal(t, 0, n)
}

func TestLimitReaderReadWithLimit(t *testing.T) {
	buf := bytes.NewBuffer([]byte("some data"))
	p := make([]byte, 64)

	r := NewLimitReader(buf, ReadLimitProps{FailOnExceed: false, Limit: 8})
	n, err := r.Read(p)

	assert.Nil(t, err)
	assert.Equal(t, 1, buf.Len())
	assert.Equal(t, 8, n)
	assert.Equal(t, "some dat", string(p[:n]))

	_, err = r.Read(p)
	assert.Equal(t, io.EOF, err)
}

func TestReadAllWithLimit(t *testing.T) {
	p, err := ReadAllWithLimit(bytes.NewBufferString("{\"abi\":[]}"), ReadLimitProps{
		FailOnExceed: true,
		Limit:        16,
	})

	assert.Nil(t, err)
	assert.Equal(t, "{\"abi\":[]}", string(p))
}

func TestReadAllWithLimitErrExceed(t *testing.T) {
	_, err := ReadAllWithLimit(bytes.NewBufferString("{\"abi\":[]}"), ReadLimitProps{
		FailOnExceed: true,
		Limit:        8,
	})

	assert.Equal(t, ErrLimitExceeded, err)
}
