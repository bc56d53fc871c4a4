package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressReaderReportsCumulativeBytes(t *testing.T) {
	var loaded []int64
	var totals []int64
	reader := &progressReader{
		reader: strings.NewReader("attachment"),
		total:  10,
		onProgress: func(l, total int64) {
			loaded = append(loaded, l)
			totals = append(totals, total)
		},
	}

	buf := make([]byte, 4)
	var out []byte
	for {
		n, err := reader.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	assert.Equal(t, "attachment", string(out))
	assert.Equal(t, []int64{4, 8, 10}, loaded)
	assert.Equal(t, []int64{10, 10, 10}, totals)
}

func TestProgressReaderSkipsEmptyReads(t *testing.T) {
	calls := 0
	reader := &progressReader{
		reader: strings.NewReader(""),
		total:  0,
		onProgress: func(int64, int64) {
			calls++
		},
	}

	n, err := reader.Read(make([]byte, 8))

	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.Zero(t, calls)
}

func TestObjectURLSchemeFollowsSSL(t *testing.T) {
	plain := &MinioStore{cfg: Config{Endpoint: "localhost:9000", Bucket: "chat-attachments"}}
	secure := &MinioStore{cfg: Config{Endpoint: "store.internal", Bucket: "chat-attachments", UseSSL: true}}

	assert.Equal(t, "http://localhost:9000/chat-attachments/key.png", plain.objectURL("key.png"))
	assert.Equal(t, "https://store.internal/chat-attachments/key.png", secure.objectURL("key.png"))
}
