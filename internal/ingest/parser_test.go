package ingest

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/EgorLis/filedrop/internal/domain"
)

func newTestParser(t *testing.T, boundary string) (*parser, *bytes.Buffer, *string) {
	t.Helper()
	var body bytes.Buffer
	var filename string
	p := newParser(boundary)
	p.onFileStart = func(fn string) error {
		filename = fn
		p.sink = &body
		return nil
	}
	return p, &body, &filename
}

func buildPart(boundary, filename, data string) string {
	return "--" + boundary + "\r\n" +
		`Content-Disposition: form-data; name="file"; filename="` + filename + `"` + "\r\n" +
		"Content-Type: application/octet-stream\r\n" +
		"\r\n" +
		data +
		"\r\n--" + boundary + "--\r\n"
}

func TestParserSingleChunk(t *testing.T) {
	p, body, filename := newTestParser(t, "xyz")

	require.NoError(t, p.feed([]byte(buildPart("xyz", "a.txt", "hello"))))
	require.Equal(t, terminated, p.state)
	require.Equal(t, "a.txt", *filename)
	require.Equal(t, "hello", body.String())
}

func TestParserByteAtATime(t *testing.T) {
	p, body, filename := newTestParser(t, "xyz")

	raw := buildPart("xyz", "one by one.bin", "payload \r\n with crlf inside")
	for i := 0; i < len(raw); i++ {
		require.NoError(t, p.feed([]byte{raw[i]}))
	}
	require.Equal(t, terminated, p.state)
	require.Equal(t, "one by one.bin", *filename)
	require.Equal(t, "payload \r\n with crlf inside", body.String())
}

// Разделитель, разрезанный границей двух чанков, обязан быть найден.
func TestParserDelimiterSplitAcrossChunks(t *testing.T) {
	raw := buildPart("xyz", "a.txt", "0123456789")
	// режем внутри "\r\n--xyz--": по каждой возможной позиции
	start := strings.LastIndex(raw, "\r\n--xyz")
	for cut := start; cut < len(raw); cut++ {
		p, body, _ := newTestParser(t, "xyz")
		require.NoError(t, p.feed([]byte(raw[:cut])))
		require.NoError(t, p.feed([]byte(raw[cut:])))
		require.Equal(t, terminated, p.state, "cut at %d", cut)
		require.Equal(t, "0123456789", body.String(), "cut at %d", cut)
	}
}

// Ложное начало разделителя в данных не должно терять байты.
func TestParserDataLooksLikeDelimiter(t *testing.T) {
	// boundary "xyzzz": префикс "\r\n--xyz" встречается в данных
	data := "almost \r\n--xy but not quite, and \r\n--xyz without dashes context"
	raw := buildPart("xyzzz", "t.txt", data)

	for _, size := range []int{1, 3, 7, 64} {
		p, body, _ := newTestParser(t, "xyzzz")
		for off := 0; off < len(raw); off += size {
			end := off + size
			if end > len(raw) {
				end = len(raw)
			}
			require.NoError(t, p.feed([]byte(raw[off:end])))
		}
		require.Equal(t, terminated, p.state, "chunk size %d", size)
		require.Equal(t, data, body.String(), "chunk size %d", size)
	}
}

func TestParserIgnoresAfterTermination(t *testing.T) {
	p, body, _ := newTestParser(t, "xyz")

	require.NoError(t, p.feed([]byte(buildPart("xyz", "a.txt", "data"))))
	require.Equal(t, terminated, p.state)
	require.NoError(t, p.feed([]byte("trailing garbage")))
	require.Equal(t, "data", body.String())
}

func TestParserNoFilenameBeforeData(t *testing.T) {
	p, _, _ := newTestParser(t, "xyz")

	raw := "--xyz\r\n" +
		`Content-Disposition: form-data; name="comment"` + "\r\n" +
		"\r\nnot a file\r\n--xyz--\r\n"
	err := p.feed([]byte(raw))
	require.ErrorIs(t, err, domain.ErrMalformedUpload)
}

func TestParserHeaderOverflow(t *testing.T) {
	p, _, _ := newTestParser(t, "xyz")

	junk := bytes.Repeat([]byte("x"), maxHeaderBytes+1)
	err := p.feed(junk)
	require.ErrorIs(t, err, domain.ErrMalformedUpload)
}

func TestParserSinkErrorPropagates(t *testing.T) {
	sinkErr := errors.New("disk is on fire")
	p := newParser("xyz")
	p.onFileStart = func(string) error {
		p.sink = failingWriter{err: sinkErr}
		return nil
	}
	err := p.feed([]byte(buildPart("xyz", "a.txt", "data")))
	require.ErrorIs(t, err, sinkErr)
}

type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }

func TestParseBoundary(t *testing.T) {
	b, err := parseBoundary("multipart/form-data; boundary=abc123")
	require.NoError(t, err)
	require.Equal(t, "abc123", b)

	_, err = parseBoundary("multipart/form-data")
	require.ErrorIs(t, err, domain.ErrMalformedUpload)

	_, err = parseBoundary("application/json")
	require.ErrorIs(t, err, domain.ErrMalformedUpload)

	_, err = parseBoundary("")
	require.ErrorIs(t, err, domain.ErrMalformedUpload)
}

func TestExtractFilename(t *testing.T) {
	block := "--xyz\r\n" +
		"Content-Type: text/plain\r\n" +
		`content-disposition: form-data; name="file"; filename="отчёт.txt"`
	require.Equal(t, "отчёт.txt", extractFilename([]byte(block)))

	require.Equal(t, "", extractFilename([]byte("Content-Type: text/plain")))
}
