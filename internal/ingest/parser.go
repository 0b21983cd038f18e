package ingest

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/EgorLis/filedrop/internal/domain"
)

// Состояния потокового разбора одного multipart-запроса.
type parseState int

const (
	awaitingHeaders parseState = iota // копим заголовки части до пустой строки
	streamingBody                     // тело части уходит в sink по мере прихода
	terminated                        // разделитель найден, остальное игнорируем
)

// Лимит на блок заголовков части: защита от запроса, в котором
// пустая строка так и не приходит.
const maxHeaderBytes = 16 << 10

var crlfcrlf = []byte("\r\n\r\n")

// parser — машина состояний потокового разбора multipart/form-data с одной
// файловой частью. Всё межчанковое состояние (буфер заголовков, хвост
// несопоставленных байтов) живёт в структуре, а не в замыканиях.
//
// Хвост обязателен: разделитель может быть разрезан границей двух чанков
// (конец в одном, начало в следующем), и посимвольный поиск только внутри
// текущего чанка его не заметит.
type parser struct {
	state     parseState
	delimiter []byte // "\r\n--" + boundary
	headerBuf []byte
	tail      []byte

	// onFileStart вызывается один раз, когда заголовки разобраны и известно
	// имя файла; движок открывает цель записи и выставляет sink.
	onFileStart func(filename string) error
	sink        io.Writer
}

func newParser(boundary string) *parser {
	return &parser{
		state:     awaitingHeaders,
		delimiter: []byte("\r\n--" + boundary),
	}
}

// feed скармливает очередной чанк машине состояний.
func (p *parser) feed(chunk []byte) error {
	switch p.state {
	case awaitingHeaders:
		return p.feedHeaders(chunk)
	case streamingBody:
		return p.feedBody(chunk)
	default: // terminated: идемпотентно игнорируем
		return nil
	}
}

func (p *parser) feedHeaders(chunk []byte) error {
	p.headerBuf = append(p.headerBuf, chunk...)
	idx := bytes.Index(p.headerBuf, crlfcrlf)
	if idx < 0 {
		if len(p.headerBuf) > maxHeaderBytes {
			return fmt.Errorf("%w: part headers exceed %d bytes", domain.ErrMalformedUpload, maxHeaderBytes)
		}
		return nil
	}

	filename := extractFilename(p.headerBuf[:idx])
	if filename == "" {
		return fmt.Errorf("%w: no file name before part data", domain.ErrMalformedUpload)
	}
	if err := p.onFileStart(filename); err != nil {
		return err
	}

	// байты, пришедшие в том же чанке после пустой строки, — уже тело
	rest := p.headerBuf[idx+len(crlfcrlf):]
	p.headerBuf = nil
	p.state = streamingBody
	return p.feedBody(rest)
}

func (p *parser) feedBody(chunk []byte) error {
	data := append(p.tail, chunk...)
	p.tail = nil

	if idx := bytes.Index(data, p.delimiter); idx >= 0 {
		if err := p.flush(data[:idx]); err != nil {
			return err
		}
		p.state = terminated
		return nil
	}

	// придерживаем хвост, который может оказаться началом разделителя
	keep := len(p.delimiter) - 1
	if keep > len(data) {
		keep = len(data)
	}
	if err := p.flush(data[:len(data)-keep]); err != nil {
		return err
	}
	p.tail = append([]byte(nil), data[len(data)-keep:]...)
	return nil
}

func (p *parser) flush(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	_, err := p.sink.Write(b)
	return err
}

// parseBoundary достаёт boundary из Content-Type запроса.
func parseBoundary(contentType string) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return "", fmt.Errorf("%w: content type %q", domain.ErrMalformedUpload, contentType)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return "", fmt.Errorf("%w: no boundary in content type", domain.ErrMalformedUpload)
	}
	return boundary, nil
}

// extractFilename ищет в блоке заголовков части Content-Disposition
// и возвращает параметр filename (без каталожной части, как прислал клиент).
func extractFilename(headerBlock []byte) string {
	for _, line := range strings.Split(string(headerBlock), "\r\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "Content-Disposition") {
			continue
		}
		_, params, err := mime.ParseMediaType(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		if fn := params["filename"]; fn != "" {
			return fn
		}
	}
	return ""
}
