package resume

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrUnsupported is returned for content types no extractor handles.
var ErrUnsupported = errors.New("unsupported resume format")

// maxExtractInput caps how much of a document is read.
const maxExtractInput = 10 << 20

// Extractor turns a document into plain text.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader) (string, error)
}

// PlainText reads the document as UTF-8 text.
type PlainText struct{}

func (PlainText) Extract(_ context.Context, r io.Reader) (string, error) {
	b, err := io.ReadAll(io.LimitReader(r, maxExtractInput))
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return string(b), nil
}

// HTML extracts visible text, one block element per line.
type HTML struct{}

func (HTML) Extract(_ context.Context, r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(r, maxExtractInput))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, noscript, head").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, li, div, tr, h1, h2, h3, h4, h5, h6, section, article").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// Command pipes the document through an external converter (e.g. "pdftotext - -")
// and returns its stdout.
type Command struct {
	Args []string
}

// NewCommand splits a command line on whitespace. An empty line yields nil.
func NewCommand(line string) *Command {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	return &Command{Args: args}
}

func (c *Command) Extract(ctx context.Context, r io.Reader) (string, error) {
	if c == nil || len(c.Args) == 0 {
		return "", ErrUnsupported
	}

	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Stdin = io.LimitReader(r, maxExtractInput)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", c.Args[0], err, msg)
		}
		return "", fmt.Errorf("%s: %w", c.Args[0], err)
	}
	return stdout.String(), nil
}

// Extractors picks an Extractor by media type.
type Extractors struct {
	byType map[string]Extractor
}

// NewExtractors registers text and HTML extraction, and PDF extraction when pdf is non-nil.
func NewExtractors(pdf Extractor) *Extractors {
	e := &Extractors{byType: map[string]Extractor{
		"text/plain": PlainText{},
		"text/html":  HTML{},
	}}
	if pdf != nil {
		e.byType["application/pdf"] = pdf
	}
	return e
}

// For returns the extractor for contentType, falling back to the filename extension.
func (e *Extractors) For(contentType, filename string) (Extractor, error) {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if x, ok := e.byType[mt]; ok {
			return x, nil
		}
	}
	if mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); mt != "" {
		if base, _, err := mime.ParseMediaType(mt); err == nil {
			if x, ok := e.byType[base]; ok {
				return x, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, contentType)
}

// Supports reports whether a document of this type can be parsed.
func (e *Extractors) Supports(contentType, filename string) bool {
	_, err := e.For(contentType, filename)
	return err == nil
}
