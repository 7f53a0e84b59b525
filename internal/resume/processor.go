package resume

import (
	"context"
	"fmt"

	"hiretrack/internal/store"

	"github.com/google/uuid"
)

// Processor parses one stored resume and persists the result.
type Processor struct {
	resumes    store.ResumeStore
	blobs      BlobStore
	extractors *Extractors
	parser     *Parser
}

// NewProcessor wires a Processor.
func NewProcessor(resumes store.ResumeStore, blobs BlobStore, extractors *Extractors, parser *Parser) *Processor {
	return &Processor{resumes: resumes, blobs: blobs, extractors: extractors, parser: parser}
}

// Process extracts and saves the parsed content of resume id.
// Errors wrapping ErrUnsupported or store.ErrNotFound will never succeed on retry.
func (p *Processor) Process(ctx context.Context, id uuid.UUID) (*store.ParsedContent, error) {
	r, err := p.resumes.GetResumeByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load resume %s: %w", id, err)
	}

	x, err := p.extractors.For(r.ContentType, r.Filename)
	if err != nil {
		return nil, err
	}

	blob, err := p.blobs.Open(ctx, r.Path)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	text, err := x.Extract(ctx, blob)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", r.Filename, err)
	}

	parsed := p.parser.Parse(text)
	if err := p.resumes.SaveParsedResume(ctx, id, parsed); err != nil {
		return nil, fmt.Errorf("save parsed resume %s: %w", id, err)
	}
	return &parsed, nil
}

// NewDefaultProcessor uses the default dictionaries. PDF extraction is only
// enabled when pdfCommand is set.
func NewDefaultProcessor(resumes store.ResumeStore, blobs BlobStore, pdfCommand string) *Processor {
	var pdf Extractor
	if c := NewCommand(pdfCommand); c != nil {
		pdf = c
	}
	return NewProcessor(resumes, blobs, NewExtractors(pdf), NewParser(DefaultSkills, DefaultEducationKeywords))
}
