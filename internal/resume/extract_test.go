package resume

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func TestHTML_Extract(t *testing.T) {
	doc := `<html><head><title>CV</title><style>p{}</style></head><body>
<h1>Jane   Doe</h1>
<ul><li>Go</li><li>Kubernetes</li></ul>
<p>Master of Science<br>TU Munich</p>
<script>var skills = ["php"];</script>
</body></html>`

	got, err := HTML{}.Extract(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	want := "Jane Doe\nGo\nKubernetes\nMaster of Science\nTU Munich"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCommand_Extract(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	got, err := NewCommand("cat").Extract(context.Background(), strings.NewReader("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Errorf("got %q", got)
	}

	_, err = NewCommand("definitely-not-a-real-binary").Extract(context.Background(), strings.NewReader(""))
	if err == nil {
		t.Error("expected missing binary to fail")
	}

	var unset *Command
	if _, err := unset.Extract(context.Background(), strings.NewReader("")); !errors.Is(err, ErrUnsupported) {
		t.Errorf("nil command: got %v", err)
	}
}

func TestExtractors_For(t *testing.T) {
	withPDF := NewExtractors(NewCommand("pdftotext - -"))
	withoutPDF := NewExtractors(nil)

	tests := []struct {
		name        string
		e           *Extractors
		contentType string
		filename    string
		ok          bool
	}{
		{"plain with charset", withoutPDF, "text/plain; charset=utf-8", "cv.txt", true},
		{"html", withoutPDF, "text/html", "cv.html", true},
		{"pdf enabled", withPDF, "application/pdf", "cv.pdf", true},
		{"pdf disabled", withoutPDF, "application/pdf", "cv.pdf", false},
		{"extension fallback", withoutPDF, "application/octet-stream", "cv.txt", true},
		{"word", withPDF, "application/msword", "cv.doc", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.e.For(tt.contentType, tt.filename)
			if tt.ok && err != nil {
				t.Errorf("unexpected error %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrUnsupported) {
				t.Errorf("got %v, want ErrUnsupported", err)
			}
			if tt.e.Supports(tt.contentType, tt.filename) != tt.ok {
				t.Errorf("Supports() disagrees with For()")
			}
		})
	}
}
