package extractor

import (
	"log"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/ExamPrep/internal/core"
)

var _ core.TextExtractor = (*DocconvExtractor)(nil)

// DocconvExtractor implements core.TextExtractor using sajari/docconv.
type DocconvExtractor struct{}

func NewDocconvExtractor() *DocconvExtractor {
	return &DocconvExtractor{}
}

// ExtractFile converts the file at path to plain text. Failures are swallowed
// and reported as empty output; the caller decides what an empty exam means.
func (e *DocconvExtractor) ExtractFile(path string) string {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		log.Printf("docconv: extraction failed for %q: %v", path, err)
		return ""
	}
	if res == nil {
		return ""
	}
	return res.Body
}
