// Package extraction turns a free-form transcript into an expense reading.
// Every session variant and the HTTP API go through Extract so that voice and
// typed input are classified identically.
package extraction

import (
	"strings"

	"github.com/satriahrh/voxpense/domain/entities"
)

// Extract runs the amount extractor and the category classifier over a transcript
func Extract(transcript string) entities.ExtractionResult {
	transcript = strings.TrimSpace(transcript)
	return entities.ExtractionResult{
		Amount:      ExtractAmount(transcript),
		Category:    Classify(transcript),
		Description: transcript,
	}
}
