package service

import (
	"strings"

	"github.com/fundsight/fundsight/domain/extract"
)

// Chunk is one paragraph of page text destined for the vector index.
type Chunk struct {
	Text string
	Page int
}

// ChunkText splits each page's text into paragraph chunks on blank lines.
// Chunks are trimmed; empty paragraphs are dropped.
func ChunkText(blocks []extract.PageText) []Chunk {
	var chunks []Chunk
	for _, block := range blocks {
		for _, para := range strings.Split(block.Text, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			chunks = append(chunks, Chunk{Text: para, Page: block.PageNumber})
		}
	}
	return chunks
}
