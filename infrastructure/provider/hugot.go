package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

const hugotBatchMax = 10

// ortSingleton holds the process-wide ONNX Runtime session and pipeline.
// ORT allows one active session per process, so all HugotEmbedder
// instances share it; the mutex serializes initialization and inference.
var ortSingleton struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	mu       sync.Mutex
	ready    bool
}

// HugotEmbedder generates embeddings locally with a sentence-transformer
// ONNX model. It is the fallback when no embedding API key is configured.
// The model must exist on disk as a subdirectory of cacheDir containing
// tokenizer.json; the download-model command fetches it.
type HugotEmbedder struct {
	cacheDir  string
	dimension int
}

// NewHugotEmbedder creates a HugotEmbedder looking for model files in
// cacheDir.
func NewHugotEmbedder(cacheDir string, dimension int) *HugotEmbedder {
	return &HugotEmbedder{cacheDir: cacheDir, dimension: dimension}
}

// Available reports whether a usable model exists on disk.
func (h *HugotEmbedder) Available() bool {
	_, err := h.modelPath()
	return err == nil
}

// Dimension returns the embedding dimension.
func (h *HugotEmbedder) Dimension() int { return h.dimension }

// Embed generates embeddings for the given texts, batching internally.
func (h *HugotEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	if err := h.initialize(); err != nil {
		return nil, fmt.Errorf("initialize local embedder: %w", err)
	}

	vectors := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += hugotBatchMax {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + hugotBatchMax
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := h.embedBatch(texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (h *HugotEmbedder) embedBatch(texts []string) ([][]float64, error) {
	// Hold the singleton mutex for inference: ORT is not thread-safe.
	ortSingleton.mu.Lock()
	defer ortSingleton.mu.Unlock()

	result, err := ortSingleton.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("run embedding pipeline: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding pipeline returned %d vectors for %d texts", len(result.Embeddings), len(texts))
	}
	vectors := make([][]float64, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		vec := make([]float64, len(emb))
		for j, f := range emb {
			vec[j] = float64(f)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (h *HugotEmbedder) initialize() error {
	ortSingleton.mu.Lock()
	defer ortSingleton.mu.Unlock()

	if ortSingleton.ready {
		return nil
	}

	session, err := newHugotSession()
	if err != nil {
		return fmt.Errorf("create hugot session: %w", err)
	}

	modelPath, err := h.modelPath()
	if err != nil {
		_ = session.Destroy()
		return err
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "local-embeddings",
		Options: []hugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		_ = session.Destroy()
		return fmt.Errorf("create feature extraction pipeline: %w", err)
	}

	ortSingleton.session = session
	ortSingleton.pipeline = pipeline
	ortSingleton.ready = true
	return nil
}

// modelPath looks for a model subdirectory containing tokenizer.json
// inside cacheDir.
func (h *HugotEmbedder) modelPath() (string, error) {
	entries, err := os.ReadDir(h.cacheDir)
	if err != nil {
		return "", fmt.Errorf("read model directory %s: %w", h.cacheDir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(h.cacheDir, entry.Name())
		if _, statErr := os.Stat(filepath.Join(candidate, "tokenizer.json")); statErr == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no embedding model found in %s (run the download-model command)", h.cacheDir)
}
