// Standalone tool that downloads the all-MiniLM-L6-v2 sentence embedding
// model for local (hugot) embedding. The destination defaults to the model
// cache under the configured data directory, which is where the embedder
// looks at startup.
//
// Usage: download-model [dest]
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knights-analytics/hugot"

	"github.com/fundsight/fundsight/internal/config"
)

const modelName = "sentence-transformers/all-MiniLM-L6-v2"

func main() {
	dest := config.NewAppConfig().ModelCacheDir()
	if len(os.Args) > 1 {
		dest = os.Args[1]
	}

	// Skip if already downloaded.
	matches, _ := filepath.Glob(filepath.Join(dest, "*", "tokenizer.json"))
	if len(matches) > 0 {
		fmt.Printf("Model already present at %s\n", filepath.Dir(matches[0]))
		return
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Downloading %s to %s...\n", modelName, dest)

	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = "onnx/model.onnx"
	modelPath, err := hugot.DownloadModel(modelName, dest, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "download model: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Model downloaded to %s\n", modelPath)
}
