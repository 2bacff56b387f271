package extractor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundsight/fundsight/infrastructure/extractor"
)

func TestPdfiumConverter_RunsWithoutNativeLibrary(t *testing.T) {
	conv, err := extractor.NewPdfiumConverter(testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, conv.Close()) })

	_, err = conv.Convert(context.Background(), "/no/such/report.pdf")
	assert.Error(t, err)
}
