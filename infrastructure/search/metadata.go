package search

import (
	"encoding/json"

	"github.com/fundsight/fundsight/domain/search"
)

func encodeMetadata(m search.Metadata) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func decodeMetadata(raw []byte) (search.Metadata, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m search.Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
