package media

import (
	"encoding/json"
	"fmt"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func encodeSizes(sizes []Size) (string, error) {
	if sizes == nil {
		sizes = []Size{}
	}
	b, err := json.Marshal(sizes)
	if err != nil {
		return "", fmt.Errorf("encode sizes: %w", err)
	}
	return string(b), nil
}

func scanAttachment(row rowScanner) (*Attachment, error) {
	a := &Attachment{}
	var sizes []byte
	if err := row.Scan(&a.ID, &a.File, &a.Width, &a.Height, &a.MimeType, &sizes); err != nil {
		return nil, err
	}
	if len(sizes) > 0 {
		if err := json.Unmarshal(sizes, &a.Sizes); err != nil {
			return nil, fmt.Errorf("decode sizes of attachment %d: %w", a.ID, err)
		}
	}
	return a, nil
}
