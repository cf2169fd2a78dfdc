package postings

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"
)

// History records postings emails were already generated for.
type History struct {
	Items []*HistoryEntry
}

type HistoryEntry struct {
	Fingerprint string
	Role        string
	GeneratedAt time.Time
}

func (p *Postings) ToHistory() *History {
	history := &History{}
	for _, posting := range p.Items {
		history.Items = append(history.Items, &HistoryEntry{
			Fingerprint: posting.Fingerprint(),
			Role:        posting.Role,
			GeneratedAt: time.Now().UTC(),
		})
	}
	return history
}

// GetHistoryFromFile reads a history file. A missing or empty file yields an
// empty history.
func GetHistoryFromFile(path string) (*History, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &History{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &History{}, nil
	}

	var history History
	if err := json.NewDecoder(file).Decode(&history); err != nil {
		return nil, err
	}
	return &history, nil
}

func (h *History) Append(s *History) {
	h.Items = append(h.Items, s.Items...)
}

func (h *History) Fingerprints() []string {
	fingerprints := make([]string, 0, len(h.Items))
	for _, entry := range h.Items {
		fingerprints = append(fingerprints, entry.Fingerprint)
	}
	return fingerprints
}

func (h *History) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(h)
}
