// internal/adapter/storage/seed.go

package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"safetails/internal/domain/record"
)

// Seed is the content of a memory store seed file
type Seed struct {
	Alerts []*record.Alert `json:"alerts"`
	Posts  []*record.Post  `json:"posts"`
	Vets   []*record.Vet   `json:"vets"`
}

// LoadSeed reads a JSON seed file. Records without an ID get a generated one
// and records without a creation time are stamped with now.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading seed file: %w", err)
	}

	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("error parsing seed file: %w", err)
	}

	now := time.Now().UTC()
	for _, a := range seed.Alerts {
		fillBase(&a.Base, now)
	}
	for _, p := range seed.Posts {
		fillBase(&p.Base, now)
	}
	for _, v := range seed.Vets {
		fillBase(&v.Base, now)
	}

	return &seed, nil
}

func fillBase(b *record.Base, now time.Time) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.Location.Type == "" && len(b.Location.Coordinates) == 2 {
		b.Location.Type = "Point"
	}
}

// MemoryStores holds one in-memory store per collection
type MemoryStores struct {
	Alerts *MemoryStore[*record.Alert]
	Posts  *MemoryStore[*record.Post]
	Vets   *MemoryStore[*record.Vet]
}

// NewMemoryStores builds the in-memory collections, optionally from a seed file
func NewMemoryStores(seedFile string) (*MemoryStores, error) {
	stores := &MemoryStores{
		Alerts: NewMemoryStore[*record.Alert](),
		Posts:  NewMemoryStore[*record.Post](),
		Vets:   NewMemoryStore[*record.Vet](),
	}
	if seedFile == "" {
		return stores, nil
	}

	seed, err := LoadSeed(seedFile)
	if err != nil {
		return nil, err
	}
	stores.Alerts.Add(seed.Alerts...)
	stores.Posts.Add(seed.Posts...)
	stores.Vets.Add(seed.Vets...)

	return stores, nil
}
