package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/sulthanfragrance/storefront/internal/models"
)

// Indexer keeps the product search index in step with catalog writes.
type Indexer struct {
	ES    *elasticsearch.Client
	Index string
}

type productDoc struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	ShortDescription string    `json:"short_description"`
	FullDescription  string    `json:"full_description"`
	FragranceNotes   string    `json:"fragrance_notes"`
	IsActive         bool      `json:"is_active"`
}

func (ix *Indexer) IndexProduct(ctx context.Context, p *models.Product) error {
	doc := productDoc{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		ShortDescription: p.ShortDescription,
		FullDescription:  p.FullDescription,
		FragranceNotes:   p.FragranceNotes,
		IsActive:         p.IsActive,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("index product: %w", err)
	}

	res, err := ix.ES.Index(ix.Index, &buf,
		ix.ES.Index.WithContext(ctx),
		ix.ES.Index.WithDocumentID(p.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("index product: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index product: %s", res.Status())
	}
	return nil
}

func (ix *Indexer) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := ix.ES.Delete(ix.Index, id.String(), ix.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete product from index: %w", err)
	}
	defer res.Body.Close()

	// a document that was never indexed is fine to "delete"
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete product from index: %s", res.Status())
	}
	return nil
}
