// Package models defines the domain types for Taproom.
package models

import "time"

// ContentBlock is one persisted unit of page content.
//
// Content is opaque JSON whose shape depends on ContentType. It may be nil or
// malformed and must never be assumed valid.
type ContentBlock struct {
	ID           int64     `json:"id"`
	PageSlug     string    `json:"pageSlug"`
	SectionKey   string    `json:"sectionKey"`
	ContentType  string    `json:"contentType"`
	Content      *string   `json:"content"`
	DisplayOrder int       `json:"displayOrder"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BlockInput is a block as submitted on save. Its position in the submitted
// slice becomes its display order.
type BlockInput struct {
	SectionKey  string  `json:"sectionKey"`
	ContentType string  `json:"contentType"`
	Content     *string `json:"content"`
}

// Input strips the store-managed fields from b.
func (b ContentBlock) Input() BlockInput {
	return BlockInput{SectionKey: b.SectionKey, ContentType: b.ContentType, Content: b.Content}
}
