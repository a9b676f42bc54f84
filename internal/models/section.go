// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Section groups ordered lessons. The (Number, Slug) pair is the externally
// addressable key used in public URLs.
type Section struct {
	ID        uuid.UUID `json:"id"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
