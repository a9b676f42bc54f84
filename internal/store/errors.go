// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store implements the record store for sections and lessons on
// PostgreSQL through database/sql and the pgx driver. Lookups return
// (nil, nil) when a row does not exist.
package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"lessonpress/internal/apperr"
)

// PostgreSQL error codes mapped to validation errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// wrap annotates err with op, turning constraint violations into
// validation errors the admin can act on.
func wrap(op string, err error, duplicateMsg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperr.Validation(duplicateMsg)
		case pgForeignKeyViolation:
			return apperr.Validation("Section does not exist.")
		case pgCheckViolation:
			return apperr.Validation("Value is out of range: " + pgErr.ConstraintName + ".")
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
