// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package cache provides the Valkey (Redis-compatible) client bootstrap and
// the response cache for public section and lesson reads.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectValkey creates a Valkey client and verifies the connection with a ping.
func ConnectValkey(host, port, password string, db int) (*redis.Client, error) {
	addr := net.JoinHostPort(host, port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping: %w", err)
	}

	slog.Info("valkey connected", "addr", addr, "db", db)
	return client, nil
}
