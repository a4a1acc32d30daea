// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package secrets loads API credentials for upstream services the
// display will eventually show data from. Token refresh is not
// implemented yet.
package secrets

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Client is an OAuth client credential pair.
type Client struct {
	ID     string
	Secret string
}

// Token is an issued access token and when it was obtained.
type Token struct {
	Access  string
	Refresh string
	Issued  time.Time
}

var (
	ErrMissingClientID     = errors.New("secrets: CLIENT_ID not set")
	ErrMissingClientSecret = errors.New("secrets: CLIENT_SECRET not set")
)

// LoadClient reads CLIENT_ID and CLIENT_SECRET from the environment.
// Any given .env files are loaded first, best-effort: a missing file is
// fine, the variables just have to be set by the time we look.
func LoadClient(envFiles ...string) (*Client, error) {
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	}

	c := &Client{
		ID:     os.Getenv("CLIENT_ID"),
		Secret: os.Getenv("CLIENT_SECRET"),
	}
	if c.ID == "" {
		return nil, ErrMissingClientID
	}
	if c.Secret == "" {
		return nil, ErrMissingClientSecret
	}
	return c, nil
}
