// Copyright (c) 2025 The Boxdir Authors
// Boxdir - peer network directory service
// This source code is licensed under the MIT license found in the LICENSE file.

// This file contains the SQLite implementation of the database store.
package db

import (
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SqliteStore is the SQLite implementation of the Store interface.
// SQLite is the default engine and the one exercised by the test suite.
type SqliteStore struct {
	bunStore
}
