// Copyright (c) 2025 The Boxdir Authors
// Boxdir - peer network directory service
// This source code is licensed under the MIT license found in the LICENSE file.

package directory

import "errors"

// ErrConflict is returned by Register when the username is already taken.
var ErrConflict = errors.New("username already registered")

// ErrNotFound is returned by KeyReconciler.ListActive when a user has no
// active keys. A user that was never registered produces the same error;
// the two cases are deliberately not distinguished.
var ErrNotFound = errors.New("no active keys for user")
