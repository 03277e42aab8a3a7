// SPDX-License-Identifier: MPL-2.0

// Package testutil lays out front-end project fixtures for tests.
package testutil
