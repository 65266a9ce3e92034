// Copyright 2026 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the CPU backend for the Weft linear-algebra
// facade.
//
// The implementation delegates to gonum's pure-Go BLAS
// (gonum.org/v1/gonum/blas/gonum) and serves both float32 and float64.
// It is the backend every engine context registers by default.
package cpu
