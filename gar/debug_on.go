// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build lqrdebug

package gar

// debug enables allocator integrity checks and verbose printing.
const debug = true
