// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package tsmodel holds the plain data types shared by the ancestor
// builder, the ancestor matcher, and the tree sequence builder: sites,
// nodes, edges, alleles, and mutations. It exists so that those three
// packages can refer to the same wire-free in-memory types without
// importing one another.
package tsmodel
