// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package postgres

import (
	"context"
	"fmt"

	"github.com/momeni/clientstx/pkg/core/repo"
	"gorm.io/gorm"
)

// Queryer is the type constraint of the generic query functions in the
// repository packages, so each query is written once and may run on
// a connection or a transaction.
type Queryer interface {
	*Conn | *Tx
	repo.Queryer
	GORM(ctx context.Context) *gorm.DB
}

// ConnOf returns the *Conn which is wrapped by c. A pinned *Session is
// accepted too. Other implementations cause a panic, since mixing the
// adapters of different databases is a programming error.
func ConnOf(c repo.Conn) *Conn {
	switch cc := c.(type) {
	case *Conn:
		return cc
	case *Session:
		return cc.Conn
	default:
		panic(fmt.Sprintf("unsupported connection type: %T", c))
	}
}

// TxOf returns the *Tx which is wrapped by tx. A manual *SessionTx is
// accepted too.
func TxOf(tx repo.Tx) *Tx {
	switch tt := tx.(type) {
	case *Tx:
		return tt
	case *SessionTx:
		return tt.Tx
	default:
		panic(fmt.Sprintf("unsupported transaction type: %T", tx))
	}
}
