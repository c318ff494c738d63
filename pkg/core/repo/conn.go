package repo

import "context"

type TxHandler func(context.Context, Tx) error

// Conn is a database connection which may run statements directly
// (each one in its own implicit transaction) or run a TxHandler in
// an explicit transaction which is committed if the handler returns
// nil and is rolled back otherwise.
type Conn interface {
	Queryer
	Tx(ctx context.Context, handler TxHandler) error
	IsConn()
}
