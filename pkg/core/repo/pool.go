package repo

import "context"

type ConnHandler func(context.Context, Conn) error

// Pool lends connections for the duration of a ConnHandler execution.
type Pool interface {
	Conn(ctx context.Context, handler ConnHandler) error

	// Close releases the idle connections of the pool.
	Close() error
}

// SessionPool is a Pool which can also pin a connection for a long
// lived Session. The pinned connection is taken out of the pool until
// the Session is closed.
type SessionPool interface {
	Pool
	Session(ctx context.Context) (Session, error)
}
