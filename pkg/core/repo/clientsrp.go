package repo

import (
	"context"

	"github.com/momeni/clientstx/pkg/core/model"
)

// ClientsQueryer runs the clients and phones queries on a connection
// or transaction which was bound by the Clients repository.
type ClientsQueryer interface {
	// List returns clients LEFT JOINed with their phones, ordered by
	// the client and phone identifiers.
	List(ctx context.Context) ([]model.Client, error)

	// ClientID finds the identifier of the client which its name is
	// exactly equal to name. A missing client yields a cerr.NotFound
	// and more than one matching client yields a cerr.Conflict error.
	ClientID(ctx context.Context, name string) (int64, error)

	InsertClient(ctx context.Context, c model.NewClient) (int64, error)
	InsertPhone(ctx context.Context, clientID int64, number string) (int64, error)
	UpdateClient(ctx context.Context, clientID int64, lastName, address string) (int64, error)
}

type Clients interface {
	Conn(Conn) ClientsQueryer
	Tx(Tx) ClientsQueryer
}
