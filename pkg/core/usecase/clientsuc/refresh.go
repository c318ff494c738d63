// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package clientsuc

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/momeni/clientstx/pkg/core/log"
	"github.com/momeni/clientstx/pkg/core/model"
	"github.com/momeni/clientstx/pkg/core/repo"
	"github.com/momeni/clientstx/pkg/core/usecase/sessionuc"
)

// Watcher is the subset of the session use case which is needed by
// a Refresher. The sessionuc.UseCase implements it.
type Watcher interface {
	Status(ctx context.Context) (model.SessionStatus, error)
	Subscribe(ctx context.Context, h sessionuc.Hook) error
}

// Snapshot is an immutable listing of all clients.
type Snapshot struct {
	Clients []model.Client
	Taken   time.Time
	Seq     uint64 // increases by one for each stored snapshot
}

// Refresher keeps the latest clients listing. It reloads the listing
// after each commit or rollback of the session and whenever its Tick
// method is called (e.g., periodically by a scheduler). A failed reload
// is logged and the previous snapshot is kept.
type Refresher struct {
	uc         *UseCase
	w          Watcher
	whileDirty bool

	snap atomic.Pointer[Snapshot]
	seq  atomic.Uint64
}

// NewRefresher creates a Refresher for the uc clients use case which
// watches the w session. If whileDirty is false, Tick skips reloading
// while the session has pending writes.
func NewRefresher(uc *UseCase, w Watcher, whileDirty bool) *Refresher {
	return &Refresher{uc: uc, w: w, whileDirty: whileDirty}
}

// Start subscribes to the session boundaries and takes the first
// snapshot. Failure of the first reload is not fatal, since it may be
// repeated by the next Tick.
func (r *Refresher) Start(ctx context.Context) error {
	if err := r.w.Subscribe(ctx, r.reload); err != nil {
		return fmt.Errorf("subscribing to session boundaries: %w", err)
	}
	// already logged; a failed first load is retried by the next tick
	_ = r.Refresh(ctx)
	return nil
}

// reload runs on the session worker, so it must use c directly.
func (r *Refresher) reload(ctx context.Context, c repo.Conn) error {
	cs, err := r.uc.clientsrp.Conn(c).List(ctx)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	r.store(cs)
	return nil
}

// Tick reloads the snapshot unless it is configured to skip dirty
// sessions and the session has pending writes.
func (r *Refresher) Tick(ctx context.Context) error {
	if !r.whileDirty {
		st, err := r.w.Status(ctx)
		if err != nil {
			return fmt.Errorf("session status: %w", err)
		}
		if st.State == model.SessionOpenDirty {
			log.Debug(ctx, "refresh is skipped while writes are pending")
			return nil
		}
	}
	return r.Refresh(ctx)
}

// Refresh reloads the snapshot through the session, like ListAll.
// The snapshot is stored by the read handler on the session worker,
// so a boundary hook which runs afterwards always stores a newer one.
func (r *Refresher) Refresh(ctx context.Context) error {
	err := r.uc.session.Read(ctx, func(
		ctx context.Context, c repo.Conn, tx repo.Tx,
	) error {
		cs, err := r.uc.queryer(c, tx).List(ctx)
		if err != nil {
			return err
		}
		r.store(cs)
		return nil
	})
	if err != nil {
		err = fmt.Errorf("query: %w", err)
		log.Error(
			ctx, "refreshing clients failed, last snapshot is kept",
			log.Err("err", err),
		)
		return err
	}
	return nil
}

func (r *Refresher) store(cs []model.Client) {
	r.snap.Store(&Snapshot{
		Clients: cs,
		Taken:   time.Now(),
		Seq:     r.seq.Add(1),
	})
}

// Snapshot returns the latest listing, or nil if no reload has
// succeeded yet.
func (r *Refresher) Snapshot() *Snapshot {
	return r.snap.Load()
}
