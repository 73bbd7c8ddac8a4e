// Package gateway presents one load/save contract over the remote and local
// backends. Load falls back to the local store; save dual-writes on failure.
package gateway

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/sandeepkv93/dailytodo/internal/backend"
	"github.com/sandeepkv93/dailytodo/internal/model"
)

type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
	SourceEmpty  Source = "empty"
)

type LoadResult struct {
	Snapshot model.Snapshot
	Source   Source
	Remote   backend.Kind
	Local    backend.Kind
}

// FellBack reports whether a configured remote failed and the local store was consulted.
func (r LoadResult) FellBack() bool {
	return r.Remote.Failed()
}

type SaveReport struct {
	Remote backend.Kind
	Local  backend.Kind
}

// Durable reports whether at least one backend accepted the write.
func (r SaveReport) Durable() bool {
	return r.Remote == backend.KindOK || r.Local == backend.KindOK
}

type Gateway struct {
	remote backend.Backend
	local  backend.Backend
	logger *log.Logger
}

// New builds a gateway. Pass a nil remote when no remote store is configured.
func New(local, remote backend.Backend, logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Gateway{remote: remote, local: local, logger: logger}
}

func (g *Gateway) RemoteConfigured() bool { return g.remote != nil }

// Load never fails. The worst case is an empty snapshot with no save date.
func (g *Gateway) Load(ctx context.Context, userID string, date model.CalendarDate) LoadResult {
	res := LoadResult{Remote: backend.KindSkipped, Local: backend.KindSkipped}
	if g.remote != nil {
		snap, err := g.remote.LoadSnapshot(ctx, userID, date)
		res.Remote = backend.Classify(err)
		switch res.Remote {
		case backend.KindOK:
			res.Snapshot = snap
			res.Source = SourceRemote
			return res
		case backend.KindNotFound:
			// No document for today. A same-day local copy can only come from a
			// dual-write after a failed remote save, so it is the fresher state.
			return g.recoverSameDay(ctx, res, userID, date)
		case backend.KindUnavailable, backend.KindTransport, backend.KindMalformed:
			g.logger.WithError(err).WithFields(log.Fields{
				"kind":    res.Remote.String(),
				"backend": g.remote.Name(),
			}).Warn("remote load failed; falling back to local store")
		}
	}
	return g.loadLocal(ctx, res, userID)
}

func (g *Gateway) loadLocal(ctx context.Context, res LoadResult, userID string) LoadResult {
	snap, kind := g.readLocal(ctx, userID)
	res.Local = kind
	if kind == backend.KindOK {
		res.Snapshot = snap
		res.Source = SourceLocal
		return res
	}
	res.Snapshot = emptySnapshot(userID)
	res.Source = SourceEmpty
	return res
}

func (g *Gateway) recoverSameDay(ctx context.Context, res LoadResult, userID string, date model.CalendarDate) LoadResult {
	snap, kind := g.readLocal(ctx, userID)
	res.Local = kind
	if kind == backend.KindOK && snap.LastSavedDate == date {
		g.logger.WithField("date", date.String()).Info("remote has no document for today; using local copy")
		res.Snapshot = snap
		res.Source = SourceLocal
		return res
	}
	res.Snapshot = emptySnapshot(userID)
	res.Source = SourceRemote
	return res
}

func (g *Gateway) readLocal(ctx context.Context, userID string) (model.Snapshot, backend.Kind) {
	if g.local == nil {
		return model.Snapshot{}, backend.KindUnavailable
	}
	snap, err := g.local.LoadSnapshot(ctx, userID, "")
	kind := backend.Classify(err)
	switch kind {
	case backend.KindOK, backend.KindNotFound:
	case backend.KindUnavailable, backend.KindTransport, backend.KindMalformed:
		g.logger.WithError(err).WithField("kind", kind.String()).Warn("local load failed; starting empty")
	}
	return snap, kind
}

// Save writes snap to the remote store, and to the local store when the
// remote is absent or fails.
func (g *Gateway) Save(ctx context.Context, snap model.Snapshot) SaveReport {
	report := SaveReport{Remote: backend.KindSkipped, Local: backend.KindSkipped}
	if g.remote != nil {
		err := g.remote.SaveSnapshot(ctx, snap)
		report.Remote = backend.Classify(err)
		switch report.Remote {
		case backend.KindOK:
			return report
		default:
			g.logger.WithError(err).WithFields(log.Fields{
				"kind":    report.Remote.String(),
				"backend": g.remote.Name(),
			}).Warn("remote save failed; writing local copy")
		}
	}
	if g.local == nil {
		report.Local = backend.KindUnavailable
		return report
	}
	err := g.local.SaveSnapshot(ctx, snap)
	report.Local = backend.Classify(err)
	if err != nil {
		g.logger.WithError(err).WithField("kind", report.Local.String()).Warn("local save failed")
	}
	return report
}

func emptySnapshot(userID string) model.Snapshot {
	return model.Snapshot{Tasks: model.TaskCollection{}, UserID: userID}
}
