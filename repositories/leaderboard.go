package repositories

import (
	"context"
	"github.com/scylladb/gocqlx/v2"
	"github.com/scylladb/gocqlx/v2/qb"
	"github.com/skif48/speakup-progress/app_config"
	"github.com/skif48/speakup-progress/entities"
)

type LeaderboardRepo interface {
	AddRecord(ctx context.Context, record *entities.LeaderboardRecord) error
	// GetLeaderboard reads the board partition, best scores first.
	GetLeaderboard(ctx context.Context, board string, language string, limit int) ([]*entities.LeaderboardRecord, error)
	// ScanAll reads every record of every board; callers filter and sort.
	ScanAll(ctx context.Context) ([]*entities.LeaderboardRecord, error)
	Purge(ctx context.Context) error
}

type LeaderboardScyllaRepo struct {
	scyllaClient *gocqlx.Session
	table        string
}

func NewLeaderboardRepo(ac *app_config.AppConfig, session *gocqlx.Session) LeaderboardRepo {
	return &LeaderboardScyllaRepo{scyllaClient: session, table: ac.ScyllaKeyspace + ".leaderboard_record"}
}

func (l *LeaderboardScyllaRepo) AddRecord(ctx context.Context, record *entities.LeaderboardRecord) error {
	stmt, names := qb.Insert(l.table).
		Columns("board", "language", "score", "created_at", "id", "user_id", "name", "correct", "total").
		ToCql()
	return l.scyllaClient.ContextQuery(ctx, stmt, names).BindStruct(record).ExecRelease()
}

func (l *LeaderboardScyllaRepo) GetLeaderboard(ctx context.Context, board string, language string, limit int) ([]*entities.LeaderboardRecord, error) {
	stmt, names := qb.Select(l.table).
		Where(qb.Eq("board"), qb.Eq("language")).
		Limit(uint(limit)).
		ToCql()
	var records []*entities.LeaderboardRecord
	err := l.scyllaClient.ContextQuery(ctx, stmt, names).
		BindMap(qb.M{"board": board, "language": language}).
		SelectRelease(&records)
	return records, err
}

func (l *LeaderboardScyllaRepo) ScanAll(ctx context.Context) ([]*entities.LeaderboardRecord, error) {
	stmt, names := qb.Select(l.table).ToCql()
	var records []*entities.LeaderboardRecord
	err := l.scyllaClient.ContextQuery(ctx, stmt, names).SelectRelease(&records)
	return records, err
}

func (l *LeaderboardScyllaRepo) Purge(ctx context.Context) error {
	return l.scyllaClient.ContextQuery(ctx, `TRUNCATE `+l.table, nil).ExecRelease()
}
