package inits

import (
	"context"
	"fmt"
	"github.com/gocql/gocql"
	"github.com/scylladb/gocqlx/v2"
	"github.com/skif48/speakup-progress/app_config"
	"go.uber.org/fx"
	"log/slog"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS %[1]s.user_profile (
		id text,
		nickname text,
		referral_code text,
		created_at bigint,
		PRIMARY KEY (id))`,
	`CREATE TABLE IF NOT EXISTS %[1]s.referral (
		user_id text,
		code text,
		referred_by text,
		total_invites int,
		pending set<text>,
		successful_invites set<text>,
		skip_phrases int,
		total_earned int,
		has_received_welcome_bonus boolean,
		PRIMARY KEY (user_id))`,
	`CREATE TABLE IF NOT EXISTS %[1]s.referral_code (
		code text,
		user_id text,
		PRIMARY KEY (code))`,
	`CREATE TABLE IF NOT EXISTS %[1]s.leaderboard_record (
		board text,
		language text,
		score int,
		created_at bigint,
		id text,
		user_id text,
		name text,
		correct int,
		total int,
		PRIMARY KEY ((board, language), score, created_at, id))
		WITH CLUSTERING ORDER BY (score DESC, created_at ASC, id ASC)`,
}

func NewScyllaSession(lc fx.Lifecycle, ac *app_config.AppConfig) *gocqlx.Session {
	cluster := gocql.NewCluster(ac.ScyllaUrl)
	cluster.Consistency = gocql.Quorum
	session, err := gocqlx.WrapSession(cluster.CreateSession())
	if err != nil {
		panic(err)
	}
	if err := Migrate(&session, ac.ScyllaKeyspace); err != nil {
		panic(err)
	}
	lc.Append(fx.StopHook(func(context.Context) {
		session.Close()
	}))
	return &session
}

func Migrate(session *gocqlx.Session, keyspace string) error {
	err := session.ExecStmt(fmt.Sprintf(
		"CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}", keyspace))
	if err != nil {
		return fmt.Errorf("create keyspace %s: %w", keyspace, err)
	}
	for _, stmt := range schema {
		if err := session.ExecStmt(fmt.Sprintf(stmt, keyspace)); err != nil {
			return fmt.Errorf("migrate %s: %w", keyspace, err)
		}
	}
	slog.Info("Scylla schema ready", "keyspace", keyspace, "tables", len(schema))
	return nil
}
