package repositories

import (
	"context"
	"errors"
	"fmt"
	"github.com/gocql/gocql"
	"github.com/scylladb/gocqlx/v2"
	"github.com/scylladb/gocqlx/v2/qb"
	"github.com/skif48/speakup-progress/app_config"
	"github.com/skif48/speakup-progress/entities"
	"slices"
)

type ReferralRepository interface {
	// ClaimCode reserves a code for the user; false when another user already holds it.
	ClaimCode(ctx context.Context, code string, userId string) (bool, error)
	ResolveCode(ctx context.Context, code string) (string, error)
	Create(ctx context.Context, r *entities.Referral) error
	Get(ctx context.Context, userId string) (*entities.Referral, error)
	AddPending(ctx context.Context, referrerId string, inviteeId string) error
	// ConfirmInvite moves the invitee from pending to successful and credits reward skip phrases.
	// It reports false when the invitee was not pending.
	ConfirmInvite(ctx context.Context, referrerId string, inviteeId string, reward func(totalInvites int) int) (bool, error)
	ConsumeSkipPhrase(ctx context.Context, userId string) (int, error)
	Purge(ctx context.Context) error
}

type referralRow struct {
	UserId                  string   `db:"user_id"`
	Code                    string   `db:"code"`
	ReferredBy              string   `db:"referred_by"`
	TotalInvites            int      `db:"total_invites"`
	Pending                 []string `db:"pending"`
	SuccessfulInvites       []string `db:"successful_invites"`
	SkipPhrases             int      `db:"skip_phrases"`
	TotalEarned             int      `db:"total_earned"`
	HasReceivedWelcomeBonus bool     `db:"has_received_welcome_bonus"`
}

func (r *referralRow) entity() *entities.Referral {
	return &entities.Referral{
		UserId:            r.UserId,
		Code:              r.Code,
		ReferredBy:        r.ReferredBy,
		TotalInvites:      r.TotalInvites,
		Pending:           nonNil(r.Pending),
		SuccessfulInvites: nonNil(r.SuccessfulInvites),
		Rewards: entities.ReferralRewards{
			SkipPhrases: r.SkipPhrases,
			TotalEarned: r.TotalEarned,
		},
		HasReceivedWelcomeBonus: r.HasReceivedWelcomeBonus,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type ReferralRepositoryScylla struct {
	scyllaClient *gocqlx.Session
	table        string
	codeTable    string
}

func NewReferralRepository(ac *app_config.AppConfig, session *gocqlx.Session) ReferralRepository {
	return &ReferralRepositoryScylla{
		scyllaClient: session,
		table:        ac.ScyllaKeyspace + ".referral",
		codeTable:    ac.ScyllaKeyspace + ".referral_code",
	}
}

func (r *ReferralRepositoryScylla) ClaimCode(ctx context.Context, code string, userId string) (bool, error) {
	stmt, names := qb.Insert(r.codeTable).Columns("code", "user_id").Unique().ToCql()
	q := r.scyllaClient.ContextQuery(ctx, stmt, names).BindMap(qb.M{"code": code, "user_id": userId})
	defer q.Release()
	return q.ExecCAS()
}

func (r *ReferralRepositoryScylla) ResolveCode(ctx context.Context, code string) (string, error) {
	var userId string
	stmt, names := qb.Select(r.codeTable).Columns("user_id").Where(qb.Eq("code")).ToCql()
	err := r.scyllaClient.ContextQuery(ctx, stmt, names).BindMap(qb.M{"code": code}).GetRelease(&userId)
	if errors.Is(err, gocql.ErrNotFound) {
		return "", entities.ErrNotFound
	}
	return userId, err
}

func (r *ReferralRepositoryScylla) Create(ctx context.Context, ref *entities.Referral) error {
	row := &referralRow{
		UserId:                  ref.UserId,
		Code:                    ref.Code,
		ReferredBy:              ref.ReferredBy,
		TotalInvites:            ref.TotalInvites,
		Pending:                 ref.Pending,
		SuccessfulInvites:       ref.SuccessfulInvites,
		SkipPhrases:             ref.Rewards.SkipPhrases,
		TotalEarned:             ref.Rewards.TotalEarned,
		HasReceivedWelcomeBonus: ref.HasReceivedWelcomeBonus,
	}
	stmt, names := qb.Insert(r.table).Columns(
		"user_id", "code", "referred_by", "total_invites", "pending", "successful_invites",
		"skip_phrases", "total_earned", "has_received_welcome_bonus").ToCql()
	return r.scyllaClient.ContextQuery(ctx, stmt, names).BindStruct(row).ExecRelease()
}

func (r *ReferralRepositoryScylla) get(ctx context.Context, userId string) (*referralRow, error) {
	row := &referralRow{}
	stmt, names := qb.Select(r.table).Where(qb.Eq("user_id")).ToCql()
	err := r.scyllaClient.ContextQuery(ctx, stmt, names).BindMap(qb.M{"user_id": userId}).GetRelease(row)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, entities.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *ReferralRepositoryScylla) Get(ctx context.Context, userId string) (*entities.Referral, error) {
	row, err := r.get(ctx, userId)
	if err != nil {
		return nil, err
	}
	return row.entity(), nil
}

func (r *ReferralRepositoryScylla) AddPending(ctx context.Context, referrerId string, inviteeId string) error {
	q := r.scyllaClient.ContextQuery(ctx,
		fmt.Sprintf(`UPDATE %s SET pending = pending + ? WHERE user_id = ? IF EXISTS`, r.table), nil).
		Bind([]string{inviteeId}, referrerId)
	defer q.Release()
	applied, err := q.ExecCAS()
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("referrer %s: %w", referrerId, entities.ErrNotFound)
	}
	return nil
}

func (r *ReferralRepositoryScylla) ConfirmInvite(ctx context.Context, referrerId string, inviteeId string, reward func(totalInvites int) int) (bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		row, err := r.get(ctx, referrerId)
		if err != nil {
			return false, err
		}
		if !slices.Contains(row.Pending, inviteeId) || slices.Contains(row.SuccessfulInvites, inviteeId) {
			return false, nil
		}

		newTotal := row.TotalInvites + 1
		credit := reward(newTotal)
		q := r.scyllaClient.ContextQuery(ctx, fmt.Sprintf(`
			UPDATE %s
			SET pending = pending - ?, successful_invites = successful_invites + ?,
				total_invites = ?, skip_phrases = ?, total_earned = ?
			WHERE user_id = ?
			IF total_invites = ? AND skip_phrases = ?`, r.table), nil).
			Bind([]string{inviteeId}, []string{inviteeId},
				newTotal, row.SkipPhrases+credit, row.TotalEarned+credit,
				referrerId,
				row.TotalInvites, row.SkipPhrases)
		applied, err := q.ExecCAS()
		q.Release()
		if err != nil {
			return false, err
		}
		if applied {
			return true, nil
		}
	}
}

func (r *ReferralRepositoryScylla) ConsumeSkipPhrase(ctx context.Context, userId string) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		row, err := r.get(ctx, userId)
		if err != nil {
			return 0, err
		}
		if row.SkipPhrases <= 0 {
			return 0, entities.ErrNoSkipPhrases
		}
		q := r.scyllaClient.ContextQuery(ctx,
			fmt.Sprintf(`UPDATE %s SET skip_phrases = ? WHERE user_id = ? IF skip_phrases = ?`, r.table), nil).
			Bind(row.SkipPhrases-1, userId, row.SkipPhrases)
		applied, err := q.ExecCAS()
		q.Release()
		if err != nil {
			return 0, err
		}
		if applied {
			return row.SkipPhrases - 1, nil
		}
	}
}

func (r *ReferralRepositoryScylla) Purge(ctx context.Context) error {
	for _, table := range []string{r.table, r.codeTable} {
		if err := r.scyllaClient.ContextQuery(ctx, `TRUNCATE `+table, nil).ExecRelease(); err != nil {
			return err
		}
	}
	return nil
}
