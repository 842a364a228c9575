package repositories

import (
	"context"
	"errors"
	"github.com/gocql/gocql"
	"github.com/scylladb/gocqlx/v2"
	"github.com/scylladb/gocqlx/v2/qb"
	"github.com/skif48/speakup-progress/app_config"
	"github.com/skif48/speakup-progress/entities"
	"time"
)

type UserProfileRepository interface {
	SignUp(ctx context.Context, r *entities.CreateUserProfileDto) (*entities.UserProfile, error)
	GetManyUserProfiles(ctx context.Context, userIds []string) ([]*entities.UserProfile, error)
	GetUserProfile(ctx context.Context, userId string) (*entities.UserProfile, error)
	Purge(ctx context.Context) error
}

type UserProfileRepositoryScylla struct {
	scyllaClient *gocqlx.Session
	table        string
}

func NewUserProfileRepository(ac *app_config.AppConfig, session *gocqlx.Session) UserProfileRepository {
	return &UserProfileRepositoryScylla{scyllaClient: session, table: ac.ScyllaKeyspace + ".user_profile"}
}

func (u *UserProfileRepositoryScylla) SignUp(ctx context.Context, r *entities.CreateUserProfileDto) (*entities.UserProfile, error) {
	profile := &entities.UserProfile{
		Id:           r.Id,
		Nickname:     r.Nickname,
		ReferralCode: r.ReferralCode,
		CreatedAt:    time.Now().UnixMilli(),
	}
	stmt, names := qb.Insert(u.table).Columns("id", "nickname", "referral_code", "created_at").ToCql()
	if err := u.scyllaClient.ContextQuery(ctx, stmt, names).BindStruct(profile).ExecRelease(); err != nil {
		return nil, err
	}
	return profile, nil
}

func (u *UserProfileRepositoryScylla) GetManyUserProfiles(ctx context.Context, userIds []string) ([]*entities.UserProfile, error) {
	if len(userIds) == 0 {
		return nil, nil
	}
	stmt, names := qb.Select(u.table).Where(qb.In("id")).ToCql()
	q := u.scyllaClient.ContextQuery(ctx, stmt, names).BindMap(qb.M{"id": userIds})

	var userProfiles []*entities.UserProfile
	if err := q.SelectRelease(&userProfiles); err != nil {
		return nil, err
	}
	return userProfiles, nil
}

func (u *UserProfileRepositoryScylla) GetUserProfile(ctx context.Context, userId string) (*entities.UserProfile, error) {
	userProfile := &entities.UserProfile{}
	stmt, names := qb.Select(u.table).Where(qb.Eq("id")).ToCql()
	q := u.scyllaClient.ContextQuery(ctx, stmt, names).BindMap(qb.M{"id": userId})
	if err := q.GetRelease(userProfile); err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return userProfile, nil
}

func (u *UserProfileRepositoryScylla) Purge(ctx context.Context) error {
	return u.scyllaClient.ContextQuery(ctx, `TRUNCATE `+u.table, nil).ExecRelease()
}
