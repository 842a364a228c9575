package servers

import (
	"bytes"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/skif48/speakup-progress/app_config"
	"github.com/skif48/speakup-progress/entities"
	"github.com/skif48/speakup-progress/game_config"
	"github.com/skif48/speakup-progress/repositories/repotest"
	"github.com/skif48/speakup-progress/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type testServer struct {
	app       *fiber.App
	xp        *repotest.UserXp
	cooldown  *repotest.Cooldown
	publisher *repotest.Publisher
}

func newTestServer() *testServer {
	ac := &app_config.AppConfig{
		ActivityCooldown:      2 * time.Second,
		LeaderboardCacheBytes: 512 * 1024,
		LeaderboardCacheTtl:   time.Minute,
	}
	gc := game_config.NewGameConfig()
	ts := &testServer{
		xp:        repotest.NewUserXp(),
		cooldown:  repotest.NewCooldown(),
		publisher: &repotest.Publisher{},
	}
	profiles := repotest.NewUserProfiles()
	referralDb := repotest.NewReferrals()
	referrals := services.NewReferralService(gc, referralDb, profiles)
	xp := services.NewXpService(ac, gc, ts.publisher, ts.xp, ts.cooldown, referrals)
	leaderboard := services.NewLeaderboardService(ac, gc, repotest.NewLeaderboard(), profiles, ts.xp)
	ts.app = NewApp(NewHttpHandler(profiles, referralDb, xp, referrals, leaderboard))
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (int, []byte) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, b
}

func (ts *testServer) signUp(t *testing.T, nickname, ref string) *entities.UserProfile {
	status, body := ts.do(t, http.MethodPost, "/api/v1/users/sign-up", entities.SignUpRequest{Nickname: nickname, Ref: ref})
	require.Equal(t, http.StatusCreated, status, string(body))
	profile := &entities.UserProfile{}
	require.NoError(t, json.Unmarshal(body, profile))
	return profile
}

func TestHttp_SignUpAndProfile(t *testing.T) {
	ts := newTestServer()
	profile := ts.signUp(t, "Daniel Silva", "")
	assert.Regexp(t, `^DANIEL-[A-Z0-9]{4}$`, profile.ReferralCode)

	status, body := ts.do(t, http.MethodGet, "/api/v1/users/"+profile.Id+"/profile", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), profile.ReferralCode)

	status, _ = ts.do(t, http.MethodGet, "/api/v1/users/missing/profile", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.do(t, http.MethodPost, "/api/v1/users/sign-up", entities.SignUpRequest{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHttp_SubmitActivity(t *testing.T) {
	ts := newTestServer()
	profile := ts.signUp(t, "Ana", "")
	path := "/api/v1/users/" + profile.Id + "/activities"

	status, _ := ts.do(t, http.MethodPost, path, entities.ActivityRequest{Activity: "video"})
	assert.Equal(t, http.StatusAccepted, status)
	require.Len(t, ts.publisher.Messages, 1)
	assert.Equal(t, profile.Id, string(ts.publisher.Messages[0].Key))

	status, _ = ts.do(t, http.MethodPost, path, entities.ActivityRequest{Activity: "video"})
	assert.Equal(t, http.StatusTooManyRequests, status)

	ts.cooldown.Release(profile.Id)
	status, _ = ts.do(t, http.MethodPost, path, entities.ActivityRequest{Activity: "karaoke"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = ts.do(t, http.MethodPost, "/api/v1/users/nobody/activities", entities.ActivityRequest{Activity: "video"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHttp_Progress(t *testing.T) {
	ts := newTestServer()
	profile := ts.signUp(t, "Kenji", "")
	_, err := ts.xp.Award(t.Context(), profile.Id, "", map[string]int{"assessment": 125}, time.Now().UTC().Format(time.DateOnly), time.Now())
	require.NoError(t, err)

	status, body := ts.do(t, http.MethodGet, "/api/v1/users/"+profile.Id+"/progress", nil)
	require.Equal(t, http.StatusOK, status)
	progress := &entities.UserProgress{}
	require.NoError(t, json.Unmarshal(body, progress))
	assert.Equal(t, 125, progress.TotalXp)
	assert.Equal(t, 2, progress.CurrentLevel)
	assert.Equal(t, 200, progress.XpForNextLevel)
	assert.Equal(t, 25, progress.XpProgress.Percentage)
}

func TestHttp_ReferralFlow(t *testing.T) {
	ts := newTestServer()
	referrer := ts.signUp(t, "Olga", "")

	status, body := ts.do(t, http.MethodGet, "/api/v1/referrals/"+strings.ToLower(referrer.ReferralCode)+"/validate", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"valid":true}`, string(body))
	status, body = ts.do(t, http.MethodGet, "/api/v1/referrals/NOPE-0000/validate", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"valid":false}`, string(body))

	invitee := ts.signUp(t, "Ivan", referrer.ReferralCode)
	status, body = ts.do(t, http.MethodGet, "/api/v1/users/"+invitee.Id+"/referral", nil)
	require.Equal(t, http.StatusOK, status)
	stats := &entities.ReferralStats{}
	require.NoError(t, json.Unmarshal(body, stats))
	assert.Equal(t, referrer.Id, stats.ReferredBy)
	assert.Equal(t, 5, stats.Rewards.SkipPhrases)

	status, body = ts.do(t, http.MethodPost, "/api/v1/users/"+invitee.Id+"/skip-phrases/use", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"skip_phrases":4}`, string(body))

	status, _ = ts.do(t, http.MethodPost, "/api/v1/users/"+referrer.Id+"/skip-phrases/use", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestHttp_Leaderboard(t *testing.T) {
	ts := newTestServer()

	status, _ := ts.do(t, http.MethodPost, "/api/v1/leaderboards/practice", map[string]any{"name": "Ana", "language": "en", "correct": 7, "total": 10})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	status, _ = ts.do(t, http.MethodPost, "/api/v1/leaderboards/practice", map[string]any{"name": "Ana", "language": "en", "correct": 11, "total": 10})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = ts.do(t, http.MethodPost, "/api/v1/leaderboards/unknown", map[string]any{"name": "Ana", "language": "en", "correct": 10, "total": 10})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.do(t, http.MethodPost, "/api/v1/leaderboards/practice", map[string]any{"name": "Ana", "language": "en", "correct": 9, "total": 10})
	assert.Equal(t, http.StatusCreated, status)
	status, _ = ts.do(t, http.MethodPost, "/api/v1/leaderboards/practice", map[string]any{"name": "Bo", "language": "en", "correct": 10, "total": 10})
	assert.Equal(t, http.StatusCreated, status)

	status, body := ts.do(t, http.MethodGet, "/api/v1/leaderboards/leaderboard?language=en&limit=5", nil)
	require.Equal(t, http.StatusOK, status)
	var records []*entities.LeaderboardRecord
	require.NoError(t, json.Unmarshal(body, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "Bo", records[0].Name)
	assert.Equal(t, 100, records[0].Score)
	assert.Equal(t, entities.BoardPractice, records[0].Board)

	status, body = ts.do(t, http.MethodGet, "/api/v1/leaderboards/challenge_leaderboard?language=en", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	status, body = ts.do(t, http.MethodPost, "/api/v1/leaderboards/leaderboard/check", map[string]any{"language": "en", "correct": 5, "total": 5})
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"new_record":false}`, string(body))
	status, body = ts.do(t, http.MethodPost, "/api/v1/leaderboards/leaderboard/check", map[string]any{"language": "en", "correct": 8, "total": 10})
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"new_record":true}`, string(body))
}

func TestHttp_LevelRankingAndPurge(t *testing.T) {
	ts := newTestServer()
	low := ts.signUp(t, "Low", "")
	high := ts.signUp(t, "High", "")
	day := time.Now().UTC().Format(time.DateOnly)
	_, err := ts.xp.Award(t.Context(), low.Id, "", map[string]int{"phrases": 40}, day, time.Now())
	require.NoError(t, err)
	_, err = ts.xp.Award(t.Context(), high.Id, "", map[string]int{"chat": 315}, day, time.Now())
	require.NoError(t, err)

	status, body := ts.do(t, http.MethodGet, "/api/v1/rankings/levels?limit=10", nil)
	require.Equal(t, http.StatusOK, status)
	var ranking []*entities.LevelRankingEntry
	require.NoError(t, json.Unmarshal(body, &ranking))
	require.Len(t, ranking, 2)
	assert.Equal(t, "High", ranking[0].Nickname)
	assert.Equal(t, 4, ranking[0].Level)
	assert.Equal(t, 1, ranking[0].Position)

	status, _ = ts.do(t, http.MethodPost, "/backoffice-api/purge", nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = ts.do(t, http.MethodGet, "/api/v1/users/"+high.Id+"/profile", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHttp_Metrics(t *testing.T) {
	ts := newTestServer()
	ts.do(t, http.MethodGet, "/api/v1/rankings/levels", nil)
	status, body := ts.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `http_requests_total{path="/api/v1/rankings/levels"`)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(entities.ErrNotFound))
	assert.Equal(t, http.StatusTooManyRequests, statusFor(entities.ErrCooldown))
	assert.Equal(t, http.StatusConflict, statusFor(entities.ErrCodeTaken))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}
