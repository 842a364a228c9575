package main

import (
	"bytes"
	"context"
	"fmt"
	"github.com/goccy/go-json"
	"github.com/skif48/speakup-progress/entities"
	"github.com/skif48/speakup-progress/game_config"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

var httpClient *http.Client

type Config struct {
	BaseURL      string
	RequestRate  time.Duration
	UserCount    int
	ReferralRate float64
	Languages    []string
}

type BotUser struct {
	ID           string
	Nickname     string
	ReferralCode string
}

var firstNames = []string{
	"Daniel", "Ana", "Lucas", "Mariana", "Pedro", "Julia", "Rafael", "Camila",
	"Kenji", "Yuki", "Ahmed", "Leila", "Ivan", "Olga", "Mateo", "Sofia",
}

var lastNames = []string{
	"Silva", "Santos", "Oliveira", "Tanaka", "Haddad", "Petrov", "Garcia", "Rossi",
}

func initHTTPClient() {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		MaxConnsPerHost:     100,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
	}
	httpClient = &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
	}
}

func generateNickname() string {
	return firstNames[rand.IntN(len(firstNames))] + " " + lastNames[rand.IntN(len(lastNames))]
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	initHTTPClient()

	config := loadConfig()
	gameConfig := game_config.NewGameConfig()
	activities := make([]string, 0, len(gameConfig.ActionsScoreMap))
	for activity := range gameConfig.ActionsScoreMap {
		activities = append(activities, activity)
	}

	users, err := registerUsers(config)
	if err != nil {
		slog.Error("Failed to register users", "error", err)
		os.Exit(1)
	}
	slog.Info("Successfully registered users", "count", len(users))

	runBots(config, users, activities)
}

func loadConfig() Config {
	config := Config{
		BaseURL:      "http://localhost:3000",
		RequestRate:  3 * time.Second,
		UserCount:    10,
		ReferralRate: 0.5,
		Languages:    []string{"en", "es", "pt"},
	}
	if baseURL := os.Getenv("BOT_BASE_URL"); baseURL != "" {
		config.BaseURL = baseURL
	}
	if rateStr := os.Getenv("BOT_REQUEST_RATE_MS"); rateStr != "" {
		if rateMs, err := strconv.Atoi(rateStr); err == nil {
			config.RequestRate = time.Duration(rateMs) * time.Millisecond
		} else {
			slog.Warn("Invalid BOT_REQUEST_RATE_MS value, using default", "value", rateStr, "default", config.RequestRate.String())
		}
	}
	if userCountStr := os.Getenv("BOT_USER_COUNT"); userCountStr != "" {
		if userCount, err := strconv.Atoi(userCountStr); err == nil && userCount > 0 {
			config.UserCount = userCount
		} else {
			slog.Warn("Invalid BOT_USER_COUNT value, using default", "value", userCountStr, "default", config.UserCount)
		}
	}
	slog.Info("Configuration loaded",
		"base_url", config.BaseURL,
		"request_rate", config.RequestRate.String(),
		"user_count", config.UserCount)
	return config
}

func postJSON(ctx context.Context, url string, body any, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s failed with status %d: %s", url, resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// registerUsers signs users up one by one so later users can be invited by earlier ones.
func registerUsers(config Config) ([]BotUser, error) {
	users := make([]BotUser, 0, config.UserCount)
	for i := 0; i < config.UserCount; i++ {
		req := entities.SignUpRequest{Nickname: generateNickname()}
		if len(users) > 0 && rand.Float64() < config.ReferralRate {
			req.Ref = users[rand.IntN(len(users))].ReferralCode
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		profile := &entities.UserProfile{}
		err := postJSON(ctx, config.BaseURL+"/api/v1/users/sign-up", req, profile)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to register user %s: %w", req.Nickname, err)
		}
		users = append(users, BotUser{ID: profile.Id, Nickname: profile.Nickname, ReferralCode: profile.ReferralCode})
		slog.Info("Successfully registered user", "nickname", profile.Nickname, "user_id", profile.Id, "ref", req.Ref)
	}
	return users, nil
}

func runBots(config Config, users []BotUser, activities []string) {
	var wg sync.WaitGroup
	for _, user := range users {
		wg.Add(1)
		go func(u BotUser) {
			defer wg.Done()
			emitActivities(config, u, activities)
		}(user)
	}
	wg.Wait()
}

func emitActivities(config Config, user BotUser, activities []string) {
	ticker := time.NewTicker(config.RequestRate)
	defer ticker.Stop()

	streak := 1
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		activity := entities.ActivityRequest{
			Activity:     activities[rand.IntN(len(activities))],
			PerfectScore: rand.IntN(5) == 0,
			StreakDays:   streak,
		}
		err := postJSON(ctx, fmt.Sprintf("%s/api/v1/users/%s/activities", config.BaseURL, user.ID), activity, nil)
		if err != nil {
			slog.Error("Failed to send activity", "user_id", user.ID, "activity", activity.Activity, "error", err)
		}

		if rand.IntN(10) == 0 {
			total := 10 + rand.IntN(20)
			record := entities.SaveRecordRequest{
				AttemptScore: entities.AttemptScore{Correct: total - rand.IntN(3), Total: total},
				UserId:       user.ID,
				Name:         user.Nickname,
				Language:     config.Languages[rand.IntN(len(config.Languages))],
			}
			if err := postJSON(ctx, config.BaseURL+"/api/v1/leaderboards/practice", record, nil); err != nil {
				slog.Warn("Record not saved", "user_id", user.ID, "error", err)
			}
		}
		cancel()
		streak++
	}
}
