package servers

import (
	"context"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/skif48/speakup-progress/app_config"
	"github.com/skif48/speakup-progress/entities"
	"github.com/skif48/speakup-progress/graceful_shutdown"
	"github.com/skif48/speakup-progress/repositories"
	"github.com/skif48/speakup-progress/servers/middleware"
	"github.com/skif48/speakup-progress/services"
	"log/slog"
	"strconv"
)

const defaultLanguage = "en"

type HttpHandler struct {
	upr         repositories.UserProfileRepository
	rr          repositories.ReferralRepository
	xp          *services.XpService
	referrals   *services.ReferralService
	leaderboard *services.LeaderboardService
	validate    *validator.Validate
}

func NewHttpHandler(upr repositories.UserProfileRepository, rr repositories.ReferralRepository, xp *services.XpService, referrals *services.ReferralService, leaderboard *services.LeaderboardService) *HttpHandler {
	return &HttpHandler{
		upr:         upr,
		rr:          rr,
		xp:          xp,
		referrals:   referrals,
		leaderboard: leaderboard,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func NewApp(h *HttpHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})
	app.Use(middleware.MetricsMiddleware())

	app.Get("/metrics", middleware.MetricsHandler)

	app.Post("/api/v1/users/sign-up", h.SignUp)
	app.Get("/api/v1/users/:userId/profile", h.GetUserProfile)
	app.Post("/api/v1/users/:userId/activities", h.SubmitActivity)
	app.Get("/api/v1/users/:userId/progress", h.GetProgress)
	app.Get("/api/v1/users/:userId/referral", h.GetReferral)
	app.Post("/api/v1/users/:userId/skip-phrases/use", h.UseSkipPhrase)

	app.Get("/api/v1/referrals/:code/validate", h.ValidateReferralCode)

	app.Get("/api/v1/leaderboards/:board", h.GetLeaderboard)
	app.Post("/api/v1/leaderboards/:board/check", h.CheckRecord)
	app.Post("/api/v1/leaderboards/:board", h.SaveRecord)
	app.Get("/api/v1/rankings/levels", h.GetLevelRanking)

	app.Post("/backoffice-api/purge", h.Purge)
	return app
}

func RunHttpServer(ac *app_config.AppConfig, h *HttpHandler, gs *graceful_shutdown.Coordinator) {
	app := NewApp(h)
	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", ac.FiberPort), fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()
	slog.Info("HTTP server listening", "port", ac.FiberPort)
	gs.AddInputShutdownFunc(func() {
		if err := app.Shutdown(); err != nil {
			slog.Error("Failed to shut down HTTP server", "err", err)
		}
	})
}

func (s *HttpHandler) bind(c fiber.Ctx, req any) error {
	if err := json.Unmarshal(c.Body(), req); err != nil {
		return fmt.Errorf("%w: %v", entities.ErrInvalidInput, err)
	}
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", entities.ErrInvalidInput, err)
	}
	return nil
}

func limitParam(c fiber.Ctx, def int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}

func (s *HttpHandler) requireProfile(ctx context.Context, userId string) error {
	profile, err := s.upr.GetUserProfile(ctx, userId)
	if err != nil {
		return err
	}
	if profile == nil {
		return fmt.Errorf("user %s: %w", userId, entities.ErrNotFound)
	}
	return nil
}

func (s *HttpHandler) SignUp(c fiber.Ctx) error {
	req := &entities.SignUpRequest{}
	if err := s.bind(c, req); err != nil {
		return respondError(c, err)
	}
	userProfile, err := s.referrals.SignUp(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	c.Status(fiber.StatusCreated)
	return c.JSON(userProfile)
}

func (s *HttpHandler) GetUserProfile(c fiber.Ctx) error {
	userId := c.Params("userId")
	userProfile, err := s.upr.GetUserProfile(c.Context(), userId)
	if err != nil {
		return respondError(c, err)
	}
	if userProfile == nil {
		return c.SendStatus(fiber.StatusNotFound)
	}
	c.Status(fiber.StatusOK)
	return c.JSON(userProfile)
}

func (s *HttpHandler) SubmitActivity(c fiber.Ctx) error {
	userId := c.Params("userId")
	req := &entities.ActivityRequest{}
	if err := s.bind(c, req); err != nil {
		return respondError(c, err)
	}
	if err := s.requireProfile(c.Context(), userId); err != nil {
		return respondError(c, err)
	}
	event, err := s.xp.SubmitActivity(c.Context(), userId, req)
	if err != nil {
		return respondError(c, err)
	}
	c.Status(fiber.StatusAccepted)
	return c.JSON(event)
}

func (s *HttpHandler) GetProgress(c fiber.Ctx) error {
	userId := c.Params("userId")
	if err := s.requireProfile(c.Context(), userId); err != nil {
		return respondError(c, err)
	}
	progress, err := s.xp.GetProgress(c.Context(), userId)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(progress)
}

func (s *HttpHandler) GetReferral(c fiber.Ctx) error {
	stats, err := s.referrals.GetReferralStats(c.Context(), c.Params("userId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func (s *HttpHandler) UseSkipPhrase(c fiber.Ctx) error {
	left, err := s.referrals.UseSkipPhrase(c.Context(), c.Params("userId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"skip_phrases": left})
}

func (s *HttpHandler) ValidateReferralCode(c fiber.Ctx) error {
	_, err := s.referrals.ResolveCode(c.Context(), c.Params("code"))
	if err != nil && statusFor(err) == fiber.StatusInternalServerError {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"valid": err == nil})
}

func (s *HttpHandler) GetLeaderboard(c fiber.Ctx) error {
	records, err := s.leaderboard.Top(c.Context(), c.Params("board"), c.Query("language", defaultLanguage), limitParam(c, 10))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(records)
}

func (s *HttpHandler) CheckRecord(c fiber.Ctx) error {
	req := &entities.CheckRecordRequest{}
	if err := s.bind(c, req); err != nil {
		return respondError(c, err)
	}
	isNew, err := s.leaderboard.CheckNewRecord(c.Context(), c.Params("board"), req.Language, req.AttemptScore)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"new_record": isNew})
}

func (s *HttpHandler) SaveRecord(c fiber.Ctx) error {
	req := &entities.SaveRecordRequest{}
	if err := s.bind(c, req); err != nil {
		return respondError(c, err)
	}
	record, err := s.leaderboard.SaveRecord(c.Context(), c.Params("board"), req)
	if err != nil {
		return respondError(c, err)
	}
	c.Status(fiber.StatusCreated)
	return c.JSON(record)
}

func (s *HttpHandler) GetLevelRanking(c fiber.Ctx) error {
	entries, err := s.leaderboard.LevelRanking(c.Context(), limitParam(c, 10))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

func (s *HttpHandler) Purge(c fiber.Ctx) error {
	ctx := c.Context()
	for _, purge := range []func(context.Context) error{s.upr.Purge, s.rr.Purge, s.leaderboard.Purge} {
		if err := purge(ctx); err != nil {
			return respondError(c, err)
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}
