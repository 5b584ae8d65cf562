package main

import (
	"context"
	"net/http"

	"github.com/bwmarrin/snowflake"
	env "github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"github.com/taskex-lab/backend/config"
	"github.com/taskex-lab/backend/internal/domain"
	"github.com/taskex-lab/backend/internal/domain/settlement"
	"github.com/taskex-lab/backend/internal/model"
	"github.com/taskex-lab/backend/internal/repository"
	"github.com/taskex-lab/backend/pkg/api/telegram"
	"github.com/taskex-lab/backend/pkg/api/vk"
	"github.com/taskex-lab/backend/pkg/jwt"
	"github.com/taskex-lab/backend/pkg/logger"
	"github.com/taskex-lab/backend/pkg/router"
	"github.com/taskex-lab/backend/pkg/xcontext"
	"github.com/taskex-lab/backend/pkg/xredis"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type srv struct {
	ctx     context.Context
	configs config.Configs

	redisClient xredis.Client

	userRepo        repository.UserRepository
	campaignRepo    repository.CampaignRepository
	applicationRepo repository.ApplicationRepository
	ledgerRepo      repository.LedgerRepository
	referralRepo    repository.ReferralRepository

	engine           *settlement.Engine
	telegramVerifier settlement.MembershipVerifier
	vkVerifier       settlement.MembershipVerifier

	authDomain        domain.AuthDomain
	userDomain        domain.UserDomain
	campaignDomain    domain.CampaignDomain
	applicationDomain domain.ApplicationDomain
	referralDomain    domain.ReferralDomain
	ledgerDomain      domain.LedgerDomain
	webhookDomain     domain.WebhookDomain
	dailyBonusDomain  domain.DailyBonusDomain
	statisticDomain   domain.StatisticDomain

	router *router.Router
	server *http.Server
}

func (s *srv) loadConfig() {
	// A missing .env is fine, production supplies real environment.
	godotenv.Load()

	if err := env.Parse(&s.configs); err != nil {
		panic(err)
	}

	reward, err := config.LoadRewardConfigs(s.configs.RewardConfigPath)
	if err != nil {
		panic(err)
	}
	s.configs.Reward = reward

	s.ctx = xcontext.WithConfigs(context.Background(), s.configs)
}

func (s *srv) loadLogger() {
	level := logger.INFO
	if s.configs.Env == "local" {
		level = logger.DEBUG
	}

	s.ctx = xcontext.WithLogger(s.ctx, logger.NewLogger(level))
}

func (s *srv) loadDatabase() {
	db, err := gorm.Open(mysql.Open(s.configs.Database.ConnectionString()), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	s.ctx = xcontext.WithDB(s.ctx, db)
}

func (s *srv) loadRedis() {
	redisClient, err := xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}

	s.redisClient = redisClient
}

func (s *srv) loadEngines() {
	node, err := snowflake.NewNode(0)
	if err != nil {
		panic(err)
	}

	s.ctx = xcontext.WithSnowFlake(s.ctx, node)
	s.ctx = xcontext.WithTokenEngine(s.ctx, jwt.NewEngine[model.AccessToken](
		s.configs.Auth.TokenSecret, s.configs.Auth.AccessToken.Expiration))
	s.ctx = xcontext.WithHTTPClient(s.ctx, http.DefaultClient)
}

func (s *srv) loadVerifiers() {
	s.telegramVerifier = domain.NewTelegramVerifier(telegram.New(s.configs.Telegram))
	s.vkVerifier = domain.NewVKVerifier(vk.New(s.configs.VK))
}

func (s *srv) loadRepos() {
	s.userRepo = repository.NewUserRepository()
	s.campaignRepo = repository.NewCampaignRepository()
	s.applicationRepo = repository.NewApplicationRepository()
	s.ledgerRepo = repository.NewLedgerRepository()
	s.referralRepo = repository.NewReferralRepository()
}

func (s *srv) loadDomains() {
	s.engine = settlement.NewEngine(
		s.campaignRepo, s.applicationRepo, s.userRepo, s.ledgerRepo, s.referralRepo,
	).WithLeaderboard(s.redisClient)

	s.authDomain = domain.NewAuthDomain(
		s.userRepo, s.referralRepo, s.ledgerRepo, s.engine, s.redisClient)
	s.userDomain = domain.NewUserDomain(s.userRepo)
	s.campaignDomain = domain.NewCampaignDomain(s.campaignRepo, s.userRepo, s.ledgerRepo)
	s.applicationDomain = domain.NewApplicationDomain(
		s.applicationRepo, s.campaignRepo, s.userRepo, s.ledgerRepo, s.engine,
		s.telegramVerifier, s.vkVerifier)
	s.referralDomain = domain.NewReferralDomain(s.userRepo, s.referralRepo)
	s.ledgerDomain = domain.NewLedgerDomain(s.userRepo, s.ledgerRepo)
	s.webhookDomain = domain.NewWebhookDomain(
		s.userRepo, s.campaignRepo, s.applicationRepo, s.engine)
	s.dailyBonusDomain = domain.NewDailyBonusDomain(s.userRepo, s.ledgerRepo, s.redisClient)
	s.statisticDomain = domain.NewStatisticDomain(s.redisClient)
}
