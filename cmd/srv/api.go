package main

import (
	"net/http"

	"github.com/rs/cors"
	"github.com/taskex-lab/backend/internal/middleware"
	"github.com/taskex-lab/backend/pkg/router"
	"github.com/taskex-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
	s.loadConfig()
	s.loadLogger()
	s.loadDatabase()
	s.loadRedis()
	s.loadEngines()
	s.loadVerifiers()
	s.loadRepos()
	s.loadDomains()
	s.loadRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   s.configs.ApiServer.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Webhook-Secret"},
		AllowCredentials: true,
	})

	s.server = &http.Server{
		Addr:    s.configs.ApiServer.Address(),
		Handler: corsHandler.Handler(s.router.Handler()),
	}

	xcontext.Logger(s.ctx).Infof("Starting server on %s", s.configs.ApiServer.Address())
	if err := s.server.ListenAndServe(); err != nil {
		return err
	}

	return nil
}

func (s *srv) loadRouter() {
	s.router = router.New(s.ctx)
	s.router.After(middleware.Logger())

	// Public API
	{
		router.POST(s.router, "/login", s.authDomain.Login)
		router.GET(s.router, "/getCampaign", s.campaignDomain.Get)
		router.GET(s.router, "/getListCampaign", s.campaignDomain.GetList)
		router.GET(s.router, "/getLeaderboard", s.statisticDomain.GetLeaderboard)
	}

	// Authenticated API
	authRouter := s.router.Branch("")
	authRouter.Before(middleware.Authenticate)
	{
		router.GET(authRouter, "/getMe", s.userDomain.GetMe)
		router.POST(authRouter, "/linkVK", s.userDomain.LinkVK)
		router.POST(authRouter, "/blockUser", s.userDomain.Block)
		router.POST(authRouter, "/unblockUser", s.userDomain.Unblock)

		router.POST(authRouter, "/createCampaign", s.campaignDomain.Create)
		router.POST(authRouter, "/pauseCampaign", s.campaignDomain.Pause)
		router.POST(authRouter, "/resumeCampaign", s.campaignDomain.Resume)

		router.POST(authRouter, "/applyCampaign", s.applicationDomain.Apply)
		router.POST(authRouter, "/recheckApplication", s.applicationDomain.Recheck)
		router.POST(authRouter, "/rejectApplication", s.applicationDomain.Reject)
		router.GET(authRouter, "/getMyApplications", s.applicationDomain.GetMyApplications)

		router.GET(authRouter, "/getMyRank", s.statisticDomain.GetMyRank)
		router.GET(authRouter, "/getMyReferrals", s.referralDomain.GetMyReferrals)
		router.GET(authRouter, "/getMyLedger", s.ledgerDomain.GetMyLedger)
		router.POST(authRouter, "/spinDailyBonus", s.dailyBonusDomain.Spin)
	}

	// Webhook API, pushed by the bot gateway.
	webhookRouter := s.router.Branch("/webhooks")
	webhookRouter.Before(middleware.VerifyWebhook)
	{
		router.POST(webhookRouter, "/chatMember", s.webhookDomain.ChatMemberEvent)
		router.POST(webhookRouter, "/reactionCount", s.webhookDomain.ReactionCountEvent)
	}
}
