package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prodentai/companion/internal/auth"
	"github.com/prodentai/companion/internal/facts"
	"github.com/prodentai/companion/internal/health"
	"github.com/prodentai/companion/internal/llm"
	"github.com/prodentai/companion/internal/logging"
	"github.com/prodentai/companion/internal/nutrition"
	"github.com/prodentai/companion/internal/psychology"
	"github.com/prodentai/companion/internal/reminders"
	"github.com/prodentai/companion/internal/risks"
	"github.com/prodentai/companion/internal/users"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the shared handles injected into every handler.
type Deps struct {
	DB             *gorm.DB
	Redis          redis.UniversalClient
	Gateway        *llm.Gateway
	Tokens         *auth.TokenIssuer
	Log            *logging.Logger
	AllowedOrigins []string
}

// NewRouter builds the HTTP API.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = nutrition.MaxImageBytes
	r.Use(gin.Recovery(), RequestID(), RequestLogger(d.Log), CORS(d.AllowedOrigins))

	r.GET("/health", gin.WrapF(health.Handler))

	api := r.Group("/api")
	api.GET("/health", health.ReadyHandler(d.DB, d.Redis, d.Gateway))

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", auth.RegisterHandler(d.DB, d.Tokens))
		authGroup.POST("/login", auth.LoginHandler(d.DB, d.Tokens))
		authGroup.GET("/me", auth.RequireAuth(d.Tokens), auth.MeHandler(d.DB))
	}

	// Feature routes identify the caller by token when present; the bot
	// passes user_id instead.
	open := api.Group("", auth.OptionalAuth(d.Tokens))

	u := open.Group("/users")
	{
		u.GET("/profile", users.ProfileHandler(d.DB))
		u.PUT("/profile", users.UpdateProfileHandler(d.DB))
		u.GET("/stats", users.StatsHandler(d.DB))
		u.POST("/link-telegram/:user_id", users.LinkTelegramHandler(d.DB))
		u.GET("/check-telegram/:telegram_id", users.CheckTelegramHandler(d.DB))
		u.GET("/all-telegram-users", users.TelegramUsersHandler(d.DB))
	}

	rk := open.Group("/risks")
	{
		rk.POST("/assess", risks.AssessHandler(d.DB, d.Gateway, d.Log))
		rk.GET("/history/:user_id", risks.HistoryHandler(d.DB))
		rk.GET("/latest/:user_id", risks.LatestHandler(d.DB))
	}

	n := open.Group("/nutrition")
	{
		n.POST("/analyze", nutrition.AnalyzeHandler(d.DB, d.Gateway, d.Log))
		n.POST("/analyze-image", nutrition.AnalyzeImageHandler(d.DB, d.Gateway, d.Log))
		n.GET("/history/:user_id", nutrition.HistoryHandler(d.DB))
	}

	p := open.Group("/psychology")
	{
		p.POST("/chat", psychology.ChatHandler(d.DB, d.Gateway, d.Log))
		p.GET("/history", psychology.HistoryHandler(d.DB))
		p.GET("/tips", psychology.TipsHandler())
	}

	rm := open.Group("/reminders")
	{
		rm.POST("/create", reminders.CreateHandler(d.DB, d.Log))
		rm.GET("/user/:user_id", reminders.UserRemindersHandler(d.DB))
		rm.PUT("/toggle/:id", reminders.ToggleHandler(d.DB))
		rm.DELETE("/:id", reminders.DeleteHandler(d.DB))
		rm.GET("/types", reminders.TypesHandler())
	}

	f := api.Group("/facts")
	{
		f.GET("/random", facts.RandomHandler(d.DB))
		f.GET("/category/:category", facts.CategoryHandler(d.DB))
		f.GET("/categories", facts.CategoriesHandler())
		f.GET("/braces/search", facts.BracesSearchHandler(d.DB))
		f.GET("/braces/category/:category", facts.BracesCategoryHandler(d.DB))
		f.GET("/braces/categories", facts.BracesCategoriesHandler())
		f.POST("/braces/chat", facts.BracesChatHandler(d.DB, d.Gateway, d.Log))
	}

	return r
}
