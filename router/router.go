package router

import (
	"time"

	"budget/api"
	"budget/config"
	_ "budget/docs"
	"budget/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()

	// CORS 中间件
	r.Use(CORSMiddleware())

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		// 认证相关路由（无需登录）
		authHandler := api.NewAuthHandler(cfg)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", middleware.LoginRateLimit(5, time.Minute), authHandler.Login)
		}

		budgetHandler := api.NewBudgetHandler(cfg)

		// 接受邀请（邮件链接直达，无需登录）
		v1.GET("/budgets/:id/accept-invite", budgetHandler.AcceptInvite)

		// 需要 JWT 认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			// 用户相关
			authorized.GET("/auth/profile", authHandler.GetProfile)

			// 交易记录相关
			transactionHandler := api.NewTransactionHandler()
			transactions := authorized.Group("/transactions")
			{
				transactions.POST("", transactionHandler.Create)
				transactions.GET("", transactionHandler.List)
				transactions.PUT("/:id", transactionHandler.Update)
				transactions.DELETE("/:id", transactionHandler.Delete)
				transactions.POST("/import", middleware.ImportRateLimit(10, time.Minute), transactionHandler.Import)
			}

			// 月度统计相关
			statistics := authorized.Group("/statistics")
			{
				statistics.GET("/incomes-by-month", transactionHandler.GetIncomesByMonth)
				statistics.GET("/expenses-by-month", transactionHandler.GetExpensesByMonth)
				statistics.GET("/monthly-summary", transactionHandler.GetMonthlySummary)
			}

			// 分类相关
			categoryHandler := api.NewCategoryHandler()
			categories := authorized.Group("/categories")
			{
				categories.POST("", categoryHandler.Create)
				categories.GET("", categoryHandler.List)
				categories.GET("/:id", categoryHandler.Get)
				categories.PUT("/:id", categoryHandler.Update)
				categories.DELETE("/:id", categoryHandler.Delete)
			}

			// 分类规则相关
			ruleHandler := api.NewGroupingRuleHandler()
			rules := authorized.Group("/grouping-rules")
			{
				rules.POST("", ruleHandler.Create)
				rules.GET("", ruleHandler.List)
				rules.PUT("/:id", ruleHandler.Update)
				rules.DELETE("/:id", ruleHandler.Delete)
			}

			// 预算相关
			budgets := authorized.Group("/budgets")
			{
				budgets.POST("", budgetHandler.Create)
				budgets.GET("", budgetHandler.List)
				budgets.GET("/:id", budgetHandler.Get)
				budgets.PUT("/:id", budgetHandler.Update)
				budgets.DELETE("/:id", budgetHandler.Delete)
				budgets.POST("/:id/categories", budgetHandler.AddCategory)
				budgets.DELETE("/:id/categories/:categoryId", budgetHandler.RemoveCategory)
				budgets.GET("/:id/category-spent", budgetHandler.GetCategorySpent)
				budgets.GET("/:id/total-spent", budgetHandler.GetTotalSpent)
				budgets.POST("/:id/invite", budgetHandler.InviteMember)
				budgets.DELETE("/:id/members/:userId", budgetHandler.RemoveMember)
			}

			// 储蓄目标相关
			goalHandler := api.NewGoalHandler()
			goals := authorized.Group("/goals")
			{
				goals.POST("", goalHandler.Create)
				goals.GET("", goalHandler.List)
				goals.PUT("/:id", goalHandler.Update)
				goals.DELETE("/:id", goalHandler.Delete)
			}

			// 导出相关
			exportHandler := api.NewExportHandler()
			export := authorized.Group("/export")
			{
				export.GET("/csv", exportHandler.ExportCSV)
				export.GET("/excel", exportHandler.ExportExcel)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
