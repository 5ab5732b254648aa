// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"node-hierarchy-go/internal/config"
	"node-hierarchy-go/internal/handler"
	"node-hierarchy-go/internal/middleware"
	"node-hierarchy-go/internal/pipeline"
	"node-hierarchy-go/internal/repository"
	"node-hierarchy-go/internal/service"
	"node-hierarchy-go/pkg/database"
	"node-hierarchy-go/pkg/embedding"
	"node-hierarchy-go/pkg/es"
	"node-hierarchy-go/pkg/kafka"
	"node-hierarchy-go/pkg/llm"
	"node-hierarchy-go/pkg/log"
	"node-hierarchy-go/pkg/notebook"
	"node-hierarchy-go/pkg/storage"
	"node-hierarchy-go/pkg/token"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、缓存与外部依赖
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch, cfg.Embedding.Dimensions); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	nodeRepo := repository.NewNodeRepository(database.DB)
	permRepo := repository.NewPermissionRepository(database.DB)
	tagRepo := repository.NewTagRepository(database.DB)
	nodeCache := repository.NewNodeCache(database.RDB, cfg.Cache.NodeListTTLSeconds)
	taskRepo := repository.NewArtifactTaskRepository(database.RDB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	notebookClient := notebook.NewClient(cfg.Notebook)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)
	userService := service.NewUserService(userRepo, nodeCache, jwtManager)
	hierarchyService := service.NewHierarchyService(nodeRepo, permRepo, nodeCache)
	nodeService := service.NewNodeService(nodeRepo, permRepo, nodeCache)
	tagService := service.NewTagService(tagRepo)
	adminService := service.NewAdminService(userRepo, nodeRepo, permRepo, nodeCache)
	searchService := service.NewSearchService(embeddingClient, es.ESClient, cfg.Elasticsearch.IndexName)
	indexService := service.NewIndexService(embeddingClient, cfg.Elasticsearch.IndexName)
	generationService := service.NewGenerationService(llmClient, cfg.LLM.Generation)
	artifactService := service.NewArtifactService(taskRepo, nodeRepo)

	// 6. 初始化制品生成流水线
	processor := pipeline.NewArtifactProcessor(notebookClient, taskRepo, nodeRepo, nodeCache, cfg.Notebook)

	// 7. 启动后台 Kafka 消费者
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", handler.NewUserHandler(userService).RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			users.POST("/register", handler.NewUserHandler(userService).Register)
			users.POST("/login", handler.NewUserHandler(userService).Login)

			authed := users.Group("/")
			authed.Use(middleware.AuthMiddleware(jwtManager, userService))
			{
				authed.GET("/me", handler.NewUserHandler(userService).GetProfile)
				authed.POST("/logout", handler.NewUserHandler(userService).Logout)
			}
		}

		// 层级视图路由组，需要认证
		hierarchy := apiV1.Group("/hierarchy")
		hierarchy.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			hierarchy.GET("/tree", handler.NewHierarchyHandler(hierarchyService).GetTree)
			hierarchy.POST("/view", handler.NewHierarchyHandler(hierarchyService).SaveView)
		}

		// 节点管理路由组，需要认证
		nodes := apiV1.Group("/nodes")
		nodes.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			nodeHandler := handler.NewNodeHandler(nodeService, indexService)
			nodes.POST("", nodeHandler.Create)
			nodes.PUT("/:nodeId", nodeHandler.Update)
			nodes.DELETE("/:nodeId", nodeHandler.Delete)
			nodes.POST("/reorder", nodeHandler.Reorder)
			nodes.POST("/import", nodeHandler.Import)
		}

		// 标签路由组，需要认证
		tags := apiV1.Group("/tags")
		tags.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			tagHandler := handler.NewTagHandler(tagService)
			tags.POST("", tagHandler.Create)
			tags.PUT("/:id", tagHandler.Update)
			tags.DELETE("/:id", tagHandler.Delete)
			tags.GET("/tree", tagHandler.GetTree)
			tags.GET("/file", tagHandler.GetFileTags)
			tags.GET("/files", tagHandler.GetTaggedFiles)
			tags.POST("/save-all", tagHandler.SaveAll)
		}

		// 文件路由组，需要认证
		files := apiV1.Group("/files")
		files.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			fileHandler := handler.NewFileHandler(cfg.MinIO)
			files.GET("", fileHandler.List)
			files.POST("/upload", fileHandler.Upload)
			files.GET("/url", fileHandler.PresignedURL)
		}

		// 搜索路由组，需要认证
		search := apiV1.Group("/search")
		search.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			searchHandler := handler.NewSearchHandler(searchService, hierarchyService)
			search.GET("/hybrid", searchHandler.HybridSearch)
			search.GET("/tree", searchHandler.SearchTree)
		}

		// 生成路由组，需要认证
		generate := apiV1.Group("/generate")
		generate.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			generationHandler := handler.NewGenerationHandler(generationService)
			generate.POST("/titles-from-image", generationHandler.TitlesFromImage)
			generate.POST("/description", generationHandler.GenerateDescription)
			generate.POST("/hierarchy", generationHandler.GenerateHierarchy)
		}

		// 制品生成路由组，需要认证
		artifacts := apiV1.Group("/artifacts")
		artifacts.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			artifactHandler := handler.NewArtifactHandler(artifactService)
			artifacts.POST("", artifactHandler.Request)
			artifacts.GET("", artifactHandler.ListTasks)
			artifacts.GET("/:taskId", artifactHandler.GetTask)
		}

		// 查询精炼 (WebSocket)，token 经 URL 传递
		r.GET("/refine/:token", handler.NewRefineHandler(llmClient, jwtManager).Handle)

		admin := apiV1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtManager, userService), middleware.AdminAuthMiddleware())
		{
			adminHandler := handler.NewAdminHandler(adminService)
			admin.GET("/users/list", adminHandler.ListUsers)
			admin.GET("/users/:userId/permissions", adminHandler.GetUserPermissions)
			admin.GET("/nodes/:nodeId/permissions", adminHandler.GetNodePermissions)
			admin.PUT("/permissions/subtree", adminHandler.UpdateSubtreePermission)
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
