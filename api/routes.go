package api

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	v1 := s.router.Group("/api/v1")

	// Read-only routes (no authentication required)
	pool := v1.Group("/pool")
	{
		pool.GET("/stats", s.handlePoolStats)
		pool.GET("/params", s.handleParams)
		pool.GET("/tiers", s.handleTiers)
		pool.GET("/price", s.handlePrice)
	}

	workers := v1.Group("/workers")
	{
		workers.GET("", s.handleListWorkers)
		workers.GET("/:id", s.handleGetWorker)
		workers.GET("/:id/slashes", s.handleWorkerSlashes)
		workers.GET("/:id/reservations", s.handleWorkerReservations)
	}

	v1.GET("/owners/:principal/worker", s.handleWorkerByOwner)
	v1.GET("/stakes/:principal", s.handleGetStake)
	v1.GET("/delegations/:principal", s.handleGetDelegations)
	v1.GET("/tokens/:account", s.handleBalance)
	v1.POST("/allocations/preview", s.handlePreviewAllocation)

	// Authenticated routes; the token principal is the caller
	authed := v1.Group("")
	authed.Use(s.AuthMiddleware())

	stake := authed.Group("/stake")
	{
		stake.POST("/deposit", s.handleDeposit)
		stake.POST("/withdrawals", s.handleRequestWithdrawal)
		stake.POST("/withdrawals/finalize", s.handleFinalizeWithdrawal)
		stake.POST("/delegations", s.handleDelegate)
	}

	worker := authed.Group("/workers")
	{
		worker.POST("", s.handleRegisterWorker)
		worker.PUT("/:id/capabilities", s.handleUpdateCapabilities)
		worker.POST("/:id/deactivate", s.handleDeactivateWorker)
		worker.POST("/:id/reactivate", s.handleReactivateWorker)
		worker.POST("/:id/heartbeat", s.handleHeartbeat)

		// job contract feedback paths
		worker.POST("/:id/reservations", s.handleReserveWorker)
		worker.DELETE("/:id/reservations/:job", s.handleReleaseWorker)
		worker.POST("/:id/reputation", s.handleUpdateReputation)
		worker.POST("/:id/rewards", s.handleDistributeReward)

		// authority
		worker.POST("/:id/slash", s.handleSlash)
		worker.POST("/:id/ban", s.handleBanWorker)
		worker.POST("/:id/reinstate", s.handleReinstateWorker)
		worker.PUT("/:id/reputation", s.handleSetReputation)
		worker.DELETE("/:id", s.handleRemoveWorker)
	}

	authed.POST("/allocations", s.handleAllocate)

	admin := authed.Group("/pool")
	{
		admin.PUT("/price", s.handleSetPrice)
		admin.PUT("/params", s.handleUpdateParams)
		admin.POST("/valuations/refresh", s.handleRefreshValuations)
		admin.POST("/pause", s.handlePause)
		admin.POST("/unpause", s.handleUnpause)
		admin.POST("/maintenance", s.handleMaintenance)
		admin.POST("/stale-workers/deactivate", s.handleDeactivateStale)
		admin.POST("/reservations/prune", s.handlePruneReservations)
	}

	tokens := authed.Group("/tokens")
	{
		tokens.POST("/approve", s.handleApprove)
		tokens.POST("/transfer", s.handleTransfer)
		tokens.POST("/mint", s.handleMint)
	}
}
