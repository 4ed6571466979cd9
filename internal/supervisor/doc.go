// CineRank - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinerank

/*
Package supervisor provides process supervision for CineRank using suture v4.

The supervisor tree organizes the long-running services into three layers:

	RootSupervisor ("cinerank")
	├── DataSupervisor ("data-layer")
	│   ├── RefreshSchedulerService (if scheduler.enabled)
	│   └── CacheMaintenanceService
	├── MessagingSupervisor ("messaging-layer")
	│   └── EventRouterService (NATS JetStream or in-process channel)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's backoff. Suture events are
logged through sutureslog and the zerolog slog adapter.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.Logger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewRefreshSchedulerService(svc, schedCfg, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	// Equivalent, with an explicit layer:
	_, err = tree.Add(supervisor.LayerMessaging, services.NewEventRouterService(factory))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	err = tree.Serve(ctx)

Services() reports what was added per layer, for startup logging.
Service wrappers live in the services subpackage.
*/
package supervisor
