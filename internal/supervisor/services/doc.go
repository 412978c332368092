// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

/*
Package services adapts OmniStream components to suture.Service.

Three lifecycle shapes are covered:

  - ListenAndServe/Shutdown: HTTPServerService wraps *http.Server.
  - RunWithContext: WebSocketHubService wraps *websocket.Hub.
  - Start/Stop: LifecycleService wraps *poller.Scheduler,
    *notify.Dispatcher and *history.GarbageCollector.

Every wrapper implements fmt.Stringer so supervisor log lines name the
service.
*/
package services
