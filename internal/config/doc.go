// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

/*
Package config loads OmniStream configuration with Koanf v2.

Sources are layered with increasing priority:

 1. Built-in defaults (defaultConfig)
 2. A YAML file: CONFIG_PATH, else config.yaml, config.yml,
    /etc/omnistream/config.yaml, /etc/omnistream/config.yml
 3. Environment variables, through an explicit name mapping

Example file:

	poller:
	  interval: 15s
	  timeout: 10s
	history:
	  retention: 500
	  backend: badger
	  path: /data/history
	backends:
	  - id: living-room
	    name: Living Room Plex
	    type: plex
	    base_url: http://192.168.1.10:32400
	    token: xxxxxxxx
	notifications:
	  rules:
	    high_bandwidth:
	      enabled: true
	      threshold_mbps: 80
	  channels:
	    discord:
	      enabled: true
	      webhook_url: https://discord.com/api/webhooks/...

Common environment variables:

	HTTP_PORT, POLL_INTERVAL, POLL_TIMEOUT, SERVERS_FILE,
	HISTORY_RETENTION, HISTORY_BACKEND, HISTORY_PATH,
	LOG_LEVEL, LOG_FORMAT, CORS_ORIGINS (comma separated)

Setting a channel credential variable such as DISCORD_WEBHOOK_URL or
NTFY_TOPIC also enables that channel.
*/
package config
