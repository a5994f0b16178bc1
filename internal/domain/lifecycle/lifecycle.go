// Package lifecycle holds shared start and stop settings for fx hooks.
package lifecycle

import "time"

// DefaultTimeout bounds each OnStart/OnStop hook, including graceful HTTP shutdown.
const DefaultTimeout = 10 * time.Second
