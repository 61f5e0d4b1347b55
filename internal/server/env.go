package server

import "strings"

// envKeyReplacer maps nested keys to env names: portal.fetch.base_delay -> LP_PORTAL_FETCH_BASE_DELAY.
var envKeyReplacer = strings.NewReplacer(".", "_")
