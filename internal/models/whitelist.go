package models

import "time"

// WhitelistEntry marks a URL (and its hostname) as trusted so the extension
// can skip reporting submissions to it
type WhitelistEntry struct {
	ID       int64     `db:"id"`
	URL      string    `db:"url"`
	Hostname string    `db:"hostname"`
	AddedAt  time.Time `db:"added_at"`
	Notes    *string   `db:"notes"`
}

// Whitelist match types returned by the check endpoint
const (
	WhitelistMatchExact    = "exact"
	WhitelistMatchHostname = "hostname"
)
