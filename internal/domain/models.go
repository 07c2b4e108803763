// Package domain defines the tracking-link data model: a Link and the
// ordered Click records captured each time it is visited. The same types are
// mapped with GORM for the SQL-backed store and serialized as the public JSON
// representation by the HTTP layer.
package domain

import (
	"maps"
	"time"
)

// Link is an issued tracking URL plus its visit history.
//
// Fields:
//   - ID: opaque token assigned at creation; immutable and unique.
//   - URL: fully-qualified tracking URL derived from ID and the serving host.
//   - Created: creation timestamp (UTC).
//   - Clicks: visits in arrival order; append-only.
type Link struct {
	ID      string    `json:"id"      gorm:"type:varchar(32);primaryKey"`
	URL     string    `json:"url"     gorm:"type:varchar(512);not null"`
	Created time.Time `json:"created" gorm:"not null;index:idx_links_created"`
	Clicks  []Click   `json:"clicks"  gorm:"foreignKey:LinkID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Link.
func (Link) TableName() string { return "links" }

// UAInfo is the classifier output attached to a click. Every string field is
// "Unknown" when the user agent could not be classified.
type UAInfo struct {
	Browser        string `json:"browser"         gorm:"type:varchar(64)"`
	BrowserVersion string `json:"browser_version" gorm:"type:varchar(64)"`
	OS             string `json:"os"              gorm:"type:varchar(64)"`
	OSVersion      string `json:"os_version"      gorm:"type:varchar(64)"`
	Device         string `json:"device"          gorm:"type:varchar(32)"`
	Engine         string `json:"engine"          gorm:"type:varchar(32)"`
	Bot            bool   `json:"bot"`
}

// GeoInfo is the geolocation fragment produced by a geo resolver.
type GeoInfo struct {
	Country     string  `json:"country,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
	Region      string  `json:"region,omitempty"`
	RegionName  string  `json:"region_name,omitempty"`
	City        string  `json:"city,omitempty"`
	Zip         string  `json:"zip,omitempty"`
	Lat         float64 `json:"lat,omitempty"`
	Lon         float64 `json:"lon,omitempty"`
	Timezone    string  `json:"timezone,omitempty"`
	ISP         string  `json:"isp,omitempty"`
	Org         string  `json:"org,omitempty"`
	AS          string  `json:"as,omitempty"`
}

// Click is one recorded visit to a Link.
//
// The server-observed fields are written once when the click is created.
// Geo and Client start nil and are each replaced wholesale by their own
// merge, in whatever order those merges happen to arrive. Country is the only
// server field that may change afterwards: it is backfilled from Geo when the
// edge did not supply it.
type Click struct {
	ID        string    `json:"id"        gorm:"type:varchar(32);primaryKey"`
	LinkID    string    `json:"-"         gorm:"type:varchar(32);not null;index:idx_clicks_link"`
	Timestamp time.Time `json:"timestamp" gorm:"not null"`

	IP        string `json:"ip"         gorm:"type:varchar(64)"`
	UserAgent string `json:"user_agent" gorm:"type:text"`
	UAInfo    `gorm:"embedded"`

	Referer        string `json:"referer"         gorm:"type:text"`
	AcceptLanguage string `json:"accept_language" gorm:"type:varchar(255)"`
	Language       string `json:"language"        gorm:"type:varchar(35)"`
	AcceptEncoding string `json:"accept_encoding" gorm:"type:varchar(255)"`
	DoNotTrack     bool   `json:"do_not_track"`
	Country        string `json:"country"         gorm:"type:varchar(8)"`

	Geo    *GeoInfo       `json:"geo"    gorm:"serializer:json"`
	Client map[string]any `json:"client" gorm:"serializer:json"`
}

// TableName returns the database table name for Click.
func (Click) TableName() string { return "clicks" }

// Clone returns a copy of c that shares no mutable top-level state with it.
// Client payload values are replaced, never edited in place, so nested values
// are shared.
func (c Click) Clone() Click {
	out := c
	if c.Geo != nil {
		g := *c.Geo
		out.Geo = &g
	}
	if c.Client != nil {
		out.Client = maps.Clone(c.Client)
	}
	return out
}

// Clone returns a deep-enough copy of l for handing out of a store.
// Clicks is never nil on the result so it serializes as [].
func (l Link) Clone() Link {
	out := l
	out.Clicks = make([]Click, len(l.Clicks))
	for i := range l.Clicks {
		out.Clicks[i] = l.Clicks[i].Clone()
	}
	return out
}
