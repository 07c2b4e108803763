package domain

import (
	"encoding/json"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestTableNames(t *testing.T) {
	if (Link{}).TableName() != "links" {
		t.Fatalf("Link.TableName() = %q; want %q", (Link{}).TableName(), "links")
	}
	if (Click{}).TableName() != "clicks" {
		t.Fatalf("Click.TableName() = %q; want %q", (Click{}).TableName(), "clicks")
	}
}

func TestMigrations_Indexes_AndJSONColumns(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Link{}, &Click{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasIndex(&Link{}, "idx_links_created") {
		t.Fatalf("expected index idx_links_created on links")
	}
	if !m.HasIndex(&Click{}, "idx_clicks_link") {
		t.Fatalf("expected index idx_clicks_link on clicks")
	}
	for _, col := range []string{"browser", "os", "device", "engine", "geo", "client", "country"} {
		if !m.HasColumn(&Click{}, col) {
			t.Fatalf("expected column %q on clicks", col)
		}
	}

	now := time.Now().UTC()
	if err := db.Create(&Link{ID: "l1", URL: "http://x/track/l1", Created: now}).Error; err != nil {
		t.Fatalf("create link: %v", err)
	}

	// nil fragments round-trip as nil
	bare := Click{ID: "c0", LinkID: "l1", Timestamp: now, UAInfo: UAInfo{Browser: "Chrome"}}
	if err := db.Create(&bare).Error; err != nil {
		t.Fatalf("create bare click: %v", err)
	}
	var gotBare Click
	if err := db.First(&gotBare, "id = ?", "c0").Error; err != nil {
		t.Fatalf("load bare click: %v", err)
	}
	if gotBare.Geo != nil || gotBare.Client != nil {
		t.Fatalf("expected nil fragments, got geo=%v client=%v", gotBare.Geo, gotBare.Client)
	}
	if gotBare.Browser != "Chrome" {
		t.Fatalf("embedded UAInfo not persisted: %+v", gotBare.UAInfo)
	}

	// populated fragments round-trip through the json serializer
	full := Click{
		ID: "c1", LinkID: "l1", Timestamp: now,
		Geo:    &GeoInfo{CountryCode: "DE", City: "Berlin"},
		Client: map[string]any{"screen": "1920x1080"},
	}
	if err := db.Create(&full).Error; err != nil {
		t.Fatalf("create click: %v", err)
	}
	var got Click
	if err := db.First(&got, "id = ?", "c1").Error; err != nil {
		t.Fatalf("load click: %v", err)
	}
	if got.Geo == nil || got.Geo.City != "Berlin" || got.Geo.CountryCode != "DE" {
		t.Fatalf("geo not round-tripped: %+v", got.Geo)
	}
	if got.Client["screen"] != "1920x1080" {
		t.Fatalf("client not round-tripped: %+v", got.Client)
	}
}

func TestClickJSON_FlattensUAInfo_AndNullFragments(t *testing.T) {
	c := Click{ID: "c1", LinkID: "hidden", UAInfo: UAInfo{Browser: "Firefox", OS: "Linux"}}
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["browser"] != "Firefox" || m["os"] != "Linux" {
		t.Fatalf("UAInfo should be flattened: %s", b)
	}
	if _, ok := m["LinkID"]; ok {
		t.Fatalf("link id must not be serialized on clicks: %s", b)
	}
	if v, ok := m["geo"]; !ok || v != nil {
		t.Fatalf("geo should serialize as null: %s", b)
	}
	if v, ok := m["client"]; !ok || v != nil {
		t.Fatalf("client should serialize as null: %s", b)
	}
}

func TestLinkClone_IsIndependent(t *testing.T) {
	orig := Link{
		ID: "l1",
		Clicks: []Click{{
			ID:     "c1",
			Geo:    &GeoInfo{City: "Paris"},
			Client: map[string]any{"a": 1},
		}},
	}
	cp := orig.Clone()
	cp.Clicks[0].Geo.City = "Lyon"
	cp.Clicks[0].Client["a"] = 2
	cp.Clicks = append(cp.Clicks, Click{ID: "c2"})

	if orig.Clicks[0].Geo.City != "Paris" {
		t.Fatalf("geo shared with clone")
	}
	if orig.Clicks[0].Client["a"] != 1 {
		t.Fatalf("client shared with clone")
	}
	if len(orig.Clicks) != 1 {
		t.Fatalf("clicks slice shared with clone")
	}

	empty := Link{ID: "l2"}.Clone()
	if empty.Clicks == nil {
		t.Fatalf("clone of empty link must have non-nil clicks")
	}
}
