// Package testutil holds helpers shared by the test suites: a migrated throw-away database and fixtures.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/admin"
	"github.com/trezcool/nyumba/core/developer"
	"github.com/trezcool/nyumba/core/event"
	"github.com/trezcool/nyumba/core/lead"
	"github.com/trezcool/nyumba/core/property"
	"github.com/trezcool/nyumba/services/logger"
	"github.com/trezcool/nyumba/storage/database"
)

// Config returns the test configuration.
func Config() *core.Config {
	return core.NewTestConfig()
}

// Logger returns a logger that discards everything.
func Logger() core.Logger {
	return logsvc.NewRollbarLogger(zap.NewNop(), Config())
}

// OpenDB opens a fresh, migrated, in-memory database, closed when the test ends.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, Config())
	if err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(ctx, db); err != nil {
		t.Fatalf("OpenDB() failed to migrate: %v", err)
	}
	return db
}

func tstamp(createdAt []time.Time) time.Time {
	if len(createdAt) > 0 {
		return createdAt[0].UTC()
	}
	return time.Now().UTC()
}

func CreateAdmin(
	t *testing.T,
	repo admin.Repository,
	name, email, pwd string,
	approved, superadmin bool,
	createdAt ...time.Time,
) admin.Admin {
	t.Helper()
	ts := tstamp(createdAt)
	adm := admin.Admin{
		Name:         name,
		Email:        email,
		IsApproved:   approved,
		IsSuperadmin: superadmin,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if pwd != "" {
		if err := adm.SetPassword(pwd); err != nil {
			t.Fatalf("CreateAdmin() failed: %v", err)
		}
	}
	adm, err := repo.CreateAdmin(context.Background(), adm)
	if err != nil {
		t.Fatalf("CreateAdmin() failed: %v", err)
	}
	return adm
}

func CreateDeveloper(t *testing.T, repo developer.Repository, name, slug string, published bool, createdAt ...time.Time) developer.Developer {
	t.Helper()
	ts := tstamp(createdAt)
	dev, err := repo.CreateDeveloper(context.Background(), developer.Developer{
		Name:      name,
		Slug:      slug,
		Published: published,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	if err != nil {
		t.Fatalf("CreateDeveloper() failed: %v", err)
	}
	return dev
}

// CreateProperty inserts prop as is, filling the required fields left empty.
func CreateProperty(t *testing.T, repo property.Repository, prop property.Property) property.Property {
	t.Helper()
	if prop.Type == "" {
		prop.Type = property.TypeApartment
	}
	if prop.Status == "" {
		prop.Status = property.StatusReady
	}
	if prop.Currency == "" {
		prop.Currency = "USD"
	}
	if prop.Slug == "" {
		prop.Slug = core.Slugify(prop.Title)
	}
	if prop.CreatedAt.IsZero() {
		prop.CreatedAt = time.Now().UTC()
	}
	prop.UpdatedAt = prop.CreatedAt
	prop, err := repo.CreateProperty(context.Background(), prop)
	if err != nil {
		t.Fatalf("CreateProperty() failed: %v", err)
	}
	return prop
}

func CreateEvent(t *testing.T, repo event.Repository, title string, startsAt time.Time, published bool) event.Event {
	t.Helper()
	now := time.Now().UTC()
	evt, err := repo.CreateEvent(context.Background(), event.Event{
		Title:     title,
		Slug:      core.Slugify(title),
		StartsAt:  startsAt.UTC(),
		EndsAt:    startsAt.Add(2 * time.Hour).UTC(),
		Published: published,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateEvent() failed: %v", err)
	}
	return evt
}

// CreateLead inserts ld as is, filling the required fields left empty.
func CreateLead(t *testing.T, repo lead.Repository, ld lead.Lead) lead.Lead {
	t.Helper()
	if ld.Kind == "" {
		ld.Kind = lead.KindContact
	}
	if ld.Status == "" {
		ld.Status = lead.StatusNew
	}
	if ld.CreatedAt.IsZero() {
		ld.CreatedAt = time.Now().UTC()
	}
	ld.UpdatedAt = ld.CreatedAt
	ld, err := repo.CreateLead(context.Background(), ld)
	if err != nil {
		t.Fatalf("CreateLead() failed: %v", err)
	}
	return ld
}

func CreateSubscriber(t *testing.T, repo lead.Repository, email string, subscribed bool, createdAt ...time.Time) lead.Subscriber {
	t.Helper()
	ts := tstamp(createdAt)
	sub, err := repo.CreateSubscriber(context.Background(), lead.Subscriber{
		Email:      email,
		Subscribed: subscribed,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	})
	if err != nil {
		t.Fatalf("CreateSubscriber() failed: %v", err)
	}
	return sub
}

func BoolPtr(b bool) *bool { return &b }

func FloatPtr(f float64) *float64 { return &f }

func TimePtr(t time.Time) *time.Time { return &t }
