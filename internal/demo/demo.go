// Package demo seeds the registry with deterministic synthetic
// collections so a fresh server is explorable without any external
// data source.
package demo

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quirelab/quire/internal/config"
	"github.com/quirelab/quire/internal/gateway"
	"github.com/quirelab/quire/pkg/model"
	"github.com/quirelab/quire/pkg/search"
)

// Collection names served by the demo dataset.
const (
	RecordsCollection = "records"
	UsersCollection   = "users"
)

var statuses = []string{"ACTIVE", "INACTIVE", "PENDING"}

var firstNames = []string{
	"Ada", "Alan", "Barbara", "Claude", "Dennis", "Donald", "Edsger",
	"Ella", "Grace", "John", "Ken", "Leslie", "Lynn", "Margaret",
	"Miles", "Niklaus", "Radia", "Robin", "Sophie", "Tony",
}

var lastNames = []string{
	"Shannon", "Turing", "Liskov", "Ritchie", "Knuth", "Dijkstra",
	"Hopper", "Backus", "Thompson", "Lamport", "Conway", "Hamilton",
	"Davis", "Wirth", "Perlman", "Milner", "Wilson", "Hoare",
}

var mailDomains = []string{"example.com", "example.org", "example.net"}

// Seed registers and fills the demo collections. Collections are
// registered once; seeding a registry that already carries them fails.
func Seed(reg *gateway.Registry, cfg config.DemoConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if err := seedRecords(reg, cfg.Items); err != nil {
		return fmt.Errorf("seeding %s: %w", RecordsCollection, err)
	}
	if err := seedUsers(reg, cfg.Users, cfg.Seed); err != nil {
		return fmt.Errorf("seeding %s: %w", UsersCollection, err)
	}
	return nil
}

// seedRecords fills the records collection with the cycling fixture:
// sequential ids, a three-state status rotation, and minute-spaced
// timestamps. Every value is a pure function of the index so examples
// in docs and tests stay stable.
func seedRecords(reg *gateway.Registry, n int) error {
	col, err := reg.Add(RecordsCollection, model.NewSchema(map[string]model.Kind{
		"status":     model.KindString,
		"seq":        model.KindInt,
		"score":      model.KindFloat,
		"created_at": model.KindTime,
	}), search.Config{})
	if err != nil {
		return err
	}

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		err := col.Store.Upsert(model.Record{
			"id":         strconv.Itoa(i),
			"status":     statuses[(i-1)%len(statuses)],
			"seq":        i,
			"score":      float64(i%10) + 0.5,
			"created_at": base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// seedUsers fills the users collection from a seeded PRNG, so the same
// seed always produces the same people, uuids included.
func seedUsers(reg *gateway.Registry, n int, seed int64) error {
	col, err := reg.Add(UsersCollection, model.NewSchema(map[string]model.Kind{
		"name":      model.KindString,
		"last_name": model.KindString,
		"email":     model.KindString,
		"age":       model.KindInt,
		"active":    model.KindBool,
		"signed_up": model.KindTime,
	}), search.Config{Fields: []search.Field{
		{Name: "name", Role: search.RoleFull},
		{Name: "last_name", Role: search.RoleComponent},
	}})
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(seed))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < n; i++ {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return err
		}

		first := firstNames[rng.Intn(len(firstNames))]
		last := lastNames[rng.Intn(len(lastNames))]
		email := fmt.Sprintf("%s.%s%d@%s",
			strings.ToLower(first), strings.ToLower(last), i, mailDomains[rng.Intn(len(mailDomains))])

		err = col.Store.Upsert(model.Record{
			"id":        id.String(),
			"name":      first + " " + last,
			"last_name": last,
			"email":     email,
			"age":       18 + rng.Intn(62),
			"active":    rng.Intn(4) != 0,
			"signed_up": base.Add(time.Duration(rng.Intn(365*24)) * time.Hour),
		})
		if err != nil {
			return err
		}
	}
	return nil
}
