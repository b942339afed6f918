// internal/catalog/catalog.go
package catalog

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jason-s-yu/happyfamilies/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// DefaultPause is the delay between consecutive generation calls.
const DefaultPause = 500 * time.Millisecond

// Generator invents one new family, avoiding the ids it is given.
type Generator interface {
	Generate(ctx context.Context, existingIDs []string) (models.Family, error)
}

// IllustrateFunc prepares artwork for a family before its cards are dealt.
type IllustrateFunc func(ctx context.Context, f models.Family) error

// Catalog is the process-wide family source shared by every session. Families are loaded from
// a Store, grown through an optional Generator and persisted back to the Store.
type Catalog struct {
	mu       sync.RWMutex
	families []models.Family
	known    map[string]bool
	rng      *rand.Rand

	store     Store
	generator Generator
	log       *logrus.Entry
	group     singleflight.Group

	// Pause separates consecutive generation calls.
	Pause time.Duration
	// IllustrateFn, when set, runs for every family a session is about to deal.
	IllustrateFn IllustrateFunc
}

// New creates an empty catalog. Call Load before use. generator may be nil, in which case the
// catalog never grows past what the store holds.
func New(store Store, generator Generator, logger *logrus.Logger) *Catalog {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Catalog{
		known:     make(map[string]bool),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		store:     store,
		generator: generator,
		log:       logger.WithField("component", "catalog"),
		Pause:     DefaultPause,
	}
}

// Load reads the store into memory, seeding it with DefaultFamilies when it is empty.
func (c *Catalog) Load(ctx context.Context) error {
	stored, err := c.store.LoadFamilies(ctx)
	if err != nil {
		return fmt.Errorf("load families: %w", err)
	}

	if len(stored) == 0 {
		for _, f := range DefaultFamilies {
			if err := c.store.SaveFamily(ctx, f); err != nil {
				return fmt.Errorf("seed family %s: %w", f.ID, err)
			}
		}
		stored = append([]models.Family(nil), DefaultFamilies...)
		c.log.WithField("count", len(stored)).Info("seeded default families")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.families = nil
	c.known = make(map[string]bool, len(stored))
	for _, f := range stored {
		c.addLocked(f)
	}
	c.log.WithField("count", len(c.families)).Info("catalog loaded")
	return nil
}

// AllFamilies returns a copy of every known family in catalog order.
func (c *Catalog) AllFamilies() []models.Family {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Family(nil), c.families...)
}

// Len returns the number of known families.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.families)
}

// SelectRandom returns up to n distinct families chosen uniformly. When the catalog holds fewer
// than n it first tries to generate the shortfall.
func (c *Catalog) SelectRandom(ctx context.Context, n int) []models.Family {
	if n <= 0 {
		return nil
	}
	if missing := n - c.Len(); missing > 0 && c.generator != nil {
		c.generate(ctx, missing)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	perm := c.rng.Perm(len(c.families))
	n = min(n, len(perm))
	out := make([]models.Family, 0, n)
	for _, i := range perm[:n] {
		out = append(out, c.families[i])
	}
	return out
}

// GenerateMore returns families for a game that is running low. Newly generated families come
// first; the rest of the catalog follows in random order so callers that already play some of
// them can still find enough. It never fails; the result may be empty.
func (c *Catalog) GenerateMore(ctx context.Context, n int) []models.Family {
	if n <= 0 {
		return nil
	}
	fresh := c.Grow(ctx, n)

	taken := make(map[string]bool, len(fresh))
	for _, f := range fresh {
		taken[f.ID] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	out := append([]models.Family(nil), fresh...)
	for _, i := range c.rng.Perm(len(c.families)) {
		if f := c.families[i]; !taken[f.ID] {
			out = append(out, f)
		}
	}
	return out
}

// Grow asks the generator for up to n new families and returns those admitted to the catalog.
func (c *Catalog) Grow(ctx context.Context, n int) []models.Family {
	if n <= 0 || c.generator == nil {
		return nil
	}
	return c.generate(ctx, n)
}

// Illustrate runs IllustrateFn for f, if one is configured.
func (c *Catalog) Illustrate(ctx context.Context, f models.Family) error {
	if c.IllustrateFn == nil {
		return nil
	}
	return c.IllustrateFn(ctx, f)
}

// generate adds up to n new families through the generator. Concurrent requests of the same
// size share a single run, so sessions injecting at the same time do not multiply API calls.
func (c *Catalog) generate(ctx context.Context, n int) []models.Family {
	v, _, _ := c.group.Do(fmt.Sprintf("generate:%d", n), func() (interface{}, error) {
		return c.generateN(ctx, n), nil
	})
	added, _ := v.([]models.Family)
	return append([]models.Family(nil), added...)
}

func (c *Catalog) generateN(ctx context.Context, n int) []models.Family {
	var added []models.Family
	for i := 0; i < n; i++ {
		if i > 0 && c.Pause > 0 {
			select {
			case <-ctx.Done():
				return added
			case <-time.After(c.Pause):
			}
		}
		if ctx.Err() != nil {
			return added
		}

		f, err := c.generator.Generate(ctx, c.knownIDs())
		if err != nil {
			c.log.WithError(err).Warn("family generation failed")
			continue
		}
		f, ok := c.admit(f)
		if !ok {
			c.log.WithField("family", f.ID).Debug("generated family rejected as duplicate")
			continue
		}
		if err := c.store.SaveFamily(ctx, f); err != nil {
			c.log.WithError(err).WithField("family", f.ID).Warn("could not persist generated family")
		}
		c.log.WithFields(logrus.Fields{"family": f.ID, "name": f.Name}).Info("generated new family")
		added = append(added, f)
	}
	return added
}

// admit normalizes a generated family and adds it to the catalog unless its id is taken.
func (c *Catalog) admit(f models.Family) (models.Family, bool) {
	id := Slug(f.ID)
	if id == "" {
		id = Slug(f.Name)
	}
	f.ID = id
	if f.ID == "" || f.Name == "" {
		return f, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.known[f.ID] {
		return f, false
	}
	f.Color = paletteColor(len(c.families))
	c.addLocked(f)
	return f, true
}

func (c *Catalog) knownIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.families))
	for _, f := range c.families {
		ids = append(ids, f.ID)
	}
	return ids
}

// addLocked appends f if its id is new. Assumes lock is held.
func (c *Catalog) addLocked(f models.Family) {
	if f.ID == "" || c.known[f.ID] {
		return
	}
	c.known[f.ID] = true
	c.families = append(c.families, f)
}
