package tenantctx

import (
	"context"
	"errors"
	"testing"

	"gymstack-backend/sections/models"

	"github.com/stretchr/testify/assert"
)

// fakeGymLookup serves gyms from maps, honoring the active-only contract.
type fakeGymLookup struct {
	byDomain map[string]*models.Gym
	bySlug   map[string]*models.Gym
	err      error
}

func (l *fakeGymLookup) ActiveGymByDomain(ctx context.Context, domain string) (*models.Gym, error) {
	if l.err != nil {
		return nil, l.err
	}
	gym := l.byDomain[domain]
	if gym == nil || !gym.IsActive {
		return nil, nil
	}
	return gym, nil
}

func (l *fakeGymLookup) ActiveGymBySlug(ctx context.Context, slug string) (*models.Gym, error) {
	if l.err != nil {
		return nil, l.err
	}
	gym := l.bySlug[slug]
	if gym == nil || !gym.IsActive {
		return nil, nil
	}
	return gym, nil
}

func testLookup() *fakeGymLookup {
	domain := "ironfitness.in"
	return &fakeGymLookup{
		byDomain: map[string]*models.Gym{
			"ironfitness.in": {ID: "gym_domain", Slug: "iron-fitness", CustomDomain: &domain, IsActive: true},
		},
		bySlug: map[string]*models.Gym{
			"iron-fitness": {ID: "gym_domain", Slug: "iron-fitness", CustomDomain: &domain, IsActive: true},
			"flex-gym":     {ID: "gym_slug", Slug: "flex-gym", IsActive: true},
			"closed-gym":   {ID: "gym_closed", Slug: "closed-gym", IsActive: false},
		},
	}
}

func TestResolveByCustomDomain(t *testing.T) {
	r := NewResolverWithLookup(testLookup(), nil)

	gym, err := r.Resolve(context.Background(), "ironfitness.in", "/")
	assert.NoError(t, err)
	assert.Equal(t, "gym_domain", gym.ID)

	// Port and case don't matter
	gym, err = r.Resolve(context.Background(), "IronFitness.IN:8443", "/")
	assert.NoError(t, err)
	assert.Equal(t, "gym_domain", gym.ID)
}

// A custom-domain match wins even when the path names another gym's slug.
func TestResolveDomainWinsOverSlug(t *testing.T) {
	r := NewResolverWithLookup(testLookup(), nil)

	gym, err := r.Resolve(context.Background(), "ironfitness.in", "/flex-gym/dashboard")
	assert.NoError(t, err)
	assert.Equal(t, "gym_domain", gym.ID)
}

func TestResolveBySlugPath(t *testing.T) {
	r := NewResolverWithLookup(testLookup(), nil)

	gym, err := r.Resolve(context.Background(), "localhost:4000", "/flex-gym/members")
	assert.NoError(t, err)
	assert.Equal(t, "gym_slug", gym.ID)

	// An unmatched host falls through to the slug
	gym, err = r.Resolve(context.Background(), "app.gymstack.app", "/flex-gym")
	assert.NoError(t, err)
	assert.Equal(t, "gym_slug", gym.ID)
}

func TestResolveExcludesInactiveGyms(t *testing.T) {
	r := NewResolverWithLookup(testLookup(), nil)

	_, err := r.Resolve(context.Background(), "localhost", "/closed-gym")
	assert.ErrorIs(t, err, ErrNoTenant)
}

func TestResolveNoMatch(t *testing.T) {
	r := NewResolverWithLookup(testLookup(), nil)

	_, err := r.Resolve(context.Background(), "localhost", "/")
	assert.ErrorIs(t, err, ErrNoTenant)

	_, err = r.Resolve(context.Background(), "localhost", "/no-such-gym")
	assert.ErrorIs(t, err, ErrNoTenant)
}

func TestResolveSkipsReservedSegments(t *testing.T) {
	lookup := testLookup()
	lookup.bySlug["register"] = &models.Gym{ID: "gym_evil", Slug: "register", IsActive: true}
	r := NewResolverWithLookup(lookup, nil)

	_, err := r.Resolve(context.Background(), "localhost", "/register")
	assert.ErrorIs(t, err, ErrNoTenant)
}

func TestResolvePropagatesLookupErrors(t *testing.T) {
	lookup := testLookup()
	lookup.err = errors.New("database unavailable")
	r := NewResolverWithLookup(lookup, nil)

	_, err := r.Resolve(context.Background(), "localhost", "/flex-gym")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoTenant)
}

func TestNormalizeHost(t *testing.T) {
	assert.Equal(t, "ironfitness.in", normalizeHost("ironfitness.in"))
	assert.Equal(t, "ironfitness.in", normalizeHost("IronFitness.IN"))
	assert.Equal(t, "ironfitness.in", normalizeHost("ironfitness.in:8080"))
	assert.Equal(t, "localhost", normalizeHost("localhost:4000"))
}

func TestFirstPathSegment(t *testing.T) {
	assert.Equal(t, "iron-fitness", firstPathSegment("/iron-fitness/dashboard"))
	assert.Equal(t, "iron-fitness", firstPathSegment("/iron-fitness"))
	assert.Equal(t, "iron-fitness", firstPathSegment("/Iron-Fitness/members"))
	assert.Equal(t, "", firstPathSegment("/"))
	assert.Equal(t, "", firstPathSegment(""))
}

func TestIsReserved(t *testing.T) {
	for _, slug := range []string{"register", "login", "about", "pricing", "contact"} {
		assert.True(t, isReserved(slug), slug)
	}
	assert.False(t, isReserved("iron-fitness"))
	assert.False(t, isReserved("registered"))
}
