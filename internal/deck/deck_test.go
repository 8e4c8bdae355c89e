package deck

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawDealsEveryCardOncePerPass(t *testing.T) {
	d, err := New(KindChance, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	seen := make(map[string]int)
	for i := 0; i < d.Size(); i++ {
		card := d.Draw()
		seen[card.ID]++
	}

	assert.Len(t, seen, d.Size())
	for id, count := range seen {
		assert.Equal(t, 1, count, "card %s drawn more than once in a pass", id)
	}
}

func TestDrawReshufflesOnExhaustion(t *testing.T) {
	d, err := New(KindCommunityChest, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	size := d.Size()
	for i := 0; i < size; i++ {
		d.Draw()
	}
	require.Equal(t, 0, d.Remaining())

	// The N+1th draw starts a fresh pass without error.
	card := d.Draw()
	assert.NotEmpty(t, card.ID)
	assert.Equal(t, size-1, d.Remaining())

	// The second pass also deals every card exactly once.
	seen := map[string]int{card.ID: 1}
	for i := 0; i < size-1; i++ {
		seen[d.Draw().ID]++
	}
	assert.Len(t, seen, size)
}

func TestDrawIsDeterministicUnderFixedSeed(t *testing.T) {
	a, err := New(KindChance, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, err := New(KindChance, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	for i := 0; i < a.Size()*2; i++ {
		assert.Equal(t, a.Draw().ID, b.Draw().ID, "draw %d", i)
	}
}

func TestUnknownKindFails(t *testing.T) {
	_, err := New(Kind("TAROT"), rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestDrawOrderRoundTrip(t *testing.T) {
	d, err := New(KindChance, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		d.Draw()
	}
	saved := d.DrawOrder()
	require.Len(t, saved, d.Size()-5)

	restored, err := New(KindChance, rand.New(rand.NewSource(99)))
	require.NoError(t, err)
	require.NoError(t, restored.Restore(saved))

	assert.Equal(t, len(saved), restored.Remaining())
	for _, want := range saved {
		assert.Equal(t, want, restored.Draw().ID)
	}

	// After the restored pass runs out the deck reshuffles the full set.
	card := restored.Draw()
	assert.NotEmpty(t, card.ID)
	assert.Equal(t, restored.Size()-1, restored.Remaining())
}

func TestRestoreRejectsBadIDs(t *testing.T) {
	d, err := New(KindChance, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	assert.Error(t, d.Restore([]string{"no-such-card"}))
	assert.Error(t, d.Restore([]string{"ch-advance-go", "ch-advance-go"}))
}
