package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDeviceID(t *testing.T) {
	_, err := ValidateDeviceID("")
	assert.Error(t, err)

	_, err = ValidateDeviceID(strings.Repeat("a", 33))
	assert.Error(t, err)

	id, err := ValidateDeviceID("dev1")
	require.NoError(t, err)
	assert.Equal(t, "dev1", id)
}

func TestValidateSearchQuery(t *testing.T) {
	q, err := ValidateSearchQuery("")
	require.NoError(t, err)
	assert.Equal(t, "", q)

	_, err = ValidateSearchQuery(strings.Repeat("a", 129))
	assert.Error(t, err)

	q, err = ValidateSearchQuery("bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", q)
}

func TestParseChains(t *testing.T) {
	assert.Nil(t, ParseChains(""))

	chains := ParseChains("bitcoin, nonexistent_chain, ethereum")
	ids := make([]string, 0, len(chains))
	for _, c := range chains {
		ids = append(ids, string(c))
	}
	assert.Equal(t, []string{"bitcoin", "ethereum"}, ids)
}

func TestSearchMinScore(t *testing.T) {
	assert.Equal(t, 10, SearchMinScore("btc"))
	assert.Equal(t, 10, SearchMinScore(strings.Repeat("a", 10)))
	assert.Equal(t, -100, SearchMinScore(strings.Repeat("a", 11)))
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 5, parseIntDefault("", 5))
	assert.Equal(t, 5, parseIntDefault("nope", 5))
	assert.Equal(t, 42, parseIntDefault("42", 5))
}
