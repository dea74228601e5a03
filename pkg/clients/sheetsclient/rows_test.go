package sheetsclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToStrings(t *testing.T) {
	values := [][]interface{}{
		{"UserName", "PreferenceRank", "PartySize"},
		{"John Smith", float64(1), nil},
		{},
	}

	assert.Equal(t, [][]string{
		{"UserName", "PreferenceRank", "PartySize"},
		{"John Smith", "1", ""},
		{},
	}, toStrings(values))
}

func TestToValues(t *testing.T) {
	rows := [][]string{{"Hut", "Night"}, {"Bradley", "2025-12-01"}}

	values := toValues(rows)

	assert.Equal(t, [][]interface{}{{"Hut", "Night"}, {"Bradley", "2025-12-01"}}, values)
	assert.Equal(t, rows, toStrings(values))
}
