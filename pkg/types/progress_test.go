// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressState_Upsert(t *testing.T) {
	s := NewProgressState("run", SourceOpenAlex)

	assert.True(t, s.Upsert(Record{ID: "W1", Title: "first"}))
	assert.True(t, s.Upsert(Record{ID: "W2", Title: "second"}))
	assert.False(t, s.Upsert(Record{ID: "W1", Title: "first, refetched"}))

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"W1", "W2"}, s.Order)

	ordered := s.Ordered()
	assert.Equal(t, "first, refetched", ordered[0].Title)
	assert.Equal(t, "second", ordered[1].Title)
}

func TestProgressState_UpsertOnZeroValue(t *testing.T) {
	var s ProgressState
	assert.True(t, s.Upsert(Record{ID: "x"}))
	assert.Equal(t, 1, s.Len())
}

func TestProgressState_Token(t *testing.T) {
	s := NewProgressState("run", SourcePMC)
	assert.Equal(t, "", s.Token())
	assert.Nil(t, s.ResumptionToken)

	s.SetToken("200")
	assert.Equal(t, "200", s.Token())

	s.SetToken("")
	assert.Nil(t, s.ResumptionToken)
}

func TestProgressState_QueryCompleted(t *testing.T) {
	s := NewProgressState("run", SourcePMC)
	s.CompletedQueries = []string{"pmc:Artificial Intelligence"}

	assert.True(t, s.QueryCompleted("pmc:Artificial Intelligence"))
	assert.False(t, s.QueryCompleted("pmc:Deep Learning"))
}

func TestRecord_FirstAuthor(t *testing.T) {
	assert.Equal(t, "Unknown", Record{}.FirstAuthor())
	assert.Equal(t, "Unknown", Record{Authors: []Author{{}}}.FirstAuthor())
	assert.Equal(t, "Grace Hopper", Record{Authors: []Author{{Name: "Grace Hopper"}, {Name: "B"}}}.FirstAuthor())
}
