package aggregate

import (
	"encoding/json"
	"testing"

	"cwp_reporting/src/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func root(id string, props model.Properties) model.Entity {
	return model.Entity{ID: id, Properties: props}
}

func neighbor(set, id string) model.Neighbor {
	return model.Neighbor{EntitySetID: set, ID: id, Properties: model.Properties{"ol.name": {id}}}
}

var (
	peoplePartition   = Partition{Field: "person", EntitySetID: "people", Cardinality: One}
	planPartition     = Partition{Field: "worksitePlans", EntitySetID: "worksite_plans", Cardinality: Many}
	worksitePartition = Partition{Field: "worksite", EntitySetID: "worksites", Cardinality: One}
)

func TestJoinRootWithoutNeighbors(t *testing.T) {
	roots := []model.Entity{root("p1", model.Properties{"ol.status": {"ACTIVE"}})}

	records := Join(roots, []Partition{peoplePartition, planPartition}, model.NeighborResult{})

	require.Contains(t, records, "p1")
	rec := records["p1"]
	assert.Equal(t, roots[0].Properties, rec.Properties)
	assert.NotContains(t, rec.single, "person")
	assert.Empty(t, rec.Many("worksitePlans"))
	assert.Empty(t, rec.multi)
}

func TestJoinExcludesUnrequestedTypes(t *testing.T) {
	roots := []model.Entity{root("p1", nil)}
	result := model.NeighborResult{"p1": {
		neighbor("infractions", "i1"),
		neighbor("people", "person-1"),
	}}

	records := Join(roots, []Partition{peoplePartition, planPartition}, result)

	rec := records["p1"]
	person, ok := rec.One("person")
	require.True(t, ok)
	assert.Equal(t, "person-1", person.ID)
	assert.Empty(t, rec.Many("worksitePlans"))
	assert.Len(t, rec.single, 1)
	assert.Empty(t, rec.multi)
}

func TestJoinDropsOrphanEdges(t *testing.T) {
	roots := []model.Entity{root("p1", nil)}
	result := model.NeighborResult{"ghost": {neighbor("people", "person-9")}}

	records := Join(roots, []Partition{peoplePartition}, result)

	assert.Len(t, records, 1)
	assert.NotContains(t, records, "ghost")
	assert.NotContains(t, records["p1"].single, "person")
}

func TestJoinMergesIndependentResultsInAnyOrder(t *testing.T) {
	roots := []model.Entity{root("p1", nil), root("p2", nil)}
	people := model.NeighborResult{"p1": {neighbor("people", "person-1")}}
	plans := model.NeighborResult{
		"p1": {neighbor("worksite_plans", "wp1"), neighbor("worksite_plans", "wp2")},
		"p2": {neighbor("worksite_plans", "wp3")},
	}
	partitions := []Partition{peoplePartition, planPartition}

	ab := Join(roots, partitions, people, plans)
	ba := Join(roots, partitions, plans, people)

	for _, records := range []map[string]*Record{ab, ba} {
		person, ok := records["p1"].One("person")
		require.True(t, ok)
		assert.Equal(t, "person-1", person.ID)
		assert.Len(t, records["p1"].Many("worksitePlans"), 2)
		assert.Len(t, records["p2"].Many("worksitePlans"), 1)
		assert.NotContains(t, records["p2"].single, "person")
	}

	abJSON, err := json.Marshal(ab)
	require.NoError(t, err)
	baJSON, err := json.Marshal(ba)
	require.NoError(t, err)
	assert.JSONEq(t, string(abJSON), string(baJSON))
}

func TestJoinIsIdempotent(t *testing.T) {
	roots := []model.Entity{root("p1", model.Properties{"ol.status": {"ACTIVE"}})}
	result := model.NeighborResult{"p1": {neighbor("people", "person-1"), neighbor("worksite_plans", "wp1")}}
	partitions := []Partition{peoplePartition, planPartition}

	first, err := json.Marshal(Join(roots, partitions, result))
	require.NoError(t, err)
	second, err := json.Marshal(Join(roots, partitions, result))
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))

	// the inputs are untouched
	assert.Len(t, result["p1"], 2)
	assert.Equal(t, model.Properties{"ol.status": {"ACTIVE"}}, roots[0].Properties)
}

func TestJoinRecordOwnsItsProperties(t *testing.T) {
	roots := []model.Entity{root("p1", model.Properties{"ol.status": {"ACTIVE"}})}
	records := Join(roots, nil)

	records["p1"].Properties["ol.status"][0] = "CLOSED"
	assert.Equal(t, "ACTIVE", roots[0].Properties.FirstString("ol.status"))
}

func TestJoinOneKeepsFirstNeighbor(t *testing.T) {
	roots := []model.Entity{root("p1", nil)}
	result := model.NeighborResult{"p1": {neighbor("people", "first"), neighbor("people", "second")}}

	person, ok := Join(roots, []Partition{peoplePartition}, result)["p1"].One("person")
	require.True(t, ok)
	assert.Equal(t, "first", person.ID)
}

func TestJoinEndToEnd(t *testing.T) {
	roots := []model.Entity{root("p1", nil), root("p2", nil)}
	result := model.NeighborResult{"p1": {{EntitySetID: "worksites", ID: "w1"}}}

	records := Join(roots, []Partition{worksitePartition}, result)

	data, err := json.Marshal(records)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"p1": {"id": "p1", "properties": null, "worksite": {"entitySetId": "worksites", "id": "w1", "properties": null}},
		"p2": {"id": "p2", "properties": null}
	}`, string(data))
}

func TestSortedFollowsRootOrder(t *testing.T) {
	roots := []model.Entity{root("b", nil), root("a", nil), root("b", nil)}
	records := Join(roots, nil)

	sorted := Sorted(roots, records)
	require.Len(t, sorted, 2)
	assert.Equal(t, "b", sorted[0].ID)
	assert.Equal(t, "a", sorted[1].ID)
}
