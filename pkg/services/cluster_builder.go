package services

import (
	"sort"

	"github.com/ekaya-inc/relgraph/pkg/models"
)

// ClusterBuilder groups columns into reference clusters with a union-find
// over column identities. Explicit edges must be added before implicit
// ones so declared-constraint provenance wins when a column appears on
// both kinds of edge.
type ClusterBuilder struct {
	parent     []int
	size       []int
	identities []models.ColumnIdentity
	provenance []models.Provenance
	index      map[models.ColumnIdentity]int
}

// NewClusterBuilder creates an empty builder.
func NewClusterBuilder() *ClusterBuilder {
	return &ClusterBuilder{
		index: make(map[models.ColumnIdentity]int),
	}
}

// AddExplicitEdge unions two columns evidenced by a declared FK constraint.
func (b *ClusterBuilder) AddExplicitEdge(x, y models.ColumnIdentity) {
	b.union(b.node(x, models.ProvenanceExplicit), b.node(y, models.ProvenanceExplicit))
}

// AddImplicitEdge unions two columns evidenced by statistical inference.
func (b *ClusterBuilder) AddImplicitEdge(x, y models.ColumnIdentity) {
	b.union(b.node(x, models.ProvenanceImplicit), b.node(y, models.ProvenanceImplicit))
}

// node interns an identity, upgrading provenance to explicit when a column
// shows up on a declared edge. Explicit is never downgraded.
func (b *ClusterBuilder) node(id models.ColumnIdentity, prov models.Provenance) int {
	if i, ok := b.index[id]; ok {
		if prov == models.ProvenanceExplicit {
			b.provenance[i] = models.ProvenanceExplicit
		}
		return i
	}

	i := len(b.parent)
	b.parent = append(b.parent, i)
	b.size = append(b.size, 1)
	b.identities = append(b.identities, id)
	b.provenance = append(b.provenance, prov)
	b.index[id] = i
	return i
}

// find returns the root of i with path compression.
func (b *ClusterBuilder) find(i int) int {
	for b.parent[i] != i {
		b.parent[i] = b.parent[b.parent[i]]
		i = b.parent[i]
	}
	return i
}

// union joins the sets of i and j by size.
func (b *ClusterBuilder) union(i, j int) {
	ri, rj := b.find(i), b.find(j)
	if ri == rj {
		return
	}
	if b.size[ri] < b.size[rj] {
		ri, rj = rj, ri
	}
	b.parent[rj] = ri
	b.size[ri] += b.size[rj]
}

// Clusters materializes the connected components. Members are sorted by
// canonical key and clusters by their first member, so output is stable
// regardless of edge insertion order.
func (b *ClusterBuilder) Clusters() []models.Cluster {
	byRoot := make(map[int][]models.ClusterMember)
	for i, id := range b.identities {
		root := b.find(i)
		byRoot[root] = append(byRoot[root], models.ClusterMember{
			ColumnIdentity: id,
			Provenance:     b.provenance[i],
		})
	}

	clusters := make([]models.Cluster, 0, len(byRoot))
	for _, members := range byRoot {
		sort.Slice(members, func(i, j int) bool {
			return members[i].ColumnIdentity.Less(members[j].ColumnIdentity)
		})
		clusters = append(clusters, models.Cluster{Members: members})
	}

	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Members[0].ColumnIdentity.Less(clusters[j].Members[0].ColumnIdentity)
	})

	return clusters
}

// BuildClusters runs explicit edges first, then accepted candidates, and
// returns the resulting clusters.
func BuildClusters(explicit []models.ExplicitEdge, implicit []models.RelationshipCandidate) []models.Cluster {
	b := NewClusterBuilder()

	for _, e := range explicit {
		b.AddExplicitEdge(
			models.ColumnIdentity{Table: e.FKTable, Column: e.FKColumn},
			models.ColumnIdentity{Table: e.PKTable, Column: e.PKColumn},
		)
	}
	for _, c := range implicit {
		b.AddImplicitEdge(
			models.ColumnIdentity{Table: c.FKTable, Column: c.FKColumn},
			models.ColumnIdentity{Table: c.PKTable, Column: c.PKColumn},
		)
	}

	return b.Clusters()
}
