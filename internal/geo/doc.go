// Package geo implements hierarchical pathfinding on a uniform 8-connected grid.
//
// A Grid is split into rectangular regions by a Partition. Queries inside one
// region run exact A* (Search). Queries across regions use a RouteTable built
// offline by Pathfinder.Precompute: a cached path from the start cell into the
// target's region, followed by a last-mile A* leg to the target.
package geo
