package rdfit

import (
	"testing"

	"causelens/domain/rd"

	"github.com/stretchr/testify/assert"
)

func TestIsTreated_Boundary(t *testing.T) {
	assert.True(t, IsTreated(70, 70, rd.SideAbove), "cutoff belongs to treated when policy is above")
	assert.False(t, IsTreated(70, 70, rd.SideBelow), "cutoff belongs to control when policy is below")

	assert.True(t, IsTreated(71, 70, rd.SideAbove))
	assert.False(t, IsTreated(69, 70, rd.SideAbove))
	assert.True(t, IsTreated(69, 70, rd.SideBelow))
	assert.False(t, IsTreated(71, 70, rd.SideBelow))
}

func TestPartition(t *testing.T) {
	points := []rd.ScatterPoint{{X: 60, Y: 1}, {X: 70, Y: 2}, {X: 80, Y: 3}}

	labeled, control, treated := Partition(points, 70, rd.SideAbove)
	assert.Equal(t, []bool{false, true, true}, treatedFlags(labeled))
	assert.Len(t, control, 1)
	assert.Len(t, treated, 2)

	labeled, control, treated = Partition(points, 70, rd.SideBelow)
	assert.Equal(t, []bool{true, false, false}, treatedFlags(labeled))
	assert.Len(t, control, 2)
	assert.Len(t, treated, 1)

	// input is untouched
	assert.Equal(t, []bool{false, false, false}, treatedFlags(points))
}

func treatedFlags(points []rd.ScatterPoint) []bool {
	flags := make([]bool, len(points))
	for i, p := range points {
		flags[i] = p.Treated
	}
	return flags
}
