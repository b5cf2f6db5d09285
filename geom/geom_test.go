package geom

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_mesh01(tst *testing.T) {

	defer func() {
		if err := recover(); err != nil {
			tst.Error("[1;31mERROR:", err, "[0m\n")
		}
	}()

	// a single right triangle in the z=0 plane
	coords := [][3]float64{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
	}
	conn := [][3]int{{0, 1, 2}}

	m, err := NewMesh(coords, conn, nil, nil)
	if err != nil {
		tst.Errorf("NewMesh failed: %v", err)
		return
	}

	tr := m.Triangles[0]
	chk.Float64(tst, "area", 1e-15, tr.Area, 0.5)
	chk.Vector(tst, "normal", 1e-15, tr.Normal[:], []float64{0, 0, 1})

	// partition of unity: sum of gradients weighted by area recovers zero net flux
	// for a constant field, i.e. sum_a Grad[a] == 0
	var sum [2]float64
	for a := 0; a < 3; a++ {
		sum[0] += tr.Grad[a][0]
		sum[1] += tr.Grad[a][1]
	}
	chk.Vector(tst, "sum(grad)", 1e-14, sum[:], []float64{0, 0})
}

func Test_mesh02_zeroarea(tst *testing.T) {
	coords := [][3]float64{
		{0, 0, 0},
		{1, 0, 0},
		{2, 0, 0}, // collinear -> zero area
	}
	conn := [][3]int{{0, 1, 2}}
	_, err := NewMesh(coords, conn, nil, nil)
	if err == nil {
		tst.Errorf("expected zero-area rejection")
	}
}
