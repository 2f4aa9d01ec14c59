package mf6

import (
	"fmt"

	"github.com/robert-malhotra/go-mf6/dfn"
)

// Discretization describes the grid an entity's arrays and cell addresses
// refer to.
type Discretization interface {
	// GridDimensions returns layers, rows (or cells per layer for vertex
	// and unstructured grids) and columns (0 when not structured).
	GridDimensions() (layers, rowsOrCells, colsOrZero int)
	LayerCount() int
}

// GridType identifies the discretization package a Grid came from.
type GridType int

const (
	GridStructured   GridType = iota // DIS: layer, row, column
	GridVertex                       // DISV: layer, cell2d
	GridUnstructured                 // DISU: node
)

// Grid is the Discretization derived from a DIS, DISV or DISU package.
type Grid struct {
	Type   GridType
	Layers int
	Rows   int // rows for DIS, cells per layer for DISV, nodes for DISU
	Cols   int // 0 unless structured
}

// StructuredGrid returns a DIS grid.
func StructuredGrid(nlay, nrow, ncol int) Grid {
	return Grid{Type: GridStructured, Layers: nlay, Rows: nrow, Cols: ncol}
}

// VertexGrid returns a DISV grid.
func VertexGrid(nlay, ncpl int) Grid {
	return Grid{Type: GridVertex, Layers: nlay, Rows: ncpl}
}

// UnstructuredGrid returns a DISU grid.
func UnstructuredGrid(nodes int) Grid {
	return Grid{Type: GridUnstructured, Layers: 1, Rows: nodes}
}

func (g Grid) GridDimensions() (int, int, int) {
	return g.Layers, g.Rows, g.Cols
}

func (g Grid) LayerCount() int {
	return g.Layers
}

// CellIDSize returns the number of integers in a cell address.
func (g Grid) CellIDSize() int {
	switch g.Type {
	case GridStructured:
		return 3
	case GridVertex:
		return 2
	default:
		return 1
	}
}

// cellIDSize is the address width of any Discretization. Implementations
// other than Grid are classified by their dimensions.
func cellIDSize(d Discretization) int {
	if g, ok := d.(interface{ CellIDSize() int }); ok {
		return g.CellIDSize()
	}
	layers, _, cols := d.GridDimensions()
	switch {
	case cols > 0:
		return 3
	case layers > 1:
		return 2
	default:
		return 1
	}
}

// cellBounds returns the exclusive upper bound of each cell address component.
func cellBounds(d Discretization) []int {
	layers, rows, cols := d.GridDimensions()
	switch cellIDSize(d) {
	case 3:
		return []int{layers, rows, cols}
	case 2:
		return []int{layers, rows}
	default:
		return []int{layers * rows}
	}
}

// CellsPerLayer returns the number of cells in one layer.
func CellsPerLayer(d Discretization) int {
	_, rows, cols := d.GridDimensions()
	if cols > 0 {
		return rows * cols
	}
	return rows
}

// shapeOf returns how many storage units an array with the given shape
// source splits into when layered, and the element count of each.
func shapeOf(d Discretization, shape dfn.Shape) (layers, perLayer int, err error) {
	if d == nil {
		return 0, 0, fmt.Errorf("%w: no discretization", ErrSchema)
	}
	nlay, rows, cols := d.GridDimensions()
	switch shape {
	case dfn.ShapeGrid:
		return nlay, CellsPerLayer(d), nil
	case dfn.ShapeLayer:
		return 1, CellsPerLayer(d), nil
	case dfn.ShapeCols:
		if cols == 0 {
			return 0, 0, fmt.Errorf("%w: shape %s needs a structured grid", ErrSchema, shape)
		}
		return 1, cols, nil
	case dfn.ShapeRows:
		if cols == 0 {
			return 0, 0, fmt.Errorf("%w: shape %s needs a structured grid", ErrSchema, shape)
		}
		return 1, rows, nil
	default:
		return 0, 0, fmt.Errorf("%w: array without shape", ErrSchema)
	}
}

// recordDims reads the dimensions of a discretization package through get,
// which returns the integer value of a dimensions record.
func recordDims(ftype string, get func(name string) (int, error)) (Grid, error) {
	dims := func(names ...string) ([]int, error) {
		out := make([]int, len(names))
		for i, n := range names {
			v, err := get(n)
			if err != nil {
				return nil, err
			}
			if v <= 0 {
				return nil, fmt.Errorf("%w: %s %s must be positive, got %d", ErrSchema, ftype, n, v)
			}
			out[i] = v
		}
		return out, nil
	}
	switch ftype {
	case "dis":
		d, err := dims("nlay", "nrow", "ncol")
		if err != nil {
			return Grid{}, err
		}
		return StructuredGrid(d[0], d[1], d[2]), nil
	case "disv":
		d, err := dims("nlay", "ncpl")
		if err != nil {
			return Grid{}, err
		}
		return VertexGrid(d[0], d[1]), nil
	case "disu":
		d, err := dims("nodes")
		if err != nil {
			return Grid{}, err
		}
		return UnstructuredGrid(d[0]), nil
	}
	return Grid{}, fmt.Errorf("%w: %q is not a discretization package", ErrSchema, ftype)
}

func isDiscretization(ftype string) bool {
	return ftype == "dis" || ftype == "disv" || ftype == "disu"
}
