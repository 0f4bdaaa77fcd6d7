package field

// Resample refines the node grid by an integer factor on every axis, filling
// the new nodes by trilinear interpolation of the eight surrounding source
// nodes. A factor of 1 or less returns f itself.
func Resample(f *NodeField, factor int) *NodeField {
	if factor <= 1 {
		return f
	}

	nx := refined(f.NX, factor)
	ny := refined(f.NY, factor)
	nz := refined(f.NZ, factor)
	out := &NodeField{Values: make([]float64, nx*ny*nz), NX: nx, NY: ny, NZ: nz, Bounds: f.Bounds}

	scale := 1 / float64(factor)
	for z := 0; z < nz; z++ {
		gz := float64(z) * scale
		for y := 0; y < ny; y++ {
			gy := float64(y) * scale
			for x := 0; x < nx; x++ {
				gx := float64(x) * scale
				out.Values[out.Index(x, y, z)] = Clamp01(f.interpolate(gx, gy, gz))
			}
		}
	}

	log.Debugf("resampled %dx%dx%d nodes to %dx%dx%d", f.NX, f.NY, f.NZ, nx, ny, nz)
	return out
}

// refined returns the node count after splitting every cell into factor cells.
func refined(nodes, factor int) int {
	if nodes <= 1 {
		return nodes
	}
	return (nodes-1)*factor + 1
}

// ToCubicGrid maps an anisotropic cell grid onto a grid with the same cell
// count on every axis, sized to the largest input axis, by nearest-neighbour
// lookup. Planar grids (nz == 1) stay planar. A grid that already has the
// target shape is returned as is.
func ToCubicGrid(df *DensityField) *DensityField {
	n := df.NX
	if df.NY > n {
		n = df.NY
	}
	if df.NZ > n {
		n = df.NZ
	}
	nz := n
	if df.NZ == 1 {
		nz = 1
	}
	if df.NX == n && df.NY == n && df.NZ == nz {
		return df
	}

	out := &DensityField{Values: make([]float64, n*n*nz), NX: n, NY: n, NZ: nz, Bounds: df.Bounds}
	for z := 0; z < nz; z++ {
		sz := nearest(z, nz, df.NZ)
		for y := 0; y < n; y++ {
			sy := nearest(y, n, df.NY)
			for x := 0; x < n; x++ {
				sx := nearest(x, n, df.NX)
				out.Values[out.Index(x, y, z)] = df.Values[df.Index(sx, sy, sz)]
			}
		}
	}

	log.Debugf("cubic grid %dx%dx%d -> %dx%dx%d", df.NX, df.NY, df.NZ, n, n, nz)
	return out
}

// nearest maps index i of a dst-long axis onto a src-long axis.
func nearest(i, dst, src int) int {
	s := i * src / dst
	if s >= src {
		s = src - 1
	}
	return s
}
