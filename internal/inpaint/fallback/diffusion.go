package fallback

import "math"

var diagonalWeight = 1 / math.Sqrt2

// diffuse заполняет помеченные пиксели средним известных 8-соседей, двигаясь от границы внутрь.
// Пиксель считается заполненным сразу, поэтому в одном проходе он уже служит соседом
// для следующих. Проходы идут, пока что-то меняется, но не больше max(w, h).
// Возвращает число заполненных пикселей.
func diffuse(out []uint8, unfilled []bool, w, h, total int, report func(percent int)) int {
	filled := 0
	maxPasses := max(w, h)

	for pass := 1; filled < total && pass <= maxPasses; pass++ {
		changed := false
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				idx := y*w + x
				if !unfilled[idx] {
					continue
				}

				var r, g, b, weight float64
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dx == 0 && dy == 0 {
							continue
						}
						nx, ny := x+dx, y+dy
						if nx < 0 || nx >= w || ny < 0 || ny >= h {
							continue
						}
						ni := ny*w + nx
						if unfilled[ni] {
							continue
						}
						d := 1.0
						if dx != 0 && dy != 0 {
							d = diagonalWeight
						}
						r += float64(out[ni*4]) * d
						g += float64(out[ni*4+1]) * d
						b += float64(out[ni*4+2]) * d
						weight += d
					}
				}

				if weight > 0 {
					out[idx*4] = uint8(math.Round(r / weight))
					out[idx*4+1] = uint8(math.Round(g / weight))
					out[idx*4+2] = uint8(math.Round(b / weight))
					out[idx*4+3] = 255
					unfilled[idx] = false
					filled++
					changed = true
				}
			}
		}
		if !changed {
			break
		}
		if pass%10 == 0 {
			report(int(math.Round(float64(filled) / float64(total) * 50)))
		}
	}
	return filled
}
