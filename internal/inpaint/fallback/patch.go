package fallback

import (
	"math"
	"math/rand"
)

// refine переносит текстуру: для каждого помеченного пикселя ищет среди известных
// патчей наиболее похожий по сумме квадратов разностей и копирует его центр.
// Пиксели ближе half к краю остаются со значением после диффузии.
func refine(out, orig []uint8, masked []bool, w, h int, params Params, rng *rand.Rand, report func(percent int)) {
	half := params.PatchSize / 2

	known := knownPositions(masked, w, h, half)
	if len(known) == 0 {
		return
	}
	candidates := sampleCandidates(known, params.MaxCandidates)

	targets := make([]int, 0, len(masked))
	for i, m := range masked {
		if m {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return
	}

	total := params.Iterations * len(targets)
	for iter := 0; iter < params.Iterations; iter++ {
		if rng != nil {
			rng.Shuffle(len(targets), func(i, j int) {
				targets[i], targets[j] = targets[j], targets[i]
			})
		}

		for mi, idx := range targets {
			x, y := idx%w, idx/w
			if x >= half && x < w-half && y >= half && y < h-half {
				best := bestMatch(out, orig, candidates, x, y, w, half)
				out[idx*4] = orig[best*4]
				out[idx*4+1] = orig[best*4+1]
				out[idx*4+2] = orig[best*4+2]
			}

			if mi%500 == 0 {
				done := iter*len(targets) + mi
				report(min(99, 50+int(math.Round(float64(done)/float64(total)*50))))
			}
		}
	}
}

// knownPositions собирает известные позиции с шагом 2, чей патч целиком внутри изображения.
func knownPositions(masked []bool, w, h, half int) []int {
	var known []int
	for y := half; y < h-half; y += 2 {
		for x := half; x < w-half; x += 2 {
			if !masked[y*w+x] {
				known = append(known, y*w+x)
			}
		}
	}
	return known
}

// sampleCandidates берёт не больше limit позиций с равномерным шагом.
func sampleCandidates(known []int, limit int) []int {
	if len(known) <= limit {
		return known
	}
	step := (len(known) + limit - 1) / limit
	out := make([]int, 0, limit)
	for i := 0; i < len(known) && len(out) < limit; i += step {
		out = append(out, known[i])
	}
	return out
}

// bestMatch возвращает индекс кандидата с минимальной SSD патча.
func bestMatch(out, orig []uint8, candidates []int, x, y, w, half int) int {
	best := candidates[0]
	bestDist := math.MaxInt64
	for _, ki := range candidates {
		kx, ky := ki%w, ki/w
		dist := 0
		for py := -half; py <= half; py++ {
			for px := -half; px <= half; px++ {
				s := ((y+py)*w + x + px) * 4
				k := ((ky+py)*w + kx + px) * 4
				dr := int(out[s]) - int(orig[k])
				dg := int(out[s+1]) - int(orig[k+1])
				db := int(out[s+2]) - int(orig[k+2])
				dist += dr*dr + dg*dg + db*db
			}
		}
		if dist < bestDist {
			bestDist = dist
			best = ki
		}
	}
	return best
}
