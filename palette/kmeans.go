package palette

import (
	"math"
	"math/rand"
)

// 固定随机种子保证同一输入两次抽取得到同一调色板
const (
	kmeansSeed     = 42
	kmeansRestarts = 10
	kmeansMaxIter  = 300
	kmeansEpsilon  = 0.25
)

// kmeans 在 BGR 空间对像素聚类，k-means++ 播种，取多次重启中惯量最小的一组。
// 返回聚类中心与逐像素标签。
func kmeans(points [][3]float64, k int) ([][3]float64, []int) {
	rng := rand.New(rand.NewSource(kmeansSeed))

	var bestCenters [][3]float64
	var bestLabels []int
	bestInertia := math.MaxFloat64

	for restart := 0; restart < kmeansRestarts; restart++ {
		centers := seedCenters(points, k, rng)
		labels := make([]int, len(points))

		for iter := 0; iter < kmeansMaxIter; iter++ {
			// 指派：最近中心，平手取下标小者
			for i, p := range points {
				best := 0
				bestDist := math.MaxFloat64
				for c, center := range centers {
					if d := dist2(p, center); d < bestDist {
						bestDist = d
						best = c
					}
				}
				labels[i] = best
			}

			// 重算中心
			sums := make([][3]float64, k)
			counts := make([]int, k)
			for i, p := range points {
				c := labels[i]
				sums[c][0] += p[0]
				sums[c][1] += p[1]
				sums[c][2] += p[2]
				counts[c]++
			}
			moved := 0.0
			for c := range centers {
				if counts[c] == 0 {
					// 空簇重置到离现有中心最远的点
					far := farthestPoint(points, centers)
					moved += math.Sqrt(dist2(centers[c], far))
					centers[c] = far
					continue
				}
				next := [3]float64{
					sums[c][0] / float64(counts[c]),
					sums[c][1] / float64(counts[c]),
					sums[c][2] / float64(counts[c]),
				}
				moved += math.Sqrt(dist2(centers[c], next))
				centers[c] = next
			}
			if moved < kmeansEpsilon {
				break
			}
		}

		inertia := 0.0
		for i, p := range points {
			inertia += dist2(p, centers[labels[i]])
		}
		if inertia < bestInertia {
			bestInertia = inertia
			bestCenters = centers
			bestLabels = append([]int(nil), labels...)
		}
	}

	return bestCenters, bestLabels
}

// seedCenters k-means++：首个中心均匀随机，后续按距离平方加权
func seedCenters(points [][3]float64, k int, rng *rand.Rand) [][3]float64 {
	centers := make([][3]float64, 0, k)
	centers = append(centers, points[rng.Intn(len(points))])

	dists := make([]float64, len(points))
	for len(centers) < k {
		total := 0.0
		for i, p := range points {
			d := math.MaxFloat64
			for _, c := range centers {
				if dd := dist2(p, c); dd < d {
					d = dd
				}
			}
			dists[i] = d
			total += d
		}
		if total == 0 {
			// 所有点与已有中心重合，复制第一个中心占位
			centers = append(centers, centers[0])
			continue
		}
		target := rng.Float64() * total
		acc := 0.0
		pick := len(points) - 1
		for i, d := range dists {
			acc += d
			if acc >= target {
				pick = i
				break
			}
		}
		centers = append(centers, points[pick])
	}
	return centers
}

func farthestPoint(points [][3]float64, centers [][3]float64) [3]float64 {
	best := points[0]
	bestDist := -1.0
	for _, p := range points {
		d := math.MaxFloat64
		for _, c := range centers {
			if dd := dist2(p, c); dd < d {
				d = dd
			}
		}
		if d > bestDist {
			bestDist = d
			best = p
		}
	}
	return best
}

func dist2(a, b [3]float64) float64 {
	d0 := a[0] - b[0]
	d1 := a[1] - b[1]
	d2 := a[2] - b[2]
	return d0*d0 + d1*d1 + d2*d2
}
