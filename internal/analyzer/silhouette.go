package analyzer

import "math"

// silhouetteScore computes the mean silhouette coefficient over matrix
// given a labeling, following the standard definition:
//
//	s(i) = (b(i) - a(i)) / max(a(i), b(i))
//
// where a(i) is the mean distance from i to other points in its own
// cluster and b(i) is the mean distance from i to the points of the
// nearest other cluster. Noise points (label -1) are excluded from the
// score, matching identify404.py's practice of scoring only clustered
// points. A single cluster (or fewer than two clustered points) is
// defined as a score of 1, avoiding the divide-by-zero sklearn's
// silhouette_score would otherwise raise on.
func silhouetteScore(matrix [][]float64, labels []int) float64 {
	byCluster := make(map[int][]int)
	for i, l := range labels {
		if l < 0 {
			continue
		}
		byCluster[l] = append(byCluster[l], i)
	}

	if len(byCluster) < 2 {
		return 1
	}

	total := 0.0
	count := 0

	for label, members := range byCluster {
		for _, i := range members {
			a := meanDistanceTo(matrix, i, members, true)

			bestB := math.MaxFloat64
			for otherLabel, otherMembers := range byCluster {
				if otherLabel == label {
					continue
				}
				d := meanDistanceTo(matrix, i, otherMembers, false)
				if d < bestB {
					bestB = d
				}
			}

			denom := a
			if bestB > denom {
				denom = bestB
			}
			if denom == 0 {
				continue
			}
			total += (bestB - a) / denom
			count++
		}
	}

	if count == 0 {
		return 1
	}
	return total / float64(count)
}

func meanDistanceTo(matrix [][]float64, i int, members []int, excludeSelf bool) float64 {
	sum := 0.0
	n := 0
	for _, j := range members {
		if excludeSelf && j == i {
			continue
		}
		sum += euclidean(matrix[i], matrix[j])
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
