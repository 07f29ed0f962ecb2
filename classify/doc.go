// Package classify decides whether a free-text query is about a plant at
// all before the retrieval pipeline spends any effort on it.
//
// A Classifier holds one centroid vector per coarse category (plant, animal,
// artifact, food, other), each computed once at startup by embedding a fixed
// set of bilingual anchor phrases and averaging them. Classification is then
// a single embedding call plus cosine comparisons, cheap enough to run on
// every query.
//
// The plant decision is threshold-based rather than winner-takes-all: a
// query counts as plant-related when its similarity to the plant centroid
// meets the threshold, even if another category happens to score higher.
package classify
