// Package vecrank provides a Go client for the vecrank relevance service:
// chunked document vectorization and batch relevance scoring.
//
//	client, _ := vecrank.New("http://localhost:8080")
//	_ = client.WaitReady(ctx, time.Second)
//
//	vecs, _ := client.Vectorize(ctx, []string{query, doc})
//	features := vecrank.Features{
//	    Cos:           vecrank.Signal(vecrank.CosineSimilarity(vecs[0][0], vecs[1][0])),
//	    EuclidDist:    vecrank.Signal(vecrank.EuclideanDistance(vecs[0][0], vecs[1][0])),
//	    WordsInHeader: vecrank.Bool(inHeader),
//	    LenURL:        vecrank.Signal(len(url)),
//	}
//	rel, _ := client.Rank(ctx, []vecrank.Features{features})
package vecrank
