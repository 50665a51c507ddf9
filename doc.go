// Package poliscope is a hybrid retrieval and ranking engine for policy
// document question answering.
//
// It combines a three-level hierarchical keyword index, dense vector
// retrieval, query understanding with intent classification, reciprocal
// rank fusion, and a multi-stage reranking cascade. The entry point is
// Client, constructed with NewClient from an embedding provider, a
// chunk store, and optional LLM and cross-encoder clients:
//
//	client, err := poliscope.NewClient(embedderClient, chunkStore, llmClient, crossClient, nil, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.IndexChunks(ctx, chunks); err != nil {
//		log.Fatal(err)
//	}
//	resp, err := client.Search(ctx, poliscope.SearchRequest{
//		Query: "biomedical startup funding",
//	})
//
// All external calls degrade rather than abort: a failed retrieval
// channel drops that source, a failed reranker keeps the fused order,
// and a failed summary leaves the summary empty.
package poliscope
